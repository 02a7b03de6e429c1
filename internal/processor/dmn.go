package processor

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/hyperjump/modelindex/internal/models"
)

// DMNProcessor indexes DMN decision models (.dmn); declared ids are decision ids.
type DMNProcessor struct{}

// NewDMNProcessor returns the dmn processor.
func NewDMNProcessor() *DMNProcessor {
	return &DMNProcessor{}
}

func (p *DMNProcessor) ID() string { return TypeDMN }

func (p *DMNProcessor) Extensions() []string { return []string{".dmn"} }

// isDMNNamespace accepts every published DMN model namespace (1.1 through 1.5).
func isDMNNamespace(space string) bool {
	return strings.Contains(space, "omg.org/spec/DMN/")
}

// Process embeds XML errors in the metadata instead of failing the item.
func (p *DMNProcessor) Process(_ context.Context, item *models.IndexItem) (*models.Metadata, error) {
	ids := []string{}
	extra := map[string]any{}
	err := walkXML(item.File.Contents, func(el xml.StartElement, _ string) {
		if !isDMNNamespace(el.Name.Space) {
			return
		}
		switch el.Name.Local {
		case "definitions":
			executionPlatform(el, extra)
		case "decision":
			if id := attrValue(el, "", "id"); id != "" {
				ids = append(ids, id)
			}
		}
	})
	if err != nil {
		return &models.Metadata{Type: TypeDMN, Error: err.Error(), IDs: []string{}}, nil
	}
	if len(ids) > 0 {
		item.LocalValue = ids[0]
	}
	meta := &models.Metadata{Type: TypeDMN, IDs: ids}
	if len(extra) > 0 {
		meta.Extra = extra
	}
	return meta, nil
}
