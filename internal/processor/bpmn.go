package processor

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/hyperjump/modelindex/internal/models"
)

// Link types produced by the bpmn processor.
const (
	LinkProcessID  = "processId"
	LinkDecisionID = "decisionId"
	LinkFormID     = "formId"
)

// BPMNProcessor indexes BPMN diagrams (.bpmn). Declared ids are process ids;
// linked ids come from Zeebe extension elements (called processes, called
// decisions, linked forms and linked resources such as RPA scripts).
type BPMNProcessor struct{}

// NewBPMNProcessor returns the bpmn processor.
func NewBPMNProcessor() *BPMNProcessor {
	return &BPMNProcessor{}
}

func (p *BPMNProcessor) ID() string { return TypeBPMN }

func (p *BPMNProcessor) Extensions() []string { return []string{".bpmn"} }

// Process embeds XML errors in the metadata instead of failing the item.
func (p *BPMNProcessor) Process(_ context.Context, item *models.IndexItem) (*models.Metadata, error) {
	ids := []string{}
	linked := []models.LinkedID{}
	extra := map[string]any{}

	err := walkXML(item.File.Contents, func(el xml.StartElement, owner string) {
		switch el.Name.Space {
		case nsBPMN:
			switch el.Name.Local {
			case "definitions":
				executionPlatform(el, extra)
			case "process":
				if id := attrValue(el, "", "id"); id != "" {
					ids = append(ids, id)
				}
			}
		case nsZeebe:
			if l, ok := zeebeLink(el, owner); ok {
				linked = append(linked, l)
			}
		}
	})
	if err != nil {
		return &models.Metadata{
			Type:      TypeBPMN,
			Error:     err.Error(),
			IDs:       []string{},
			LinkedIDs: []models.LinkedID{},
		}, nil
	}
	if len(ids) > 0 {
		item.LocalValue = ids[0]
	}
	meta := &models.Metadata{Type: TypeBPMN, IDs: ids, LinkedIDs: linked}
	if len(extra) > 0 {
		meta.Extra = extra
	}
	return meta, nil
}

func zeebeLink(el xml.StartElement, owner string) (models.LinkedID, bool) {
	var id, typ string
	switch el.Name.Local {
	case "calledElement":
		id, typ = attrValue(el, "", "processId"), LinkProcessID
	case "calledDecision":
		id, typ = attrValue(el, "", "decisionId"), LinkDecisionID
	case "formDefinition":
		id, typ = attrValue(el, "", "formId"), LinkFormID
	case "linkedResource":
		id = attrValue(el, "", "resourceId")
		typ = strings.ToLower(attrValue(el, "", "resourceType"))
		if typ == "" {
			typ = "resource"
		}
	default:
		return models.LinkedID{}, false
	}
	if id == "" {
		return models.LinkedID{}, false
	}
	return models.LinkedID{ID: id, ElementID: owner, Type: typ}, true
}
