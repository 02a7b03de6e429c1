package processor

import (
	"context"
	"encoding/json"

	"github.com/hyperjump/modelindex/internal/models"
)

// FormProcessor indexes form definitions (.form), which are JSON documents
// declaring a form id.
type FormProcessor struct{}

// NewFormProcessor returns the form processor.
func NewFormProcessor() *FormProcessor {
	return &FormProcessor{}
}

func (p *FormProcessor) ID() string { return TypeForm }

func (p *FormProcessor) Extensions() []string { return []string{".form"} }

type formDocument struct {
	ID string `json:"id"`
}

// Process never returns an error: unparseable forms yield metadata with Error
// set and no ids.
func (p *FormProcessor) Process(_ context.Context, item *models.IndexItem) (*models.Metadata, error) {
	var doc formDocument
	if err := json.Unmarshal([]byte(item.File.Contents), &doc); err != nil {
		return &models.Metadata{
			Type:  TypeForm,
			Error: err.Error(),
			IDs:   []string{},
		}, nil
	}
	ids := []string{}
	if doc.ID != "" {
		ids = append(ids, doc.ID)
		item.LocalValue = doc.ID
	}
	return &models.Metadata{Type: TypeForm, IDs: ids}, nil
}
