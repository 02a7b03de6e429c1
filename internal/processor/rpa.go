package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/modelindex/internal/models"
)

// RPAProcessor indexes RPA scripts (.rpa).
type RPAProcessor struct{}

// NewRPAProcessor returns the rpa processor.
func NewRPAProcessor() *RPAProcessor {
	return &RPAProcessor{}
}

func (p *RPAProcessor) ID() string { return TypeRPA }

func (p *RPAProcessor) Extensions() []string { return []string{".rpa"} }

type rpaScript struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Process treats empty (or whitespace-only) contents as an empty script.
// Unlike the form processor it fails hard: unparseable contents or a missing id
// return an error and the item is not indexed.
func (p *RPAProcessor) Process(_ context.Context, item *models.IndexItem) (*models.Metadata, error) {
	contents := item.File.Contents
	if strings.TrimSpace(contents) == "" {
		return &models.Metadata{
			Type:      TypeRPA,
			Scripts:   []models.Script{},
			LinkedIDs: []models.LinkedID{},
		}, nil
	}
	var script rpaScript
	if err := json.Unmarshal([]byte(contents), &script); err != nil {
		return nil, fmt.Errorf("parse rpa script: %w", err)
	}
	if script.ID == "" {
		return nil, ErrMissingScriptID
	}
	name := script.Name
	if name == "" {
		name = script.ID
	}
	item.LocalValue = script.ID
	return &models.Metadata{
		Type:      TypeRPA,
		Scripts:   []models.Script{{ID: script.ID, Name: name}},
		LinkedIDs: []models.LinkedID{},
	}, nil
}
