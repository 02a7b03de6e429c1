package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned by SearchQuery.Validate for a blank query.
var ErrEmptyQuery = errors.New("query cannot be empty")

// SearchQuery represents a keyword search over declared ids, names and links.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Type restricts hits to files of one processor type (e.g. "bpmn").
	Type         string `json:"type,omitempty"`
	FuzzyEnabled bool   `json:"fuzzy_enabled,omitempty"` // enable fuzzy matching for typo tolerance
}

// Validate ensures the search query has valid fields and sets defaults.
// Returns ErrEmptyQuery if the query is blank; otherwise normalizes limit.
func (q *SearchQuery) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return ErrEmptyQuery
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}
