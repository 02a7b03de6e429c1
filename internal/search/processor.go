package search

import (
	"strings"

	"github.com/hyperjump/modelindex/internal/models"
)

// ProcessQuery normalizes query in place and validates it: surrounding and
// repeated whitespace is collapsed and the type filter is lower-cased to match
// processor ids.
func ProcessQuery(query *models.SearchQuery) error {
	query.Query = strings.Join(strings.Fields(query.Query), " ")
	query.Type = strings.ToLower(strings.TrimSpace(query.Type))
	return query.Validate()
}
