// Package keyword provides full-text lookup of indexed files by the ids, names
// and links they declare.
package keyword

import "context"

// Document is the searchable view of one indexed file.
type Document struct {
	URI   string   `json:"uri"`
	Type  string   `json:"type"`
	Title string   `json:"title"`
	IDs   []string `json:"ids"`
	Names []string `json:"names"`
	Links []string `json:"links"`
}

// SearchOptions optional parameters for keyword search. Nil means use defaults.
type SearchOptions struct {
	// Type restricts hits to files produced by this processor (e.g. "bpmn").
	Type string
	// FuzzyEnabled enables fuzzy matching for typo tolerance.
	FuzzyEnabled bool
	// Fuzziness is the maximum Levenshtein edit distance (1 or 2). Defaults to 2.
	Fuzziness int
}

// Index defines keyword indexing and search operations keyed by file URI.
type Index interface {
	Index(ctx context.Context, uri string, doc *Document) error
	Delete(ctx context.Context, uri string) error
	Search(ctx context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error)
	DocCount() (uint64, error)
	Close() error
}

// Result is a single keyword search hit.
type Result struct {
	URI   string  `json:"uri"`
	Score float64 `json:"score"`
}
