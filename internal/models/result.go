package models

// SearchResult is one search hit joined with the metadata of the file it names.
type SearchResult struct {
	URI          string   `json:"uri"`
	Type         string   `json:"type,omitempty"`
	IDs          []string `json:"ids,omitempty"`
	Score        float64  `json:"score"`
	KeywordScore float64  `json:"keyword_score"`
	// Match is how the query matched the file's ids or names: exact,
	// all_words, prefix, partial or none.
	Match string `json:"match,omitempty"`
	Rank  int    `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Query     string          `json:"query"`
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	QueryTime int64           `json:"query_time_ms"`
	// AutoFuzzy indicates that fuzzy search was automatically enabled because
	// the initial exact search returned no results.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
	// Suggestions lists declared ids close to the query when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}
