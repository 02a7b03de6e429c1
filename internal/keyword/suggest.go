package keyword

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// Suggestion is a dictionary term close to a misspelled query.
type Suggestion struct {
	Term     string `json:"term"`
	Distance int    `json:"distance"`
}

// SuggestOption configures Suggest.
type SuggestOption func(*suggestConfig)

type suggestConfig struct {
	maxDistance    int
	maxSuggestions int
}

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SuggestOption {
	return func(c *suggestConfig) {
		if d > 0 {
			c.maxDistance = d
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions returned.
func WithMaxSuggestions(n int) SuggestOption {
	return func(c *suggestConfig) {
		if n > 0 {
			c.maxSuggestions = n
		}
	}
}

// Suggest returns the dictionary terms within Levenshtein distance of query, closest
// first and then alphabetically. Comparison ignores case; an exact
// case-insensitive match is not a suggestion.
func Suggest(query string, dictionary []string, opts ...SuggestOption) []Suggestion {
	cfg := suggestConfig{maxDistance: 2, maxSuggestions: 5}
	for _, opt := range opts {
		opt(&cfg)
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	params := levenshtein.NewParams().MaxCost(cfg.maxDistance)
	seen := make(map[string]struct{}, len(dictionary))
	var out []Suggestion
	for _, term := range dictionary {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		t := strings.ToLower(term)
		if t == q {
			continue
		}
		if d := levenshtein.Distance(q, t, params); d <= cfg.maxDistance {
			out = append(out, Suggestion{Term: term, Distance: d})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > cfg.maxSuggestions {
		out = out[:cfg.maxSuggestions]
	}
	return out
}
