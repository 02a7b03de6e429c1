package ranking

import (
	"sort"
	"strings"
)

// Ranker scores candidates by how closely their declared ids and script names
// match the query and blends that with the keyword score.
type Ranker struct {
	config *Config
}

// NewRanker creates a Ranker. A nil config uses DefaultConfig.
func NewRanker(config *Config) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Ranker{config: config}
}

// MatchID scores query against a single id or name and reports the tier.
func (r *Ranker) MatchID(query, id string) (float64, MatchType) {
	normID := NormalizeID(id)
	if normID == "" {
		return 0, MatchTypeNone
	}
	if id == query {
		return r.config.ExactIDScore, MatchTypeExact
	}
	normQuery := NormalizeID(query)
	if normQuery == normID {
		return r.config.ExactIDScore * 0.95, MatchTypeExact
	}
	if normQuery != "" && strings.ReplaceAll(normQuery, " ", "") == strings.ReplaceAll(normID, " ", "") {
		return r.config.ExactIDScore * 0.9, MatchTypeExact
	}
	terms := Terms(query)
	if AllTermsMatch(terms, normID) {
		return r.config.AllWordsScore, MatchTypeAllWords
	}
	best, match := 0.0, MatchTypeNone
	for _, term := range terms {
		if IsPrefixMatch(term, normID) {
			score := r.config.PrefixMatchScore
			// Longer prefix matches score higher
			if len(term) > 3 {
				score *= 1.0 + float64(len(term)-3)*0.05
			}
			if score > best {
				best, match = score, MatchTypePrefix
			}
		}
	}
	if n := CountMatchingTerms(terms, normID); n > 0 {
		score := r.config.SubstringMatchScore * float64(n) / float64(len(terms))
		if score > best {
			best, match = score, MatchTypePartial
		}
	}
	return best, match
}

// Score returns the id/name score of c normalized to [0,1] and its best match tier.
func (r *Ranker) Score(query string, c Candidate) (float64, MatchType) {
	best, match := 0.0, MatchTypeNone
	consider := func(values []string, weight float64) {
		for _, v := range values {
			s, m := r.MatchID(query, v)
			s *= weight
			if s > best || (s == best && m > match) {
				best, match = s, m
			}
		}
	}
	consider(c.IDs, 1)
	consider(c.Names, r.config.NameWeight)
	return best / r.config.ExactIDScore, match
}

// Rerank scores candidates and returns them best first. Keyword scores are
// normalized by the highest one so both components share a scale. Ties keep
// keyword order.
func (r *Ranker) Rerank(query string, candidates []Candidate) []Ranked {
	maxKeyword := 0.0
	for _, c := range candidates {
		if c.KeywordScore > maxKeyword {
			maxKeyword = c.KeywordScore
		}
	}
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		kw := 0.0
		if maxKeyword > 0 {
			kw = c.KeywordScore / maxKeyword
		}
		idScore, match := r.Score(query, c)
		out = append(out, Ranked{
			Candidate: c,
			Score:     r.config.KeywordWeight*kw + r.config.IDWeight*idScore,
			Match:     match,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}
