// Package search answers keyword queries against the published index: it pulls
// candidates from the keyword index, joins them with indexed metadata and
// re-ranks them by how well they match declared ids.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/ranking"
)

// Engine runs keyword search with id-aware re-ranking.
type Engine struct {
	keywordIndex keyword.Index
	ranker       *ranking.Ranker
	config       *config.SearchConfig
}

// NewEngine creates a search engine. A nil cfg uses the config defaults.
func NewEngine(keywordIndex keyword.Index, cfg *config.SearchConfig) *Engine {
	if cfg == nil {
		var c config.Config
		config.ApplyDefaults(&c)
		cfg = &c.Search
	}
	return &Engine{
		keywordIndex: keywordIndex,
		ranker:       ranking.NewRanker(&cfg.Ranking),
		config:       cfg,
	}
}

// Search runs query against store. Keyword hits for files that are no longer
// in store are dropped. When nothing matches and auto fuzzy is enabled, the
// search is retried with fuzzy matching and the response says so. A search
// that still matches nothing suggests declared ids close to the query.
func (e *Engine) Search(ctx context.Context, store *indexer.Store, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if query.Limit <= 0 {
		query.Limit = e.config.DefaultLimit
	}
	if err := ProcessQuery(query); err != nil {
		return nil, err
	}
	if e.config.MaxLimit > 0 && query.Limit > e.config.MaxLimit {
		query.Limit = e.config.MaxLimit
	}

	results, err := e.search(ctx, store, query)
	if err != nil {
		return nil, err
	}
	response := &models.SearchResponse{Query: query.Query}
	if len(results) == 0 && !query.FuzzyEnabled && e.config.AutoFuzzyOrDefault() {
		fuzzy := *query
		fuzzy.FuzzyEnabled = true
		results, err = e.search(ctx, store, &fuzzy)
		if err != nil {
			return nil, err
		}
		response.AutoFuzzy = len(results) > 0
	}

	if len(results) == 0 {
		response.Suggestions = suggestIDs(query.Query, store.IDs())
	}

	response.Total = len(results)
	if len(results) > query.Limit {
		results = results[:query.Limit]
	}
	response.Results = results
	response.QueryTime = time.Since(startTime).Milliseconds()
	return response, nil
}

func (e *Engine) search(ctx context.Context, store *indexer.Store, query *models.SearchQuery) ([]*models.SearchResult, error) {
	topK := max(e.config.TopKCandidates, query.Limit)
	hits, err := e.keywordIndex.Search(ctx, query.Query, topK, &keyword.SearchOptions{
		Type:         query.Type,
		FuzzyEnabled: query.FuzzyEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	candidates := make([]ranking.Candidate, 0, len(hits))
	types := make(map[string]string, len(hits))
	for _, hit := range hits {
		meta, ok := store.GetMetadata(hit.URI)
		if !ok {
			continue
		}
		types[hit.URI] = meta.Type
		candidates = append(candidates, ranking.Candidate{
			URI:          hit.URI,
			IDs:          meta.DeclaredIDs(),
			Names:        scriptNames(meta),
			KeywordScore: hit.Score,
		})
	}

	ranked := e.ranker.Rerank(query.Query, candidates)
	out := make([]*models.SearchResult, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, &models.SearchResult{
			URI:          r.URI,
			Type:         types[r.URI],
			IDs:          r.IDs,
			Score:        r.Score,
			KeywordScore: r.KeywordScore,
			Match:        r.Match.String(),
			Rank:         i + 1,
		})
	}
	return out, nil
}

func scriptNames(meta *models.Metadata) []string {
	var names []string
	for _, s := range meta.Scripts {
		if s.Name != "" && s.Name != s.ID {
			names = append(names, s.Name)
		}
	}
	return names
}

func suggestIDs(query string, ids []string) []string {
	suggestions := keyword.Suggest(query, ids, keyword.WithMaxDistance(2), keyword.WithMaxSuggestions(5))
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]string, len(suggestions))
	for i, s := range suggestions {
		out[i] = s.Term
	}
	return out
}
