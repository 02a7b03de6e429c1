package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

var _ Index = (*BleveIndex)(nil)

// NewBleveIndex creates or opens a Bleve index at path.
// If you change the index mapping in code, remove the index directory so it is recreated.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}
	index, err := bleve.New(path, newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// NewMemoryBleveIndex creates an index that lives only in memory.
func NewMemoryBleveIndex() (*BleveIndex, error) {
	index, err := bleve.NewMemOnly(newMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func newMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// Standard analyzer (lowercase + tokenize, no stemming) so ids such as
	// "Order_Process" match exactly rather than by stem.
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	for _, field := range []string{"title", "ids", "names", "links"} {
		docMapping.AddFieldMappingsAt(field, text)
	}
	exact := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("type", exact)
	docMapping.AddFieldMappingsAt("uri", exact)

	im.AddDocumentMapping("document", docMapping)
	im.DefaultType = "document"
	im.DefaultMapping = docMapping
	return im
}

// Index indexes doc under uri, replacing any previous version.
func (b *BleveIndex) Index(_ context.Context, uri string, doc *Document) error {
	return b.index.Index(uri, doc)
}

// Delete removes the document indexed under uri.
func (b *BleveIndex) Delete(_ context.Context, uri string) error {
	return b.index.Delete(uri)
}

// Search runs a match (or fuzzy) query over title, ids, names and links and
// returns up to limit hits, best first.
func (b *BleveIndex) Search(_ context.Context, query string, limit int, opts *SearchOptions) ([]*Result, error) {
	fuzziness := 2
	var q blevequery.Query
	if opts != nil && opts.FuzzyEnabled {
		if opts.Fuzziness > 0 {
			fuzziness = opts.Fuzziness
		}
		q = buildFuzzyQuery(query, fuzziness)
	} else {
		q = bleve.NewMatchQuery(query)
	}
	if opts != nil && opts.Type != "" {
		tq := bleve.NewTermQuery(opts.Type)
		tq.SetField("type")
		q = bleve.NewConjunctionQuery(q, tq)
	}
	req := bleve.NewSearchRequest(q)
	req.Size = limit
	results, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Result, len(results.Hits))
	for i, hit := range results.Hits {
		out[i] = &Result{URI: hit.ID, Score: hit.Score}
	}
	return out, nil
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// tokenizeQuery splits query into lowercase terms, filtering out empty strings.
func tokenizeQuery(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// buildFuzzyQuery creates a disjunction of FuzzyQueries, one per query term.
func buildFuzzyQuery(queryStr string, fuzziness int) blevequery.Query {
	terms := tokenizeQuery(queryStr)
	if len(terms) == 0 {
		return bleve.NewMatchQuery(queryStr)
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}
