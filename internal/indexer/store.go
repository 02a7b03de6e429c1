package indexer

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/processor"
)

// Link is one edge of the cross-reference graph: an element of SourceURI
// referring to TargetID.
type Link struct {
	SourceURI string `json:"source_uri"`
	ElementID string `json:"element_id,omitempty"`
	TargetID  string `json:"target_id"`
	Type      string `json:"type"`
}

// linkTargetTypes maps a link type to the metadata type that must declare its target.
var linkTargetTypes = map[string]string{
	processor.LinkProcessID:  processor.TypeBPMN,
	processor.LinkDecisionID: processor.TypeDMN,
	processor.LinkFormID:     processor.TypeForm,
	processor.TypeRPA:        processor.TypeRPA,
}

// Store is the read-only result of an indexing pass. A published Store is
// never modified; later passes publish a new one.
type Store struct {
	passID     string
	generation uint64
	builtAt    time.Time
	stats      Statistics

	entries  map[string]models.Entry
	failures map[string]models.Failure

	ids      map[string][]string
	bySource map[string][]Link
	byTarget map[string][]Link
	links    []Link
}

func emptyStore() *Store {
	return newBuilder(nil).buildWith("", 0, time.Time{}, Statistics{})
}

// PassID identifies the pass that produced the store.
func (s *Store) PassID() string { return s.passID }

// Generation increases with every store the indexer publishes.
func (s *Store) Generation() uint64 { return s.generation }

// BuiltAt is when the store was built.
func (s *Store) BuiltAt() time.Time { return s.builtAt }

// Stats summarizes the pass that produced the store.
func (s *Store) Stats() Statistics { return s.stats }

// Len returns the number of indexed files.
func (s *Store) Len() int { return len(s.entries) }

// URIs returns the indexed file URIs in sorted order.
func (s *Store) URIs() []string {
	out := make([]string, 0, len(s.entries))
	for uri := range s.entries {
		out = append(out, uri)
	}
	sort.Strings(out)
	return out
}

// GetMetadata returns a copy of the metadata indexed for uri.
func (s *Store) GetMetadata(uri string) (*models.Metadata, bool) {
	e, ok := s.entries[uri]
	if !ok {
		return nil, false
	}
	return e.Metadata.Clone(), true
}

// ResolveID returns the sorted URIs of the files declaring id, or an empty slice.
func (s *Store) ResolveID(id string) []string {
	return append([]string{}, s.ids[id]...)
}

// IDs returns every declared id in sorted order.
func (s *Store) IDs() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AllErrors returns the items whose processor failed, sorted by URI.
func (s *Store) AllErrors() []models.Failure {
	out := make([]models.Failure, 0, len(s.failures))
	for _, f := range s.failures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Warnings returns the indexed files whose metadata carries a recoverable error, sorted by URI.
func (s *Store) Warnings() []models.Failure {
	out := []models.Failure{}
	for _, uri := range s.URIs() {
		m := s.entries[uri].Metadata
		if m.Error != "" {
			out = append(out, models.Failure{URI: uri, Type: m.Type, Error: m.Error})
		}
	}
	return out
}

// Links returns every link in the graph.
func (s *Store) Links() []Link {
	return append([]Link{}, s.links...)
}

// LinksFrom returns the links declared by the file at uri.
func (s *Store) LinksFrom(uri string) []Link {
	return append([]Link{}, s.bySource[uri]...)
}

// References returns the links that point at id.
func (s *Store) References(id string) []Link {
	return append([]Link{}, s.byTarget[id]...)
}

// ResolveLink returns the URIs that satisfy l: files declaring l.TargetID and,
// for known link types, produced by the matching processor.
func (s *Store) ResolveLink(l Link) []string {
	want, typed := linkTargetTypes[l.Type]
	out := []string{}
	for _, uri := range s.ids[l.TargetID] {
		if typed && s.entries[uri].Metadata.Type != want {
			continue
		}
		out = append(out, uri)
	}
	return out
}

// UnresolvedLinks returns the links whose target no indexed file declares.
func (s *Store) UnresolvedLinks() []Link {
	out := []Link{}
	for _, l := range s.links {
		if len(s.ResolveLink(l)) == 0 {
			out = append(out, l)
		}
	}
	return out
}

// Snapshot returns the serializable form of the store.
func (s *Store) Snapshot() *models.Snapshot {
	snap := &models.Snapshot{
		PassID:     s.passID,
		Generation: s.generation,
		BuiltAt:    s.builtAt,
		Entries:    make([]models.Entry, 0, len(s.entries)),
		Failures:   s.AllErrors(),
	}
	for _, uri := range s.URIs() {
		e := s.entries[uri]
		e.Metadata = e.Metadata.Clone()
		snap.Entries = append(snap.Entries, e)
	}
	return snap
}

// FromSnapshot rebuilds a store, including its secondary indices, from snap.
func FromSnapshot(snap *models.Snapshot) *Store {
	b := newBuilder(nil)
	if snap == nil {
		return b.buildWith("", 0, time.Time{}, Statistics{})
	}
	for _, e := range snap.Entries {
		if e.Metadata == nil {
			continue
		}
		e.Metadata = e.Metadata.Clone()
		b.entries[e.URI] = e
	}
	for _, f := range snap.Failures {
		b.failures[f.URI] = f
	}
	return b.buildWith(snap.PassID, snap.Generation, snap.BuiltAt, Statistics{})
}

// builder is the single writer that merges settled results into a new Store.
type builder struct {
	entries  map[string]models.Entry
	failures map[string]models.Failure
}

// newBuilder starts from a copy of base, or from nothing when base is nil.
// Metadata pointers are shared with base; published metadata is never mutated.
func newBuilder(base *Store) *builder {
	b := &builder{
		entries:  make(map[string]models.Entry),
		failures: make(map[string]models.Failure),
	}
	if base != nil {
		for k, v := range base.entries {
			b.entries[k] = v
		}
		for k, v := range base.failures {
			b.failures[k] = v
		}
	}
	return b
}

func (b *builder) remove(uri string) {
	delete(b.entries, uri)
	delete(b.failures, uri)
}

// apply merges results in input order; a later result for the same URI wins.
func (b *builder) apply(results []result) Statistics {
	var stats Statistics
	for _, r := range results {
		if r.item == nil {
			stats.Skipped++
			continue
		}
		uri := r.item.URI
		if uri == "" {
			uri = r.item.File.URI
		}
		b.remove(uri)
		switch r.outcome {
		case models.OutcomeSkipped:
			stats.Skipped++
			continue
		case models.OutcomeFailed:
			stats.Failed++
			b.failures[uri] = models.Failure{URI: uri, Type: r.processor, Error: r.err.Error()}
			continue
		case models.OutcomeRecovered:
			stats.Recovered++
		default:
			stats.Indexed++
		}
		if r.cached {
			stats.Cached++
		}
		b.entries[uri] = models.Entry{
			URI:       uri,
			Path:      r.item.File.Path,
			Processor: r.processor,
			Metadata:  r.meta,
		}
	}
	return stats
}

func (b *builder) build(generation uint64, stats Statistics) *Store {
	return b.buildWith(uuid.NewString(), generation, time.Now(), stats)
}

// buildWith freezes the builder into a Store and rebuilds the id index and
// link graph from entries whose metadata has no error.
func (b *builder) buildWith(passID string, generation uint64, builtAt time.Time, stats Statistics) *Store {
	s := &Store{
		passID:     passID,
		generation: generation,
		builtAt:    builtAt,
		stats:      stats,
		entries:    b.entries,
		failures:   b.failures,
		ids:        make(map[string][]string),
		bySource:   make(map[string][]Link),
		byTarget:   make(map[string][]Link),
	}
	uris := s.URIs()
	for _, uri := range uris {
		m := s.entries[uri].Metadata
		if m.Error != "" {
			continue
		}
		for _, id := range m.DeclaredIDs() {
			s.ids[id] = append(s.ids[id], uri)
		}
		for _, l := range m.LinkedIDs {
			link := Link{SourceURI: uri, ElementID: l.ElementID, TargetID: l.ID, Type: l.Type}
			s.links = append(s.links, link)
			s.bySource[uri] = append(s.bySource[uri], link)
			s.byTarget[l.ID] = append(s.byTarget[l.ID], link)
		}
	}
	return s
}
