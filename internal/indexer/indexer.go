// Package indexer runs project files through their processors and publishes
// the resulting cross-reference index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hyperjump/modelindex/internal/keyword"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/processor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSuperseded is returned by a full pass that a newer full pass cancelled.
// The superseded pass publishes nothing.
var ErrSuperseded = errors.New("indexing pass superseded by a newer pass")

// Indexer turns IndexItems into a published Store.
//
// Passes are serialized: at most one pass processes and publishes at a time.
// Starting a full pass cancels any full pass still in flight, so the most
// recently started full pass wins.
type Indexer struct {
	registry *processor.Registry
	workers  int
	cache    *resultCache
	keyword  keyword.Index
	logger   *zap.Logger // optional; when set, logs debug events

	cacheSize int

	passMu sync.Mutex // serializes passes and publishing

	mu         sync.Mutex // guards generation and inFlight
	generation uint64
	inFlight   *pass

	current atomic.Pointer[Store]
}

type pass struct {
	cancel context.CancelFunc
}

// Statistics summarizes one pass.
type Statistics struct {
	Indexed   int           `json:"indexed"`
	Recovered int           `json:"recovered"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Cached    int           `json:"cached"`
	Duration  time.Duration `json:"duration"`
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets a logger for pass summaries, per-item failures and debug events.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) { idx.logger = l }
}

// WithWorkers bounds how many items are processed concurrently. n <= 0 means runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(idx *Indexer) { idx.workers = n }
}

// WithCacheSize memoizes up to n processed files keyed by processor, URI and
// content hash. n <= 0 disables the cache.
func WithCacheSize(n int) Option {
	return func(idx *Indexer) { idx.cacheSize = n }
}

// WithKeywordIndex keeps k in sync with every published store.
func WithKeywordIndex(k keyword.Index) Option {
	return func(idx *Indexer) { idx.keyword = k }
}

// New creates an indexer dispatching through reg.
func New(reg *processor.Registry, opts ...Option) (*Indexer, error) {
	if reg == nil {
		return nil, errors.New("registry is required")
	}
	idx := &Indexer{registry: reg}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.workers <= 0 {
		idx.workers = runtime.NumCPU()
	}
	if idx.cacheSize > 0 {
		c, err := newResultCache(idx.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create result cache: %w", err)
		}
		idx.cache = c
	}
	idx.current.Store(emptyStore())
	return idx, nil
}

// Current returns the most recently published store. It is never nil.
func (idx *Indexer) Current() *Store {
	return idx.current.Load()
}

// Index runs a full pass over items and publishes a store built only from them.
// Per-item failures never fail the pass; they are listed by Store.AllErrors.
// The returned error is ctx.Err() when the caller cancelled, or ErrSuperseded
// when a newer Index call cancelled this one.
func (idx *Indexer) Index(ctx context.Context, items []*models.IndexItem) (*Store, error) {
	start := time.Now()
	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := idx.beginPass(cancel)
	defer idx.endPass(p)

	idx.passMu.Lock()
	defer idx.passMu.Unlock()

	results := idx.process(passCtx, items)
	if passCtx.Err() != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if idx.logger != nil {
			idx.logger.Debug("indexer pass superseded", zap.Int("items", len(items)))
		}
		return nil, ErrSuperseded
	}

	idx.logFailures(results)
	b := newBuilder(nil)
	stats := b.apply(results)
	stats.Duration = time.Since(start)
	store := b.build(idx.nextGeneration(), stats)
	idx.publish(ctx, store)
	return store, nil
}

// Update processes changed items and merges them into the current store.
// Items without a processor drop any entry previously indexed under their URI.
func (idx *Indexer) Update(ctx context.Context, items []*models.IndexItem) (*Store, error) {
	return idx.Apply(ctx, items, nil)
}

// Remove drops the given URIs from the current store.
func (idx *Indexer) Remove(ctx context.Context, uris []string) (*Store, error) {
	return idx.Apply(ctx, nil, uris)
}

// Apply drops the removed URIs and merges the processed items into the
// current store, publishing a single store for both. An item whose URI is
// also listed as removed is indexed.
func (idx *Indexer) Apply(ctx context.Context, items []*models.IndexItem, removed []string) (*Store, error) {
	start := time.Now()
	idx.passMu.Lock()
	defer idx.passMu.Unlock()

	results := idx.process(ctx, items)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx.logFailures(results)
	b := newBuilder(idx.current.Load())
	for _, uri := range removed {
		b.remove(uri)
	}
	stats := b.apply(results)
	stats.Duration = time.Since(start)
	store := b.build(idx.nextGeneration(), stats)
	idx.publish(ctx, store)
	return store, nil
}

// Restore publishes the store recorded in snap, e.g. one loaded from storage at startup.
func (idx *Indexer) Restore(ctx context.Context, snap *models.Snapshot) *Store {
	idx.passMu.Lock()
	defer idx.passMu.Unlock()
	store := FromSnapshot(snap)
	store.generation = idx.nextGeneration()
	idx.publish(ctx, store)
	return store
}

func (idx *Indexer) beginPass(cancel context.CancelFunc) *pass {
	p := &pass{cancel: cancel}
	idx.mu.Lock()
	if idx.inFlight != nil {
		idx.inFlight.cancel()
	}
	idx.inFlight = p
	idx.mu.Unlock()
	return p
}

func (idx *Indexer) endPass(p *pass) {
	idx.mu.Lock()
	if idx.inFlight == p {
		idx.inFlight = nil
	}
	idx.mu.Unlock()
}

func (idx *Indexer) nextGeneration() uint64 {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.generation++
	return idx.generation
}

// result is the settled state of one item. Each worker writes only its own slot.
type result struct {
	item      *models.IndexItem
	processor string
	outcome   models.Outcome
	meta      *models.Metadata
	err       error
	cached    bool
}

func (idx *Indexer) process(ctx context.Context, items []*models.IndexItem) []result {
	results := make([]result, len(items))
	g := new(errgroup.Group)
	g.SetLimit(idx.workers)
	for i, item := range items {
		if item == nil || item.File == nil {
			results[i] = result{outcome: models.OutcomeSkipped}
			continue
		}
		p, ok := idx.registry.Resolve(item.File.Ext)
		if !ok {
			results[i] = result{item: item, outcome: models.OutcomeSkipped}
			continue
		}
		g.Go(func() error {
			results[i] = idx.processItem(ctx, p, item)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (idx *Indexer) processItem(ctx context.Context, p processor.Processor, item *models.IndexItem) (res result) {
	res = result{item: item, processor: p.ID()}
	if ctx.Err() != nil {
		res.outcome = models.OutcomeSkipped
		return res
	}
	if item.URI == "" {
		item.URI = item.File.URI
	}
	item.Processor = p.ID()

	var key string
	if idx.cache != nil {
		key = cacheKey(p.ID(), item)
		if c, ok := idx.cache.get(key); ok {
			item.Metadata = c.meta.Clone()
			item.LocalValue = c.localValue
			res.meta = c.meta
			res.outcome = outcomeOf(c.meta)
			res.cached = true
			return res
		}
	}

	defer func() {
		if r := recover(); r != nil {
			res.meta = nil
			res.err = fmt.Errorf("processor %s panicked: %v", p.ID(), r)
			res.outcome = models.OutcomeFailed
		}
	}()
	meta, err := p.Process(ctx, item)
	if err == nil && meta == nil {
		err = fmt.Errorf("processor %s returned no metadata", p.ID())
	}
	if err != nil {
		res.err = err
		res.outcome = models.OutcomeFailed
		return res
	}
	if meta.Type == "" {
		meta.Type = p.ID()
	}
	// The item belongs to the caller; the store keeps its own copy.
	item.Metadata = meta.Clone()
	res.meta = meta
	res.outcome = outcomeOf(meta)
	if idx.cache != nil {
		idx.cache.add(key, meta, item.LocalValue)
	}
	return res
}

func (idx *Indexer) logFailures(results []result) {
	if idx.logger == nil {
		return
	}
	for _, r := range results {
		switch r.outcome {
		case models.OutcomeFailed:
			idx.logger.Warn("indexer item failed",
				zap.String("uri", r.item.URI), zap.String("processor", r.processor), zap.Error(r.err))
		case models.OutcomeRecovered:
			idx.logger.Debug("indexer item recovered from parse error",
				zap.String("uri", r.item.URI), zap.String("processor", r.processor), zap.String("error", r.meta.Error))
		}
	}
}

func outcomeOf(meta *models.Metadata) models.Outcome {
	if meta.Error != "" {
		return models.OutcomeRecovered
	}
	return models.OutcomeIndexed
}

func (idx *Indexer) publish(ctx context.Context, next *Store) {
	prev := idx.current.Swap(next)
	if idx.logger != nil {
		idx.logger.Info("indexer published store",
			zap.String("pass_id", next.PassID()),
			zap.Uint64("generation", next.Generation()),
			zap.Int("files", next.Len()),
			zap.Int("indexed", next.stats.Indexed),
			zap.Int("recovered", next.stats.Recovered),
			zap.Int("failed", next.stats.Failed),
			zap.Int("skipped", next.stats.Skipped),
			zap.Int("cached", next.stats.Cached),
			zap.Duration("duration", next.stats.Duration),
		)
	}
	if idx.keyword != nil {
		if err := syncKeyword(ctx, idx.keyword, prev, next); err != nil && idx.logger != nil {
			idx.logger.Warn("keyword index sync failed", zap.Error(err))
		}
	}
}
