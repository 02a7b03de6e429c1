// Package project ties file discovery, the indexer and snapshot persistence
// together for one configured project root.
package project

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hyperjump/modelindex/internal/config"
	"github.com/hyperjump/modelindex/internal/fileid"
	"github.com/hyperjump/modelindex/internal/indexer"
	"github.com/hyperjump/modelindex/internal/models"
	"github.com/hyperjump/modelindex/internal/processor"
	"github.com/hyperjump/modelindex/internal/storage"
	"github.com/hyperjump/modelindex/internal/watcher"
	"github.com/hyperjump/modelindex/internal/workspace"
	"go.uber.org/zap"
)

// Project indexes the files under a root directory and keeps the latest
// snapshot persisted.
type Project struct {
	cfg      config.ProjectConfig
	registry *processor.Registry
	indexer  *indexer.Indexer
	storage  storage.Storage // optional; nil disables persistence
	logger   *zap.Logger

	persistMu sync.Mutex // guards persisted
	persisted uint64     // generation of the last store written to storage
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// WithStorage persists a snapshot after every published store.
func WithStorage(s storage.Storage) Option {
	return func(p *Project) { p.storage = s }
}

// New creates a project over cfg.Root. A relative root is resolved against the
// working directory so file identities match those of discovered files.
func New(cfg config.ProjectConfig, reg *processor.Registry, idx *indexer.Indexer, opts ...Option) *Project {
	cfg.Root = absPath(cfg.Root)
	p := &Project{cfg: cfg, registry: reg, indexer: idx, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the project root directory.
func (p *Project) Root() string { return p.cfg.Root }

// Indexer returns the indexer the project publishes through.
func (p *Project) Indexer() *indexer.Indexer { return p.indexer }

// Extensions returns the configured extensions, or every registered one when none are configured.
func (p *Project) Extensions() []string {
	if len(p.cfg.Extensions) > 0 {
		return p.cfg.Extensions
	}
	return p.registry.Extensions()
}

func (p *Project) discoverOptions() workspace.Options {
	return workspace.Options{
		Extensions:  p.Extensions(),
		Ignore:      p.cfg.Ignore,
		Recursive:   p.cfg.RecursiveOrDefault(),
		MaxFileSize: p.cfg.MaxFileSize,
		Logger:      p.logger,
	}
}

// Reindex discovers every project file and runs a full pass over them.
func (p *Project) Reindex(ctx context.Context) (*indexer.Store, error) {
	items, err := workspace.Discover(ctx, p.cfg.Root, p.discoverOptions())
	if err != nil {
		return nil, fmt.Errorf("discover project files: %w", err)
	}
	p.logger.Debug("project discovered files", zap.String("root", p.cfg.Root), zap.Int("files", len(items)))
	store, err := p.indexer.Index(ctx, items)
	if err != nil {
		return nil, err
	}
	return store, p.persist(ctx, store)
}

// Restore publishes the persisted snapshot. It returns storage.ErrNotFound
// when nothing was persisted yet.
func (p *Project) Restore(ctx context.Context) (*indexer.Store, error) {
	if p.storage == nil {
		return nil, storage.ErrNotFound
	}
	snap, err := p.storage.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return p.indexer.Restore(ctx, snap), nil
}

// RestoreOrReindex restores the persisted snapshot and falls back to a full pass.
func (p *Project) RestoreOrReindex(ctx context.Context) (*indexer.Store, error) {
	store, err := p.Restore(ctx)
	if err == nil {
		return store, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		p.logger.Warn("restoring snapshot failed, reindexing", zap.Error(err))
	}
	return p.Reindex(ctx)
}

// ApplyChanges re-processes changed paths and drops removed ones, publishing
// a single store. Changed paths that can no longer be loaded are treated as
// removed. Relative paths are resolved against the working directory.
func (p *Project) ApplyChanges(ctx context.Context, changed, removed []string) (*indexer.Store, error) {
	var items []*models.IndexItem
	uris := make([]string, 0, len(removed))
	for _, path := range removed {
		uris = append(uris, fileid.URI(absPath(path)))
	}
	for _, path := range changed {
		item, err := workspace.LoadFile(path, p.cfg.MaxFileSize)
		if err != nil {
			p.logger.Debug("project dropping unreadable file", zap.String("path", path), zap.Error(err))
			uris = append(uris, fileid.URI(absPath(path)))
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 && len(uris) == 0 {
		return p.indexer.Current(), nil
	}
	store, err := p.indexer.Apply(ctx, items, uris)
	if err != nil {
		return nil, err
	}
	return store, p.persist(ctx, store)
}

// Persisted describes the snapshot held in storage.
type Persisted struct {
	Entries  int64 `json:"entries"`
	Failures int64 `json:"failures"`
}

// Persisted returns the counts of the stored snapshot, or nil when the
// project has no storage.
func (p *Project) Persisted(ctx context.Context) (*Persisted, error) {
	if p.storage == nil {
		return nil, nil
	}
	entries, err := p.storage.CountEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored entries: %w", err)
	}
	failures, err := p.storage.CountFailures(ctx)
	if err != nil {
		return nil, fmt.Errorf("count stored failures: %w", err)
	}
	return &Persisted{Entries: entries, Failures: failures}, nil
}

// Watch starts a watcher that applies file changes until ctx is done.
func (p *Project) Watch(ctx context.Context) (*watcher.Watcher, error) {
	w := watcher.New(
		[]string{p.cfg.Root},
		p.Extensions(),
		p.cfg.RecursiveOrDefault(),
		func(changed, removed []string) {
			if _, err := p.ApplyChanges(ctx, changed, removed); err != nil {
				p.logger.Warn("applying file changes failed", zap.Error(err))
			}
		},
		watcher.WithLogger(p.logger),
		watcher.WithIgnore(p.cfg.Ignore),
	)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("start watcher: %w", err)
	}
	return w, nil
}

// persist writes store unless a newer store was already written. Callers
// publish and persist in separate steps, so writes can arrive out of order.
func (p *Project) persist(ctx context.Context, store *indexer.Store) error {
	if p.storage == nil {
		return nil
	}
	p.persistMu.Lock()
	defer p.persistMu.Unlock()
	if store.Generation() <= p.persisted {
		p.logger.Debug("project skipping stale snapshot",
			zap.Uint64("generation", store.Generation()), zap.Uint64("persisted", p.persisted))
		return nil
	}
	if err := p.storage.SaveSnapshot(ctx, store.Snapshot()); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	p.persisted = store.Generation()
	return nil
}

func absPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
