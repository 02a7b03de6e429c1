// Package watcher watches project directories with fsnotify and reports
// debounced batches of changed and removed model files.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hyperjump/modelindex/internal/workspace"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// ChangeFunc receives one batch of absolute paths. A path appears in at most
// one of the two lists: the last event seen for it wins.
type ChangeFunc func(changed, removed []string)

type pendingOp int

const (
	opChange pendingOp = iota
	opRemove
)

// Watcher watches root directories and invokes a callback with batched file changes.
type Watcher struct {
	roots      []string
	extensions []string
	ignore     []string
	recursive  bool
	onChange   ChangeFunc
	debounce   time.Duration
	logger     *zap.Logger // optional; when set, logs debug events

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	pending  map[string]pendingOp
	timer    *time.Timer
	done     chan struct{}
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output (directory changes, file events, etc.).
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce sets how long the watcher waits for quiet before flushing a batch.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips files and directories whose base name matches one of patterns.
func WithIgnore(patterns []string) Option {
	return func(w *Watcher) { w.ignore = patterns }
}

// New creates a watcher over roots. Only files whose extension is in
// extensions (exact match, empty = all) are reported.
func New(roots []string, extensions []string, recursive bool, onChange ChangeFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		recursive:  recursive,
		onChange:   onChange,
		debounce:   defaultDebounce,
		pending:    make(map[string]pendingOp),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = fw
	if w.logger != nil {
		w.logger.Debug("watcher starting", zap.Strings("roots", w.roots), zap.Strings("extensions", w.extensions), zap.Bool("recursive", w.recursive))
	}
	for _, root := range w.roots {
		if err := w.addRootLocked(root); err != nil {
			_ = fw.Close()
			w.watcher = nil
			return err
		}
	}
	w.started = true
	go w.run(ctx, fw.Events, fw.Errors)
	return nil
}

func (w *Watcher) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-errs:
			if !ok {
				return
			}
			if err != nil && w.logger != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !w.underRoot(path) || workspace.Ignored(filepath.Base(path), w.ignore) {
		return
	}
	if w.logger != nil {
		w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		// A rename reports the old name; the new name arrives as a Create.
		if workspace.MatchExtension(path, w.extensions) {
			w.enqueue(path, opRemove)
		}
	case ev.Has(fsnotify.Create), ev.Has(fsnotify.Write):
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			w.handleNewDirectory(path)
			return
		}
		if workspace.MatchExtension(path, w.extensions) {
			w.enqueue(path, opChange)
		}
	}
}

// handleNewDirectory watches a directory that was created or moved in and
// reports the files already inside it.
func (w *Watcher) handleNewDirectory(dir string) {
	if !w.recursive || workspace.IsHidden(filepath.Base(dir)) {
		return
	}
	w.mu.Lock()
	fw := w.watcher
	w.mu.Unlock()
	if fw == nil {
		return
	}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != dir && (workspace.IsHidden(name) || workspace.Ignored(name, w.ignore)) {
				return filepath.SkipDir
			}
			if err := fw.Add(path); err != nil && w.logger != nil {
				w.logger.Debug("watcher failed to add directory", zap.String("path", path), zap.Error(err))
			}
			return nil
		}
		if workspace.MatchExtension(path, w.extensions) && !workspace.Ignored(name, w.ignore) {
			w.enqueue(path, opChange)
		}
		return nil
	})
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if inDir(filepath.Clean(root), path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// enqueue records the latest operation for path and restarts the debounce timer.
func (w *Watcher) enqueue(path string, op pendingOp) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]pendingOp)
	w.timer = nil
	w.mu.Unlock()
	if len(pending) == 0 || w.onChange == nil {
		return
	}
	var changed, removed []string
	for path, op := range pending {
		if op == opRemove {
			removed = append(removed, path)
		} else {
			changed = append(changed, path)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	if w.logger != nil {
		w.logger.Debug("watcher flushing batch", zap.Int("changed", len(changed)), zap.Int("removed", len(removed)))
	}
	w.onChange(changed, removed)
}

func (w *Watcher) addRootLocked(root string) error {
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !w.recursive {
		return w.watcher.Add(root)
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (workspace.IsHidden(d.Name()) || workspace.Ignored(d.Name(), w.ignore)) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// Directories returns a copy of the watched root directories.
func (w *Watcher) Directories() []string {
	return append([]string(nil), w.roots...)
}

// Stop stops the watcher, drops any unflushed batch and releases resources.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]pendingOp)
	_ = w.watcher.Close()
	w.watcher = nil
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
