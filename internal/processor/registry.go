package processor

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("extension already claimed")
	// ErrInvalidExtension is returned for extensions that are empty or lack the leading dot.
	ErrInvalidExtension = errors.New("invalid extension")
)

// ConflictError reports an extension claimed by two different processors.
type ConflictError struct {
	Extension string
	Existing  string
	Incoming  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("extension %q already claimed by processor %q, cannot register %q", e.Extension, e.Existing, e.Incoming)
}

// Is makes errors.Is(err, ErrConflict) true for conflicts.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Registry maps file extensions to processors, one processor per extension.
// Extensions match case-sensitively and include the leading dot.
type Registry struct {
	mu    sync.RWMutex
	byExt map[string]Processor
}

// RegisterOption configures a single Register call.
type RegisterOption func(*registerOptions)

type registerOptions struct {
	overwrite bool
}

// WithOverwrite lets a registration replace processors that already claim its extensions.
func WithOverwrite() RegisterOption {
	return func(o *registerOptions) { o.overwrite = true }
}

// NewRegistry returns a registry holding processors. It fails on the first
// conflicting or invalid registration.
func NewRegistry(processors ...Processor) (*Registry, error) {
	r := &Registry{byExt: make(map[string]Processor)}
	for _, p := range processors {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register stores p under each of its extensions. Registering the same
// processor id again is a no-op; a different id claiming a taken extension
// fails with a *ConflictError unless WithOverwrite is given. On error the
// registry is left unchanged.
func (r *Registry) Register(p Processor, opts ...RegisterOption) error {
	if p == nil {
		return errors.New("processor is nil")
	}
	var o registerOptions
	for _, opt := range opts {
		opt(&o)
	}
	exts := p.Extensions()
	if len(exts) == 0 {
		return fmt.Errorf("processor %q declares no extensions: %w", p.ID(), ErrInvalidExtension)
	}
	for _, ext := range exts {
		if len(ext) < 2 || !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("processor %q extension %q: %w", p.ID(), ext, ErrInvalidExtension)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !o.overwrite {
		for _, ext := range exts {
			if existing, ok := r.byExt[ext]; ok && existing.ID() != p.ID() {
				return &ConflictError{Extension: ext, Existing: existing.ID(), Incoming: p.ID()}
			}
		}
	}
	for _, ext := range exts {
		r.byExt[ext] = p
	}
	return nil
}

// Resolve returns the processor for ext. The boolean is false when none is
// registered, which callers treat as "skip this file", not as an error.
func (r *Registry) Resolve(ext string) (Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byExt[ext]
	return p, ok
}

// Extensions returns the claimed extensions in sorted order.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
