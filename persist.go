package cacheable

import (
	"context"
	"sync"
)

// Persister saves and restores the contents of a cache. state is the handle
// the Persister was registered with, typically the adapter itself.
type Persister interface {
	Dump(ctx context.Context, state any, path string, opts Options) error
	Load(ctx context.Context, state any, path string, opts Options) error
}

// Entry is what a Registry resolves a cache name to.
type Entry struct {
	Persister Persister
	State     any
}

// Registry maps cache names to live handles. Resolve fails with
// *NotFoundError for unknown names.
type Registry interface {
	Resolve(name string) (Entry, error)
}

// MapRegistry is a Registry safe for concurrent use.
type MapRegistry struct {
	mu sync.RWMutex
	m  map[string]Entry
}

var _ Registry = (*MapRegistry)(nil)

func NewRegistry() *MapRegistry {
	return &MapRegistry{m: make(map[string]Entry)}
}

// Register binds name to e, replacing any previous binding.
func (r *MapRegistry) Register(name string, e Entry) error {
	if name == "" {
		return &ConfigurationError{Field: "name", Reason: "cache name is required"}
	}
	if e.Persister == nil {
		return &ConfigurationError{Field: "persister", Reason: "persister is required for " + name}
	}
	r.mu.Lock()
	r.m[name] = e
	r.mu.Unlock()
	return nil
}

func (r *MapRegistry) Unregister(name string) {
	r.mu.Lock()
	delete(r.m, name)
	r.mu.Unlock()
}

func (r *MapRegistry) Resolve(name string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.m[name]
	r.mu.RUnlock()
	if !ok {
		return Entry{}, &NotFoundError{Name: name}
	}
	return e, nil
}

// Dump resolves name and forwards to its Persister. Nothing is written when
// the name is unknown.
func Dump(ctx context.Context, reg Registry, name, path string, opts Options) error {
	e, err := resolveEntry(reg, name)
	if err != nil {
		return err
	}
	return e.Persister.Dump(ctx, e.State, path, opts)
}

// Load resolves name and forwards to its Persister.
func Load(ctx context.Context, reg Registry, name, path string, opts Options) error {
	e, err := resolveEntry(reg, name)
	if err != nil {
		return err
	}
	return e.Persister.Load(ctx, e.State, path, opts)
}

func resolveEntry(reg Registry, name string) (Entry, error) {
	if reg == nil {
		return Entry{}, &ConfigurationError{Field: "registry", Reason: "registry is required"}
	}
	e, err := reg.Resolve(name)
	if err != nil {
		return Entry{}, err
	}
	if e.Persister == nil {
		return Entry{}, &NotFoundError{Name: name}
	}
	return e, nil
}
