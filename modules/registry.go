// Package modules provides the static in-process module resolver. Hosts
// register module factories under string keys at startup; tenant resource
// files reference those keys by specifier. Resolution maps a specifier to a
// registered key, loading invokes the factory and wraps whatever it returns
// into a module export.
package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-tenants/core"
)

var ErrModuleNotRegistered = errors.New("modules: specifier not registered")

// Factory produces the module export for a registered key. It runs on every
// Load call; factories that want singleton semantics capture their own state.
type Factory func(ctx context.Context) (core.ModuleExport, error)

// Entry is a registered module: its factory plus the optional on-disk root
// used as a trusted prefix for package-sourced tenants.
type Entry struct {
	factory Factory
	root    string
}

// EntryOption mutates a registration before it is stored.
type EntryOption func(*Entry)

// WithRoot attaches the absolute module root to the registration. Package
// adapters mark this root trusted so internal module files resolve.
func WithRoot(root string) EntryOption {
	return func(e *Entry) {
		e.root = strings.TrimSpace(root)
	}
}

// Registry is a concurrency-safe static specifier to factory mapping.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register stores a factory under a key, replacing any previous registration
// for the same key.
func (r *Registry) Register(key string, factory Factory, options ...EntryOption) error {
	if r == nil {
		return errors.New("modules: registry is required")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("modules: key is required")
	}
	if factory == nil {
		return fmt.Errorf("modules: factory is required for key %q", key)
	}

	entry := Entry{factory: factory}
	for _, option := range options {
		if option != nil {
			option(&entry)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[key] = entry
	return nil
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Resolve maps a specifier to the location of a registered module. The
// specifier itself is the lookup key.
func (r *Registry) Resolve(ctx context.Context, specifier string) (core.ModuleLocation, error) {
	if r == nil {
		return core.ModuleLocation{}, errors.New("modules: registry is required")
	}
	specifier = strings.TrimSpace(specifier)
	if specifier == "" {
		return core.ModuleLocation{}, errors.New("modules: specifier is required")
	}

	r.mu.RLock()
	entry, ok := r.entries[specifier]
	r.mu.RUnlock()
	if !ok {
		return core.ModuleLocation{}, fmt.Errorf("modules: %w: %s", ErrModuleNotRegistered, specifier)
	}

	return core.ModuleLocation{
		Specifier: specifier,
		Key:       specifier,
		Root:      entry.root,
	}, nil
}

// Load invokes the factory behind a resolved location.
func (r *Registry) Load(ctx context.Context, location core.ModuleLocation) (core.ModuleExport, error) {
	if r == nil {
		return core.ModuleExport{}, errors.New("modules: registry is required")
	}
	key := strings.TrimSpace(location.Key)
	if key == "" {
		key = strings.TrimSpace(location.Specifier)
	}
	if key == "" {
		return core.ModuleExport{}, errors.New("modules: location key is required")
	}

	r.mu.RLock()
	entry, ok := r.entries[key]
	r.mu.RUnlock()
	if !ok {
		return core.ModuleExport{}, fmt.Errorf("modules: %w: %s", ErrModuleNotRegistered, key)
	}

	export, err := entry.factory(ctx)
	if err != nil {
		return core.ModuleExport{}, fmt.Errorf("modules: load %s: %w", key, err)
	}
	if export.Name == "" {
		export.Name = key
	}
	return export, nil
}

var _ core.ModuleResolver = (*Registry)(nil)
