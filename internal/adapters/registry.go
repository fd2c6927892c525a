// Package adapters maintains the registry of bulk-capable domain adapters.
// The set of integrations is closed and known at startup; the registry is
// populated once in main and read-only afterwards.
package adapters

import (
	"fmt"
	"sort"
	"sync"

	"github.com/temmy762/jarvis/internal/domain"
)

// Registry resolves a domain tag to its adapter.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]domain.Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[string]domain.Adapter{}}
}

// Register installs an adapter under its own name. Registering the same tag
// twice is a wiring bug and fails.
func (r *Registry) Register(adapter domain.Adapter) error {
	if adapter == nil {
		return fmt.Errorf("adapter is required")
	}
	name := adapter.Name()
	if name == "" {
		return fmt.Errorf("adapter name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter %q already registered", name)
	}
	r.adapters[name] = adapter
	return nil
}

// MustRegister panics on registration failure; used during startup wiring.
func (r *Registry) MustRegister(adapter domain.Adapter) {
	if err := r.Register(adapter); err != nil {
		panic(err)
	}
}

// Resolve returns the adapter for a domain tag, or ErrUnknownDomain.
func (r *Registry) Resolve(name string) (domain.Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownDomain, name, r.namesLocked())
	}
	return adapter, nil
}

// Names returns the sorted list of registered domain tags.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
