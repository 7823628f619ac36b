package embed

import (
	"sync"

	"github.com/vdex/vdex/internal/apperr"
)

// Registry resolves Embedder providers by string id, populated at startup
// from configuration rather than a compile-time dispatch table.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Embedder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Embedder)}
}

// Register adds provider under its own ID(), overwriting any existing
// registration with the same id.
func (r *Registry) Register(provider Embedder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get resolves the provider registered under id.
func (r *Registry) Get(id string) (Embedder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, apperr.New(apperr.InvalidProvider, "no embedding provider registered for id %q", id)
	}
	return p, nil
}

// IDs lists the registered provider ids.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}
