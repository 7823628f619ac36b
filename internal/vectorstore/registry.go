package vectorstore

import (
	"sync"

	"github.com/vdex/vdex/internal/apperr"
)

// Registry resolves VectorStore providers by string id, populated at
// startup from configuration.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]VectorStore
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]VectorStore)}
}

// Register adds provider under its own ID(), overwriting any existing
// registration with the same id.
func (r *Registry) Register(provider VectorStore) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.ID()] = provider
}

// Get resolves the provider registered under id.
func (r *Registry) Get(id string) (VectorStore, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, apperr.New(apperr.InvalidProvider, "no vector store provider registered for id %q", id)
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
