// Package embed converts text into dense vector embeddings. Each provider
// implementation talks to a different backend over plain HTTP — no vendor
// SDK is required for either supported provider.
package embed

import (
	"context"

	"github.com/vdex/vdex/internal/apperr"
)

// Model describes one embedding model a provider can serve.
type Model struct {
	Name string
	Dim  int
}

// Embedder converts batches of text into vectors for a fixed set of models.
type Embedder interface {
	// ID is the provider's stable registry key (e.g. "fastembed", "openai").
	ID() string

	// DefaultModel is the model used when a caller does not name one.
	DefaultModel() Model

	// ListModels enumerates the models this provider can serve.
	ListModels() []Model

	// Embed converts texts into vectors using model. The returned slice is
	// parallel to texts; every inner vector has length dim(model). Fails
	// with apperr.InvalidEmbeddingModel if model is not in ListModels().
	Embed(ctx context.Context, texts []string, model string) ([][]float64, error)
}

// dimOf looks up model's dimension among models, returning ok=false if the
// provider does not serve it.
func dimOf(models []Model, model string) (int, bool) {
	for _, m := range models {
		if m.Name == model {
			return m.Dim, true
		}
	}
	return 0, false
}

func unknownModelErr(providerID, model string) error {
	return apperr.New(apperr.InvalidEmbeddingModel, "provider %q does not serve model %q", providerID, model)
}
