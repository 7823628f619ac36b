package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vdex/vdex/internal/apperr"
)

// fastEmbedModels is the catalog of models the fastembed sidecar is assumed
// to serve. Dimensions match the upstream fastembed-rs defaults for these
// model names.
var fastEmbedModels = []Model{
	{Name: "Xenova/bge-base-en-v1.5", Dim: 768},
	{Name: "Xenova/bge-small-en-v1.5", Dim: 384},
	{Name: "Xenova/all-MiniLM-L6-v2", Dim: 384},
}

// FastEmbedClient relays embedding requests to a fastembed HTTP sidecar. It
// is safe for concurrent use.
type FastEmbedClient struct {
	endpoint string
	client   *http.Client
}

// NewFastEmbedClient constructs a FastEmbedClient targeting endpoint (e.g.
// "http://localhost:6969").
func NewFastEmbedClient(endpoint string) *FastEmbedClient {
	return &FastEmbedClient{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

// ID implements Embedder.
func (c *FastEmbedClient) ID() string { return "fastembed" }

// DefaultModel implements Embedder.
func (c *FastEmbedClient) DefaultModel() Model { return fastEmbedModels[0] }

// ListModels implements Embedder.
func (c *FastEmbedClient) ListModels() []Model { return append([]Model(nil), fastEmbedModels...) }

type fastEmbedRequest struct {
	Model   string   `json:"model"`
	Content []string `json:"content"`
}

type fastEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed implements Embedder.
func (c *FastEmbedClient) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	if _, ok := dimOf(fastEmbedModels, model); !ok {
		return nil, unknownModelErr(c.ID(), model)
	}

	payload, err := json.Marshal(fastEmbedRequest{Model: model, Content: texts})
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "marshal fastembed request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "create fastembed request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "fastembed request failed")
	}
	defer resp.Body.Close()

	var result fastEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "decode fastembed response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != "" {
			msg = result.Error
		}
		return nil, apperr.New(apperr.Embedding, "fastembed: %s", msg)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, apperr.New(apperr.Embedding, "fastembed: expected %d embeddings, got %d", len(texts), len(result.Embeddings))
	}
	return result.Embeddings, nil
}
