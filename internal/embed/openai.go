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

// openAIModels is the catalog of embedding models OpenAI serves that vdex
// supports selecting by name.
var openAIModels = []Model{
	{Name: "text-embedding-3-small", Dim: 1536},
	{Name: "text-embedding-3-large", Dim: 3072},
}

// OpenAIClient embeds text via the OpenAI embeddings REST API. It is safe
// for concurrent use.
type OpenAIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewOpenAIClient constructs an OpenAIClient. baseURL defaults to the public
// OpenAI API when empty.
func NewOpenAIClient(baseURL, apiKey string) *OpenAIClient {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// ID implements Embedder.
func (c *OpenAIClient) ID() string { return "openai" }

// DefaultModel implements Embedder.
func (c *OpenAIClient) DefaultModel() Model { return openAIModels[0] }

// ListModels implements Embedder.
func (c *OpenAIClient) ListModels() []Model { return append([]Model(nil), openAIModels...) }

type openAIEmbedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed implements Embedder.
func (c *OpenAIClient) Embed(ctx context.Context, texts []string, model string) ([][]float64, error) {
	if _, ok := dimOf(openAIModels, model); !ok {
		return nil, unknownModelErr(c.ID(), model)
	}

	payload, err := json.Marshal(openAIEmbedRequest{Input: texts, Model: model})
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "marshal openai request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "create openai request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "openai request failed")
	}
	defer resp.Body.Close()

	var result openAIEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "decode openai response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return nil, apperr.New(apperr.Embedding, "openai: %s", msg)
	}
	if len(result.Data) != len(texts) {
		return nil, apperr.New(apperr.Embedding, "openai: expected %d embeddings, got %d", len(texts), len(result.Data))
	}

	embeddings := make([][]float64, len(texts))
	for _, d := range result.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, apperr.New(apperr.Embedding, "openai: index %d out of range [0, %d)", d.Index, len(texts))
		}
		embeddings[d.Index] = d.Embedding
	}
	return embeddings, nil
}
