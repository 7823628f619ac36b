package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFastEmbedClientEmbed(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req fastEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		resp := fastEmbedResponse{Embeddings: make([][]float64, len(req.Content))}
		for i := range req.Content {
			resp.Embeddings[i] = []float64{float64(i), 0.5}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewFastEmbedClient(srv.URL)
	got, err := c.Embed(context.Background(), []string{"a", "b"}, "Xenova/bge-small-en-v1.5")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d vectors, want 2", len(got))
	}
}

func TestFastEmbedClientRejectsUnknownModel(t *testing.T) {
	t.Parallel()

	c := NewFastEmbedClient("http://unused")
	if _, err := c.Embed(context.Background(), []string{"a"}, "not-a-real-model"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

func TestFastEmbedClientPropagatesServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(fastEmbedResponse{Error: "model not loaded"})
	}))
	defer srv.Close()

	c := NewFastEmbedClient(srv.URL)
	_, err := c.Embed(context.Background(), []string{"a"}, "Xenova/bge-small-en-v1.5")
	if err == nil {
		t.Fatal("expected error")
	}
}
