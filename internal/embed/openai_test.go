package embed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOpenAIClientEmbedSortsByIndex(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		resp := openAIEmbedResponse{Data: []struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}{
			{Embedding: []float64{2}, Index: 1},
			{Embedding: []float64{1}, Index: 0},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewOpenAIClient(srv.URL, "test-key")
	got, err := c.Embed(context.Background(), []string{"a", "b"}, "text-embedding-3-small")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if got[0][0] != 1 || got[1][0] != 2 {
		t.Fatalf("embeddings not reordered by index: %v", got)
	}
}

func TestOpenAIClientDefaultsBaseURL(t *testing.T) {
	t.Parallel()

	c := NewOpenAIClient("", "k")
	if c.baseURL != "https://api.openai.com/v1" {
		t.Fatalf("got baseURL %q", c.baseURL)
	}
}

func TestOpenAIClientRejectsUnknownModel(t *testing.T) {
	t.Parallel()

	c := NewOpenAIClient("http://unused", "k")
	if _, err := c.Embed(context.Background(), []string{"a"}, "gpt-nonexistent"); err == nil {
		t.Fatal("expected error for unknown model")
	}
}
