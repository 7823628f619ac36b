package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vdex/vdex/internal/batch"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/service"
	"github.com/vdex/vdex/internal/vectorstore"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8090).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /_health.
	// If empty, /_health returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// EmbedderIDs and VectorStoreIDs are surfaced on GET /info.
	EmbedderIDs    []string
	VectorStoreIDs []string
	// DefaultCollection is the well-known collection name surfaced on GET /info.
	DefaultCollection string
	// Registerer receives the server's Prometheus metrics. If nil, a private
	// registry is created so tests never pollute the global default.
	Registerer prometheus.Registerer
}

// Server is the HTTP server exposing the document/collection/embedding API.
type Server struct {
	documents *service.DocumentService
	vectors   *service.VectorService
	embedders *embed.Registry
	stores    *vectorstore.Registry
	executor  *batch.Executor

	cfg        *Config
	httpServer *http.Server
	log        *slog.Logger
	pingers    []Pinger
	stopRL     func()
	metrics    *serverMetrics
	reg        prometheus.Registerer
}

// infoResponse is the JSON body for GET /info.
type infoResponse struct {
	EmbeddingProviders []string `json:"embedding_providers"`
	VectorProviders    []string `json:"vector_providers"`
	DefaultCollection  string   `json:"default_collection,omitempty"`
}

// uploadResponse is the JSON body for POST /documents.
type uploadResponse struct {
	Documents []documentView      `json:"documents"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

// documentView is the JSON representation of docmodel.Document.
type documentView struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Ext    string   `json:"ext"`
	Hash   string   `json:"hash"`
	Src    string   `json:"src"`
	Labels []string `json:"labels,omitempty"`
}

// chunkConfigView is the wire form of docmodel.ChunkConfig.
type chunkConfigView struct {
	Kind              string   `json:"kind"`
	Size              int      `json:"size"`
	Overlap           int      `json:"overlap"`
	SkipForward       []string `json:"skip_forward,omitempty"`
	SkipBack          []string `json:"skip_back,omitempty"`
	Delimiter         string   `json:"delimiter,omitempty"`
	Threshold         float64  `json:"threshold,omitempty"`
	DistanceFn        string   `json:"distance_fn,omitempty"`
	EmbeddingProvider string   `json:"embedding_provider,omitempty"`
	EmbeddingModel    string   `json:"embedding_model,omitempty"`
}

// chunkPreviewRequest is the JSON body for POST /documents/{id}/chunk/preview.
type chunkPreviewRequest struct {
	Chunker chunkConfigView `json:"chunker"`
}

// parseConfigView is the wire form of docmodel.ParseConfig.
type parseConfigView struct {
	Start   uint32   `json:"start"`
	End     uint32   `json:"end"`
	Range   bool     `json:"range"`
	Filters []string `json:"filters,omitempty"`
}

// configUpdateRequest is the JSON body for PUT /documents/{id}/config.
type configUpdateRequest struct {
	Parser  *parseConfigView `json:"parser,omitempty"`
	Chunker *chunkConfigView `json:"chunker,omitempty"`
}

// collectionView is the JSON representation of docmodel.Collection.
type collectionView struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Model             string `json:"model"`
	EmbeddingProvider string `json:"embedding_provider"`
	VectorProvider    string `json:"vector_provider"`
	Size              int    `json:"size"`
}

// createCollectionRequest is the JSON body for POST /collections.
type createCollectionRequest struct {
	Name              string `json:"name"`
	EmbeddingProvider string `json:"embedding_provider"`
	Model             string `json:"model"`
	VectorProvider    string `json:"vector_provider"`
	Distance          string `json:"distance,omitempty"`
}

// embedSingleRequest is the JSON body for POST /embeddings.
type embedSingleRequest struct {
	DocumentID   string `json:"document_id"`
	CollectionID string `json:"collection_id"`
}

// embeddingView is the JSON representation of docmodel.EmbeddingRecord.
type embeddingView struct {
	ID           string `json:"id"`
	DocumentID   string `json:"document_id"`
	CollectionID string `json:"collection_id"`
}

// embedBatchRequest is the JSON body for POST /embeddings/batch.
type embedBatchRequest struct {
	CollectionID string   `json:"collection_id"`
	Add          []string `json:"add,omitempty"`
	Remove       []string `json:"remove,omitempty"`
}

// batchEventView is one SSE frame's JSON payload for /embeddings/batch.
type batchEventView struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
}

// searchRequest is the JSON body for POST /search.
type searchRequest struct {
	CollectionID string `json:"collection_id,omitempty"`
	Name         string `json:"name,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Query        string `json:"query"`
	Limit        int    `json:"limit,omitempty"`
}

// modelView is one entry of GET /embeddings/models.
type modelView struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}
