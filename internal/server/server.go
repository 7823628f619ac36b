// Package server implements the HTTP API that exposes document ingestion,
// parsing/chunking preview, collection management, embedding, and search
// over REST and a single SSE endpoint for batch-embed progress.
// The server is started by the `vdex serve` CLI command.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vdex/vdex/internal/batch"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/logging"
	"github.com/vdex/vdex/internal/service"
	"github.com/vdex/vdex/internal/vectorstore"
)

// New constructs a Server from its collaborators and config.
// If cfg.Logger is nil, [logging.New] is used.
func New(
	documents *service.DocumentService,
	vectors *service.VectorService,
	embedders *embed.Registry,
	stores *vectorstore.Registry,
	executor *batch.Executor,
	cfg *Config,
) (*Server, error) {
	if documents == nil || vectors == nil || embedders == nil || stores == nil || executor == nil {
		return nil, fmt.Errorf("server: documents, vectors, embedders, stores, and executor must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must be long enough for the batch-embed SSE stream.
		cfg.WriteTimeout = 30 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.NewRegistry()
	}

	s := &Server{
		documents: documents,
		vectors:   vectors,
		embedders: embedders,
		stores:    stores,
		executor:  executor,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		metrics:   newServerMetrics(cfg.Registerer),
		reg:       cfg.Registerer,
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	mux := http.NewServeMux()
	s.route(mux, "GET /_health", "health", s.handleHealth)
	s.route(mux, "GET /info", "info", s.handleInfo)

	s.route(mux, "GET /documents", "documents.list", s.handleListDocuments)
	s.route(mux, "POST /documents", "documents.upload", s.handleUploadDocuments)
	s.route(mux, "GET /documents/{id}", "documents.get", s.handleGetDocument)
	s.route(mux, "DELETE /documents/{id}", "documents.delete", s.handleDeleteDocument)
	s.route(mux, "POST /documents/{id}/chunk/preview", "documents.chunk_preview", s.handleChunkPreview)
	s.route(mux, "POST /documents/{id}/parse/preview", "documents.parse_preview", s.handleParsePreview)
	s.route(mux, "PUT /documents/{id}/config", "documents.update_config", s.handleUpdateDocumentConfig)
	s.route(mux, "POST /documents/sync/{src}", "documents.sync", s.handleSyncDocuments)

	s.route(mux, "GET /collections", "collections.list", s.handleListCollections)
	s.route(mux, "POST /collections", "collections.create", s.handleCreateCollection)
	s.route(mux, "GET /collections/{id}", "collections.get", s.handleGetCollection)
	s.route(mux, "DELETE /collections/{id}", "collections.delete", s.handleDeleteCollection)

	s.route(mux, "POST /embeddings", "embeddings.single", s.handleEmbedSingle)
	s.route(mux, "POST /embeddings/batch", "embeddings.batch", s.handleEmbedBatch)
	s.route(mux, "GET /embeddings/models", "embeddings.models", s.handleListModels)

	s.route(mux, "POST /search", "search", s.handleSearch)

	var handler http.Handler = mux
	handler = rl.middleware(handler)
	handler = authMiddleware(cfg.APIKey, handler)
	handler = requestLogger(s.log, handler)

	if cfg.APIKey == "" {
		s.log.Warn("server: VDEX_API_KEY is unset, authentication is disabled")
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if s.stopRL != nil {
			s.stopRL()
		}
		s.executor.Shutdown()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// route registers handler under pattern, wrapping it so every request is
// counted and timed under the given logical handler label rather than the
// raw, id-bearing URL path.
func (s *Server) route(mux *http.ServeMux, pattern, label string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		handler(rw, r)
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, label).Observe(time.Since(start).Seconds())
		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, label, fmt.Sprintf("%d", rw.status)).Inc()
	})
}

// handleInfo handles GET /info, reporting the providers and default
// collection configured for this deployment.
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		EmbeddingProviders: s.cfg.EmbedderIDs,
		VectorProviders:    s.cfg.VectorStoreIDs,
		DefaultCollection:  s.cfg.DefaultCollection,
	})
}
