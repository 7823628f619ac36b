package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vdex/vdex/internal/batch"
	"github.com/vdex/vdex/internal/blob"
	"github.com/vdex/vdex/internal/config"
	"github.com/vdex/vdex/internal/embed"
	"github.com/vdex/vdex/internal/logging"
	"github.com/vdex/vdex/internal/repository/postgres"
	"github.com/vdex/vdex/internal/server"
	"github.com/vdex/vdex/internal/service"
	"github.com/vdex/vdex/internal/vectorstore"
)

// NewServeCmd constructs the `vdex serve` command, which wires the
// relational repository, blob store, embedding and vector-store provider
// registries, batch executor, and HTTP server, then blocks until shutdown.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the vdex HTTP API server",
		Long: `Start the vdex HTTP API server.

The server exposes a REST API for document upload, parsing/chunking
preview, collection management, embedding, and search, plus a single
SSE endpoint for batch-embed progress.

Examples:
  vdex serve
  vdex serve --port 9090
  DATABASE_URL=postgres://... vdex serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg := config.FromEnv()
			if host != "" {
				cfg.Server.Host = host
			}
			if port != 0 {
				cfg.Server.Port = port
			}

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			reg := prometheus.NewRegistry()

			pool, err := postgres.Connect(ctx, cfg.Database)
			if err != nil {
				return fmt.Errorf("serve: failed to connect to database: %w", err)
			}
			defer pool.Close()

			if err := postgres.Migrate(ctx, pool, cfg.Database.MigrationsPath); err != nil {
				return fmt.Errorf("serve: failed to apply migrations: %w", err)
			}

			repo := postgres.New(pool)

			store, err := blob.New(ctx, cfg.Blob)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise blob store: %w", err)
			}

			embedders, err := buildEmbedderRegistry(cfg.Embedding)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise embedding providers: %w", err)
			}

			stores, err := buildVectorStoreRegistry(cfg.VectorStore)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise vector store providers: %w", err)
			}

			documents := service.NewDocumentService(repo, store, embedders)
			vectors := service.NewVectorService(repo, embedders, stores, documents)

			if cfg.DefaultCollection.Name != "" {
				_, err := vectors.CreateDefaultCollection(ctx, service.CreateCollectionRequest{
					Name:              cfg.DefaultCollection.Name,
					EmbeddingProvider: cfg.DefaultCollection.EmbeddingProvider,
					Model:             cfg.DefaultCollection.Model,
					VectorProvider:    cfg.DefaultCollection.VectorProvider,
				})
				if err != nil {
					log.Warn("serve: failed to create default collection", "error", err, "name", cfg.DefaultCollection.Name)
				}
			}

			executor := batch.New(vectors, documentRemover{documents: documents, stores: stores}, cfg.Batch.QueueCapacity, cfg.Batch.Concurrency, reg)

			srv, err := server.New(documents, vectors, embedders, stores, executor, &server.Config{
				Host:              cfg.Server.Host,
				Port:              cfg.Server.Port,
				Logger:            log,
				Pingers:           buildPingers(pool, stores),
				RateLimit:         cfg.Server.RateLimit,
				RateBurst:         cfg.Server.RateBurst,
				APIKey:            cfg.Server.APIKey,
				EmbedderIDs:       embedders.IDs(),
				VectorStoreIDs:    stores.IDs(),
				DefaultCollection: cfg.DefaultCollection.Name,
				Registerer:        reg,
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Host address to bind to (overrides config/env)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "TCP port to listen on (overrides config/env)")

	return cmd
}

// documentRemover adapts *service.DocumentService to batch.Remover. Delete
// also needs a vector-store resolver to clean up embeddings, which the
// executor's narrow Remover interface does not carry.
type documentRemover struct {
	documents *service.DocumentService
	stores    *vectorstore.Registry
}

func (d documentRemover) Remove(ctx context.Context, id uuid.UUID) error {
	return d.documents.Delete(ctx, id, d.stores)
}

// buildEmbedderRegistry registers every embedding provider enabled in cfg.
func buildEmbedderRegistry(cfg config.EmbeddingConfig) (*embed.Registry, error) {
	reg := embed.NewRegistry()

	if cfg.FastEmbed.Enabled {
		reg.Register(embed.NewFastEmbedClient(cfg.FastEmbed.Endpoint))
	}
	if cfg.OpenAI.Enabled {
		reg.Register(embed.NewOpenAIClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey))
	}

	return reg, nil
}

// buildVectorStoreRegistry registers every vector-store provider enabled in cfg.
func buildVectorStoreRegistry(cfg config.VectorStoreConfig) (*vectorstore.Registry, error) {
	reg := vectorstore.NewRegistry()

	if cfg.Qdrant.Enabled {
		qdrant, err := vectorstore.NewQdrant(vectorstore.QdrantConfig{
			Host:   cfg.Qdrant.Host,
			Port:   cfg.Qdrant.Port,
			APIKey: cfg.Qdrant.APIKey,
			UseTLS: cfg.Qdrant.TLS,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", cfg.Qdrant.Host, cfg.Qdrant.Port, err)
		}
		reg.Register(qdrant)
	}

	if cfg.Weaviate.Enabled {
		weaviate, err := vectorstore.NewWeaviate(vectorstore.WeaviateConfig{
			Host:   cfg.Weaviate.Host,
			Scheme: cfg.Weaviate.Scheme,
			APIKey: cfg.Weaviate.APIKey,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to weaviate at %s: %w", cfg.Weaviate.Host, err)
		}
		reg.Register(weaviate)
	}

	return reg, nil
}

// buildPingers constructs the readiness probes for GET /_health: the
// database pool is always probed, plus one probe per registered vector
// store provider.
func buildPingers(pool *pgxpool.Pool, stores *vectorstore.Registry) []server.Pinger {
	pingers := []server.Pinger{server.NewDatabasePinger(pool)}
	for _, id := range stores.IDs() {
		store, err := stores.Get(id)
		if err != nil {
			continue
		}
		pingers = append(pingers, server.NewVectorStorePinger(store))
	}
	return pingers
}
