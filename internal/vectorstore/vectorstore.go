// Package vectorstore persists and searches embedding vectors across
// pluggable backends (Qdrant, Weaviate), each satisfying a common
// collection-oriented interface so the service layer never depends on a
// specific backend.
package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// CollectionInfo describes a named vector collection.
type CollectionInfo struct {
	Name     string
	Size     uint64
	Distance string
}

// VectorStore persists and queries embeddings grouped into named
// collections. Implementations must be safe for concurrent use.
type VectorStore interface {
	// ID is the provider's stable registry key (e.g. "qdrant", "weaviate").
	ID() string

	// ListCollections enumerates every collection known to the backend.
	ListCollections(ctx context.Context) ([]CollectionInfo, error)

	// CreateCollection creates a new collection with the given vector size
	// and distance metric (e.g. "cosine", "euclidean"). Fails with
	// apperr.AlreadyExists if name is already in use.
	CreateCollection(ctx context.Context, name string, size uint64, distance string) error

	// GetCollection fetches collection metadata. Fails with
	// apperr.DoesNotExist if name is unknown.
	GetCollection(ctx context.Context, name string) (CollectionInfo, error)

	// DeleteCollection removes a collection and all of its points.
	DeleteCollection(ctx context.Context, name string) error

	// CreateDefaultCollection idempotently ensures the well-known default
	// collection exists with the given vector size.
	CreateDefaultCollection(ctx context.Context, size uint64) error

	// Query returns the content strings of the top-k nearest points to
	// vector within collection.
	Query(ctx context.Context, vector []float64, collection string, limit int) ([]string, error)

	// InsertEmbeddings stores contents[i]/vectors[i] pairs as points tagged
	// with documentID in collection. Requires len(contents) == len(vectors)
	// and every vector length equal to the collection's size.
	InsertEmbeddings(ctx context.Context, documentID uuid.UUID, collection string, contents []string, vectors [][]float64) error

	// DeleteEmbeddings removes every point tagged with documentID from
	// collection.
	DeleteEmbeddings(ctx context.Context, collection string, documentID uuid.UUID) error

	// CountVectors counts the points tagged with documentID in collection.
	CountVectors(ctx context.Context, collection string, documentID uuid.UUID) (int, error)
}
