package docmodel

import (
	"time"

	"github.com/google/uuid"
)

// DefaultCollectionID is the nil UUID. The default collection created at
// startup by VectorService.CreateDefaultCollection does not carry it: the
// repository gives every new collection whose ID is nil, the default one
// included, a freshly generated id.
var DefaultCollectionID = uuid.Nil

// Collection is a named, fixed-dimension vector space backed by one
// vector-store provider and populated by one embedding provider/model pair.
type Collection struct {
	ID                uuid.UUID
	Name              string
	Model             string
	EmbeddingProvider string
	VectorProvider    string
	Size              int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CollectionRef identifies a collection either by id or by (name, provider).
// Exactly one form must be populated.
type CollectionRef struct {
	ID       uuid.UUID
	Name     string
	Provider string
}

// EmbeddingRecord marks that a document's chunks have been embedded into a
// collection. Its existence must be kept in lockstep with the vector store
// actually holding vectors tagged (DocumentID, CollectionID).
type EmbeddingRecord struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	CollectionID uuid.UUID
	CreatedAt    time.Time
}

// BatchStatus is the lifecycle state of one document within a batch embed job.
type BatchStatus int

const (
	BatchQueued BatchStatus = iota
	BatchProcessing
	BatchDone
	BatchFailed
)

func (s BatchStatus) String() string {
	switch s {
	case BatchQueued:
		return "queued"
	case BatchProcessing:
		return "processing"
	case BatchDone:
		return "done"
	case BatchFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// BatchEvent reports the progress of one document within a batch embed job.
type BatchEvent struct {
	DocumentID uuid.UUID
	Status     BatchStatus
	Reason     string
}
