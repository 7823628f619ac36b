package docmodel

import (
	"time"

	"github.com/google/uuid"

	"github.com/vdex/vdex/internal/apperr"
)

// ParseConfig controls how a Parser slices and filters a document's text.
//
// When Range is false, Start and End are interpreted as "skip this many
// units from the head / tail". When Range is true, Start and End are a
// 1-based inclusive page or paragraph range.
type ParseConfig struct {
	Start   uint32
	End     uint32
	Range   bool
	Filters []string
}

// Validate enforces the invariants from the original parser's ParseConfig.
func (c ParseConfig) Validate() error {
	if c.Range {
		if c.Start == 0 {
			return apperr.New(apperr.ParseConfig, "range start must be >= 1")
		}
		if c.End <= c.Start {
			return apperr.New(apperr.ParseConfig, "range end (%d) must be greater than start (%d)", c.End, c.Start)
		}
	}
	return nil
}

// ChunkKind identifies which chunking algorithm a ChunkConfig configures.
type ChunkKind int

const (
	// ChunkSliding is the fixed-size, byte-offset sliding window chunker.
	ChunkSliding ChunkKind = iota
	// ChunkSnapping is the sentence-aware chunker with abbreviation skip lists.
	ChunkSnapping
	// ChunkSemantic is the embedding-distance probe chunker.
	ChunkSemantic
)

func (k ChunkKind) String() string {
	switch k {
	case ChunkSliding:
		return "sliding"
	case ChunkSnapping:
		return "snapping"
	case ChunkSemantic:
		return "semantic"
	default:
		return "unknown"
	}
}

// ChunkConfig is a sum type over the three chunking strategies. Exactly the
// fields relevant to Kind are meaningful; the rest are zero.
type ChunkConfig struct {
	Kind ChunkKind

	// Size is used by all three kinds (the probe size for Semantic);
	// Overlap by Sliding and Snapping.
	Size    int
	Overlap int

	// Snapping-only.
	SkipForward []string
	SkipBack    []string
	Delimiter   rune

	// Semantic-only.
	Threshold        float64
	DistanceFn       string // "cosine" | "euclidean"
	EmbeddingProvider string
	EmbeddingModel    string
}

// Validate enforces the per-kind constraints documented in component design §4.2.
func (c ChunkConfig) Validate() error {
	switch c.Kind {
	case ChunkSliding:
		if c.Size < 1 {
			return apperr.New(apperr.Chunk, "sliding chunker: size must be >= 1")
		}
		if c.Overlap > c.Size {
			return apperr.New(apperr.Chunk, "sliding chunker: overlap (%d) must be <= size (%d)", c.Overlap, c.Size)
		}
	case ChunkSnapping:
		if c.Size < 1 {
			return apperr.New(apperr.Chunk, "snapping chunker: size must be >= 1")
		}
		if c.Overlap > c.Size {
			return apperr.New(apperr.Chunk, "snapping chunker: overlap (%d) must be <= size (%d)", c.Overlap, c.Size)
		}
		if c.Delimiter == 0 {
			return apperr.New(apperr.Chunk, "snapping chunker: delimiter must be set")
		}
	case ChunkSemantic:
		if c.Size < 1 {
			return apperr.New(apperr.Chunk, "semantic chunker: size must be >= 1")
		}
		if c.Threshold <= 0 || c.Threshold > 1 {
			return apperr.New(apperr.Chunk, "semantic chunker: threshold must be in (0, 1]")
		}
		if c.DistanceFn != "cosine" && c.DistanceFn != "euclidean" {
			return apperr.New(apperr.Chunk, "semantic chunker: distance_fn must be cosine or euclidean")
		}
		if c.EmbeddingProvider == "" || c.EmbeddingModel == "" {
			return apperr.New(apperr.Chunk, "semantic chunker: embed_provider and embed_model are required")
		}
	default:
		return apperr.New(apperr.Chunk, "unknown chunk kind")
	}
	return nil
}

// DefaultSliding is the chunker used when a document has no persisted chunk config.
func DefaultSliding() ChunkConfig {
	return ChunkConfig{Kind: ChunkSliding, Size: 1000, Overlap: 200}
}

// DocumentParseConfig is the persisted, one-to-one ParseConfig for a document.
type DocumentParseConfig struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Config     ParseConfig
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DocumentChunkConfig is the persisted, one-to-one ChunkConfig for a document.
type DocumentChunkConfig struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	Config     ChunkConfig
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
