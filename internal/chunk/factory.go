package chunk

import (
	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// New dispatches a persisted or ad-hoc docmodel.ChunkConfig to the concrete
// Chunker it configures. embedder is only consulted for ChunkSemantic.
func New(cfg docmodel.ChunkConfig, embedder ProbeEmbedder) (Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Kind {
	case docmodel.ChunkSliding:
		return NewSliding(cfg.Size, cfg.Overlap)
	case docmodel.ChunkSnapping:
		return NewSnapping(cfg.Size, cfg.Overlap, cfg.Delimiter, cfg.SkipForward, cfg.SkipBack)
	case docmodel.ChunkSemantic:
		return NewSemantic(cfg.Size, cfg.Threshold, cfg.DistanceFn, cfg.EmbeddingModel, embedder)
	default:
		return nil, apperr.New(apperr.Chunk, "unknown chunk kind %v", cfg.Kind)
	}
}
