package server

import (
	"github.com/vdex/vdex/internal/docmodel"
)

func toDocumentView(d docmodel.Document) documentView {
	return documentView{
		ID:     d.ID.String(),
		Name:   d.Name,
		Ext:    d.Ext,
		Hash:   d.Hash,
		Src:    d.Src,
		Labels: d.Labels,
	}
}

func toCollectionView(c docmodel.Collection) collectionView {
	return collectionView{
		ID:                c.ID.String(),
		Name:              c.Name,
		Model:             c.Model,
		EmbeddingProvider: c.EmbeddingProvider,
		VectorProvider:    c.VectorProvider,
		Size:              c.Size,
	}
}

func toParseConfig(v parseConfigView) docmodel.ParseConfig {
	return docmodel.ParseConfig{Start: v.Start, End: v.End, Range: v.Range, Filters: v.Filters}
}

func toChunkConfig(v chunkConfigView) docmodel.ChunkConfig {
	cfg := docmodel.ChunkConfig{
		Size:              v.Size,
		Overlap:           v.Overlap,
		SkipForward:       v.SkipForward,
		SkipBack:          v.SkipBack,
		Threshold:         v.Threshold,
		DistanceFn:        v.DistanceFn,
		EmbeddingProvider: v.EmbeddingProvider,
		EmbeddingModel:    v.EmbeddingModel,
	}
	if len(v.Delimiter) > 0 {
		cfg.Delimiter = []rune(v.Delimiter)[0]
	}
	switch v.Kind {
	case "snapping":
		cfg.Kind = docmodel.ChunkSnapping
	case "semantic":
		cfg.Kind = docmodel.ChunkSemantic
	default:
		cfg.Kind = docmodel.ChunkSliding
	}
	return cfg
}
