package chunk

import (
	"context"
	"math"
	"strings"

	"github.com/vdex/vdex/internal/apperr"
)

// ProbeEmbedder is the minimal embedding capability the Semantic chunker
// needs. internal/embed.Registry satisfies this via its resolved providers;
// kept as a narrow local interface so this package never imports the
// provider machinery.
type ProbeEmbedder interface {
	Embed(ctx context.Context, texts []string, model string) ([][]float64, error)
}

// Semantic probes the text with a fixed-size, non-overlapping inner Sliding
// chunker, embeds each probe, and starts a new chunk whenever a probe's
// distance from the running centroid of the current chunk exceeds
// Threshold. The centroid is a running mean over every probe assigned to the
// current chunk so far, not just the immediately preceding probe.
type Semantic struct {
	Size       int
	Threshold  float64
	DistanceFn string // "cosine" | "euclidean"
	Model      string
	Embedder   ProbeEmbedder
}

// NewSemantic validates configuration and returns a Semantic chunker.
func NewSemantic(size int, threshold float64, distanceFn, model string, embedder ProbeEmbedder) (*Semantic, error) {
	if size < 1 {
		return nil, apperr.New(apperr.Chunk, "semantic chunker: size must be >= 1")
	}
	if threshold <= 0 || threshold > 1 {
		return nil, apperr.New(apperr.Chunk, "semantic chunker: threshold must be in (0, 1]")
	}
	if distanceFn != "cosine" && distanceFn != "euclidean" {
		return nil, apperr.New(apperr.Chunk, "semantic chunker: distance_fn must be cosine or euclidean")
	}
	if embedder == nil || model == "" {
		return nil, apperr.New(apperr.Chunk, "semantic chunker: embedder and model are required")
	}
	return &Semantic{Size: size, Threshold: threshold, DistanceFn: distanceFn, Model: model, Embedder: embedder}, nil
}

// Chunk implements Chunker.
func (s *Semantic) Chunk(ctx context.Context, input string) ([]Chunk, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	prober, err := NewSliding(s.Size, 0)
	if err != nil {
		return nil, err
	}
	probes, err := prober.Chunk(ctx, trimmed)
	if err != nil {
		return nil, err
	}
	if len(probes) == 0 {
		return nil, nil
	}

	texts := make([]string, len(probes))
	for i, p := range probes {
		texts[i] = p.Text
	}
	vectors, err := s.Embedder.Embed(ctx, texts, s.Model)
	if err != nil {
		return nil, apperr.Wrap(apperr.Embedding, err, "semantic chunker: embedding probes")
	}
	if len(vectors) != len(probes) {
		return nil, apperr.New(apperr.Embedding, "semantic chunker: expected %d probe vectors, got %d", len(probes), len(vectors))
	}

	var chunks []Chunk
	chunkStart := probes[0].Start
	chunkEnd := probes[0].End
	centroid := append([]float64(nil), vectors[0]...)
	count := 1

	for i := 1; i < len(probes); i++ {
		dist := distance(s.DistanceFn, vectors[i], centroid)
		if dist > s.Threshold {
			chunks = append(chunks, Chunk{Text: trimmed[chunkStart:chunkEnd], Start: chunkStart, End: chunkEnd})
			chunkStart = probes[i].Start
			chunkEnd = probes[i].End
			centroid = append([]float64(nil), vectors[i]...)
			count = 1
			continue
		}
		chunkEnd = probes[i].End
		count++
		for d := range centroid {
			centroid[d] += (vectors[i][d] - centroid[d]) / float64(count)
		}
	}
	chunks = append(chunks, Chunk{Text: trimmed[chunkStart:chunkEnd], Start: chunkStart, End: chunkEnd})

	return chunks, nil
}

func distance(fn string, a, b []float64) float64 {
	if fn == "euclidean" {
		var sum float64
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return math.Sqrt(sum)
	}
	return 1 - cosineSimilarity(a, b)
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
