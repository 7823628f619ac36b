// Package chunk splits normalized document text into overlapping windows
// ("chunks") ready for embedding. Three strategies are provided: Sliding
// (fixed-size byte windows), Snapping (sentence-aware), and Semantic
// (embedding-distance probe boundaries).
package chunk

import "context"

// Chunk is one produced window: the text itself plus the byte-offset range
// in the (trimmed) input it was sliced from. Go has no borrow checker, so
// unlike a reference implementation that returns borrowed string slices,
// Chunk owns a copy of Text; Start/End let callers reconstruct the input
// exactly and let tests verify the UTF-8-boundary and reconstruction
// invariants.
type Chunk struct {
	Text  string
	Start int
	End   int
}

// Chunker splits text into an ordered list of Chunks.
type Chunker interface {
	// Chunk splits input and returns the ordered list of chunks it produces.
	// Semantic implementations call the embedder and therefore take a context.
	Chunk(ctx context.Context, input string) ([]Chunk, error)
}
