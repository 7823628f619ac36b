package chunk

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/vdex/vdex/internal/apperr"
)

// Sliding produces fixed-size, overlapping windows. Window boundaries are
// snapped outward to the nearest valid UTF-8 rune boundary so that no chunk
// ever splits a multi-byte character.
//
// Grounded on the reference sliding-window chunker: a "base" window of Size
// advances by Size each step, and each produced chunk extends Overlap bytes
// past the base window on both sides.
type Sliding struct {
	Size    int
	Overlap int
}

// NewSliding validates size/overlap and returns a Sliding chunker.
func NewSliding(size, overlap int) (*Sliding, error) {
	if size < 1 {
		return nil, apperr.New(apperr.Chunk, "sliding chunker: size must be >= 1")
	}
	if overlap > size {
		return nil, apperr.New(apperr.Chunk, "sliding chunker: overlap (%d) must be <= size (%d)", overlap, size)
	}
	return &Sliding{Size: size, Overlap: overlap}, nil
}

// Chunk implements Chunker.
func (s *Sliding) Chunk(_ context.Context, input string) ([]Chunk, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	n := len(trimmed)
	if n <= s.Size+s.Overlap {
		return []Chunk{{Text: trimmed, Start: 0, End: n}}, nil
	}

	var chunks []Chunk
	baseStart, baseEnd := 0, s.Size

	for {
		chunkStart := baseStart - s.Overlap
		if chunkStart < 0 {
			chunkStart = 0
		}
		chunkEnd := baseEnd + s.Overlap

		chunkStart = snapBack(trimmed, chunkStart)

		if chunkEnd > n {
			chunkEnd = snapBack(trimmed, n)
			chunks = append(chunks, Chunk{Text: trimmed[chunkStart:chunkEnd], Start: chunkStart, End: chunkEnd})
			break
		}
		chunkEnd = snapForward(trimmed, chunkEnd)

		chunks = append(chunks, Chunk{Text: trimmed[chunkStart:chunkEnd], Start: chunkStart, End: chunkEnd})

		baseStart += s.Size
		baseEnd += s.Size
	}

	return chunks, nil
}

// snapBack moves i backward until it lies on a UTF-8 rune boundary.
func snapBack(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// snapForward moves i forward until it lies on a UTF-8 rune boundary.
func snapForward(s string, i int) int {
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return i
}
