package chunk

import (
	"context"
	"strings"
	"unicode"

	"github.com/vdex/vdex/internal/apperr"
)

// Snapping produces sentence-aware chunks: sentences are accumulated until
// their combined length reaches Size, then emitted as one chunk with up to
// Overlap characters of whole neighboring sentences attached on each side so
// adjacent chunks share full sentence context instead of an arbitrary
// mid-word split.
//
// A delimiter occurrence is not treated as a sentence boundary when the text
// immediately preceding it ends with any string in SkipBack (e.g. "Dr") or
// the text immediately following it (after leading whitespace) begins with
// any string in SkipForward (e.g. "g." in "e.g."), which lets common
// abbreviations survive sentence segmentation.
type Snapping struct {
	Size        int
	Overlap     int
	Delimiter   rune
	SkipForward []string
	SkipBack    []string
}

// NewSnapping validates configuration and returns a Snapping chunker.
func NewSnapping(size, overlap int, delimiter rune, skipForward, skipBack []string) (*Snapping, error) {
	if size < 1 {
		return nil, apperr.New(apperr.Chunk, "snapping chunker: size must be >= 1")
	}
	if overlap > size {
		return nil, apperr.New(apperr.Chunk, "snapping chunker: overlap (%d) must be <= size (%d)", overlap, size)
	}
	if delimiter == 0 {
		delimiter = '.'
	}
	return &Snapping{
		Size: size, Overlap: overlap, Delimiter: delimiter,
		SkipForward: skipForward, SkipBack: skipBack,
	}, nil
}

type sentence struct {
	start, end int // byte offsets into the trimmed input
}

// Chunk implements Chunker.
func (s *Snapping) Chunk(_ context.Context, input string) ([]Chunk, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, nil
	}

	sentences := s.splitSentences(trimmed)
	if len(sentences) == 0 {
		return []Chunk{{Text: trimmed, Start: 0, End: len(trimmed)}}, nil
	}

	var chunks []Chunk
	i := 0
	for i < len(sentences) {
		j := i
		for j < len(sentences) && sentences[j].end-sentences[i].start < s.Size && j < len(sentences)-1 {
			j++
		}
		// Ensure at least one sentence is always included and the greedy scan
		// above also accounts for the final sentence's own length.
		for j+1 < len(sentences) && sentences[j].end-sentences[i].start < s.Size {
			j++
		}

		start := s.extendBack(sentences, i)
		end := s.extendForward(sentences, j)

		chunks = append(chunks, Chunk{
			Text:  trimmed[sentences[start].start:sentences[end].end],
			Start: sentences[start].start,
			End:   sentences[end].end,
		})

		i = j + 1
	}

	return chunks, nil
}

// extendBack walks backward from sentence i while doing so adds no more than
// Overlap characters of whole preceding sentences.
func (s *Snapping) extendBack(sentences []sentence, i int) int {
	if s.Overlap == 0 {
		return i
	}
	boundary := sentences[i].start
	k := i
	for k > 0 {
		candidateLen := boundary - sentences[k-1].start
		if candidateLen > s.Overlap {
			break
		}
		k--
	}
	return k
}

// extendForward walks forward from sentence j while doing so adds no more
// than Overlap characters of whole following sentences.
func (s *Snapping) extendForward(sentences []sentence, j int) int {
	if s.Overlap == 0 {
		return j
	}
	boundary := sentences[j].end
	k := j
	for k < len(sentences)-1 {
		candidateLen := sentences[k+1].end - boundary
		if candidateLen > s.Overlap {
			break
		}
		k++
	}
	return k
}

// splitSentences segments text at Delimiter occurrences, skipping
// occurrences that look like abbreviations per SkipForward/SkipBack.
func (s *Snapping) splitSentences(text string) []sentence {
	var sentences []sentence
	start := 0
	runes := []rune(text)
	byteOffsets := make([]int, len(runes)+1)
	off := 0
	for idx, r := range runes {
		byteOffsets[idx] = off
		off += utf8RuneLen(r)
	}
	byteOffsets[len(runes)] = off

	for idx, r := range runes {
		if r != s.Delimiter {
			continue
		}
		pos := byteOffsets[idx]
		if s.isAbbreviation(text, pos) {
			continue
		}
		end := pos + utf8RuneLen(r)
		sentences = append(sentences, sentence{start: start, end: end})
		// Skip trailing whitespace before the next sentence starts.
		next := end
		for next < len(text) && unicode.IsSpace(rune(text[next])) {
			next++
		}
		start = next
	}
	if start < len(text) {
		sentences = append(sentences, sentence{start: start, end: len(text)})
	}
	return sentences
}

// isAbbreviation reports whether the delimiter at byte offset pos should be
// skipped because it looks like part of an abbreviation.
func (s *Snapping) isAbbreviation(text string, pos int) bool {
	before := text[:pos]
	for _, skip := range s.SkipBack {
		if skip != "" && strings.HasSuffix(before, skip) {
			return true
		}
	}

	after := text[pos+1:]
	after = strings.TrimLeft(after, " \t")
	for _, skip := range s.SkipForward {
		if skip != "" && strings.HasPrefix(after, skip) {
			return true
		}
	}
	return false
}

func utf8RuneLen(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	case r < 0x10000:
		return 3
	default:
		return 4
	}
}
