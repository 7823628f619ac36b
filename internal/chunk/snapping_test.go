package chunk

import (
	"context"
	"testing"
)

func TestSnappingRespectsAbbreviations(t *testing.T) {
	t.Parallel()

	s, err := NewSnapping(10, 0, '.', []string{"g"}, []string{"Dr", "e", "e.g"})
	if err != nil {
		t.Fatalf("NewSnapping: %v", err)
	}

	input := "Dr. Smith met e.g. a patient. The visit went well."
	got, err := s.Chunk(context.Background(), input)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("expected at least one chunk")
	}
	// "Dr." and "e.g." must not have split the text into separate sentences
	// at those delimiters — the first sentence must extend at least through
	// "a patient."
	if len(got[0].Text) < len("Dr. Smith met e.g. a patient.") {
		t.Errorf("first chunk %q ended before expected abbreviation-aware boundary", got[0].Text)
	}
}

func TestSnappingDeterministic(t *testing.T) {
	t.Parallel()

	s, err := NewSnapping(20, 10, '.', nil, nil)
	if err != nil {
		t.Fatalf("NewSnapping: %v", err)
	}

	input := "First sentence here. Second sentence follows. Third one ends it."
	a, err := s.Chunk(context.Background(), input)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	b, err := s.Chunk(context.Background(), input)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(a) != len(b) {
		t.Fatalf("non-deterministic chunk count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs across runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSnappingEmptyInput(t *testing.T) {
	t.Parallel()

	s, err := NewSnapping(20, 10, '.', nil, nil)
	if err != nil {
		t.Fatalf("NewSnapping: %v", err)
	}
	got, err := s.Chunk(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d chunks, want 0", len(got))
	}
}
