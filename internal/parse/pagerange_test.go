package parse

import "testing"

func TestSelectRangeNonRangeSkipsHeadAndTail(t *testing.T) {
	t.Parallel()

	// 10 pages, skip 2 from the head and 3 from the tail: keep indices 2..6.
	first, last := selectRange(10, 2, 3, false)
	if first != 2 || last != 6 {
		t.Fatalf("got first=%d last=%d, want 2,6", first, last)
	}
}

func TestSelectRangeInclusive1Based(t *testing.T) {
	t.Parallel()

	// 1-based inclusive range [3,5] -> 0-based inclusive [2,4].
	first, last := selectRange(10, 3, 5, true)
	if first != 2 || last != 4 {
		t.Fatalf("got first=%d last=%d, want 2,4", first, last)
	}
}

func TestSelectRangeClampsToTotal(t *testing.T) {
	t.Parallel()

	first, last := selectRange(5, 0, 100, true)
	if first != 0 || last != 4 {
		t.Fatalf("got first=%d last=%d, want 0,4", first, last)
	}
}

func TestSelectRangeNegativeStartClampsToZero(t *testing.T) {
	t.Parallel()

	first, _ := selectRange(5, 0, 0, true)
	if first != 0 {
		t.Fatalf("got first=%d, want 0", first)
	}
}
