package parse

// selectRange resolves a ParseConfig's Start/End/Range fields against total
// items (pages or paragraphs) into a 0-based, inclusive [first, last] index
// range. Callers clamp their own loop bound against total separately since
// an empty selection yields first > last.
func selectRange(total int, start, end uint32, isRange bool) (first, last int) {
	if isRange {
		first = int(start) - 1
		last = int(end) - 1
	} else {
		first = int(start)
		last = total - int(end) - 1
	}
	if first < 0 {
		first = 0
	}
	if last >= total {
		last = total - 1
	}
	return first, last
}
