package parse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// Pdf extracts text from PDF documents page by page.
//
// Page selection mirrors the reference parser: when cfg.Range is false,
// Start and End count pages to skip from the head and tail respectively.
// When cfg.Range is true, Start and End are a 1-based inclusive page range
// (Start-1..End-1 in 0-based terms), per DESIGN.md's Open Question decision.
// Each surviving line is trimmed, dropped if it is exactly the page number,
// and dropped if any filter regex matches; surviving lines are joined with
// "\n", and pages are joined with "\n".
type Pdf struct{}

// Parse implements Parser.
func (Pdf) Parse(data []byte, cfg docmodel.ParseConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	filters, err := compileFilters(cfg.Filters)
	if err != nil {
		return "", err
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.ParsePdf, err, "opening PDF")
	}

	totalPages := r.NumPage()
	firstIdx, lastIdx := selectRange(totalPages, cfg.Start, cfg.End, cfg.Range)

	var pages []string
	for idx := firstIdx; idx <= lastIdx; idx++ {
		pageNum := idx + 1 // library pages are 1-based
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", apperr.Wrap(apperr.ParsePdf, err, "extracting text from page %d", pageNum)
		}

		pageNumStr := strconv.Itoa(pageNum)
		var lines []string
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			if filterLine(line, pageNumStr, filters) {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			pages = append(pages, strings.Join(lines, "\n"))
		}
	}

	out := strings.TrimSpace(strings.Join(pages, "\n"))
	if out == "" {
		return "", apperr.New(apperr.ParseConfig,
			"PDF parse produced no text: total_pages=%d start=%d end=%d range=%v",
			totalPages, cfg.Start, cfg.End, cfg.Range)
	}
	return out, nil
}
