package parse

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// Docx extracts text from DOCX documents paragraph by paragraph. Start/End/
// Range apply at paragraph granularity, mirroring Pdf's page granularity.
type Docx struct{}

// Parse implements Parser.
func (Docx) Parse(data []byte, cfg docmodel.ParseConfig) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	filters, err := compileFilters(cfg.Filters)
	if err != nil {
		return "", err
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", apperr.Wrap(apperr.DocxRead, err, "opening DOCX")
	}

	paragraphs := extractParagraphs(doc)
	total := len(paragraphs)
	firstIdx, lastIdx := selectRange(total, cfg.Start, cfg.End, cfg.Range)

	var kept []string
	for idx := firstIdx; idx <= lastIdx && idx < total; idx++ {
		line := strings.TrimSpace(paragraphs[idx])
		if line == "" {
			continue
		}
		if filterLine(line, strconv.Itoa(idx+1), filters) {
			continue
		}
		kept = append(kept, line)
	}

	out := strings.TrimSpace(strings.Join(kept, "\n"))
	if out == "" {
		return "", apperr.New(apperr.ParseConfig,
			"DOCX parse produced no text: total_paragraphs=%d start=%d end=%d range=%v",
			total, cfg.Start, cfg.End, cfg.Range)
	}
	return out, nil
}

// extractParagraphs flattens a document's body into one string per paragraph,
// concatenating the runs of each paragraph in order.
func extractParagraphs(doc *docx.Docx) []string {
	paragraphs := make([]string, 0, len(doc.Document.Body.Items))
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var b strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					b.WriteString(t.Text)
				}
			}
		}
		paragraphs = append(paragraphs, b.String())
	}
	return paragraphs
}
