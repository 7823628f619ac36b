// Package parse turns raw document bytes into normalized text. Each
// supported extension has its own Parser implementing page/line filtering
// per a docmodel.ParseConfig.
package parse

import (
	"strings"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/docmodel"
)

// Parser extracts normalized text from raw document bytes.
type Parser interface {
	// Parse extracts text from data according to cfg.
	Parse(data []byte, cfg docmodel.ParseConfig) (string, error)
}

// New resolves the Parser registered for ext (without the leading dot).
func New(ext string) (Parser, error) {
	switch strings.ToLower(ext) {
	case "txt", "md", "json", "xml", "csv":
		return Text{}, nil
	case "pdf":
		return Pdf{}, nil
	case "docx":
		return Docx{}, nil
	default:
		return nil, apperr.New(apperr.UnsupportedFileType, "no parser registered for extension %q", ext)
	}
}

// filterLine reports whether line should be dropped: equal to the page
// number, or matched by any compiled filter.
func filterLine(line string, pageNumber string, filters []*compiledFilter) bool {
	if line == pageNumber {
		return true
	}
	for _, f := range filters {
		if f.re.MatchString(line) {
			return true
		}
	}
	return false
}
