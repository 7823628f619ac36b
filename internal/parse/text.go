package parse

import (
	"strings"
	"unicode/utf8"

	"github.com/vdex/vdex/internal/docmodel"
)

// Text decodes plain-text document bytes as UTF-8 with lossy replacement of
// invalid sequences. The ParseConfig is accepted for interface conformance
// but has no effect — plain text has no page or paragraph structure to slice.
type Text struct{}

// Parse implements Parser.
func (Text) Parse(data []byte, _ docmodel.ParseConfig) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}
