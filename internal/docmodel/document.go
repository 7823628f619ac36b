// Package docmodel holds the entity and value types shared by the
// repository, services, and HTTP layers: documents, their parse/chunk
// configs, collections, and embedding records.
package docmodel

import (
	"time"

	"github.com/google/uuid"
)

// Document is a stored source file and its metadata.
type Document struct {
	ID        uuid.UUID
	Name      string
	Path      string
	Ext       string
	Hash      string
	Src       string
	Labels    []string
	Tags      map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SupportedExtensions lists the file extensions a registered Parser exists for.
var SupportedExtensions = map[string]bool{
	"txt":  true,
	"md":   true,
	"json": true,
	"xml":  true,
	"csv":  true,
	"pdf":  true,
	"docx": true,
}

// Page is an in-memory page cursor for paginated listings.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPage returns a Page with sane defaults when limit/offset are unset.
func DefaultPage(limit, offset int) Page {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}
