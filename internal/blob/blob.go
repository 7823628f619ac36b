// Package blob stores and retrieves raw document bytes by path, independent
// of the relational metadata describing those documents.
package blob

import "context"

// Store persists and retrieves raw document bytes by path. Implementations
// must be safe for concurrent use.
type Store interface {
	// ID is the provider's stable registry key (e.g. "local", "s3").
	ID() string

	// Put stores data at path, creating any parent structure needed, and
	// returns the path the content was actually stored under.
	Put(ctx context.Context, path string, data []byte) (string, error)

	// Get retrieves the bytes stored at path.
	Get(ctx context.Context, path string) ([]byte, error)

	// Delete removes the content stored at path.
	Delete(ctx context.Context, path string) error

	// Exists reports whether path has stored content.
	Exists(ctx context.Context, path string) bool

	// List enumerates every path currently stored, for reconciliation against
	// the relational document index.
	List(ctx context.Context) ([]string, error)
}
