package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/vdex/vdex/internal/apperr"
)

// Local implements Store on the local filesystem. All operations are
// confined to baseDir to prevent path traversal.
type Local struct {
	baseDir string
}

// NewLocal creates a Local store rooted at baseDir, resolving it to an
// absolute path and creating it if it doesn't exist.
func NewLocal(baseDir string) (*Local, error) {
	if baseDir == "" {
		return nil, apperr.New(apperr.IO, "local blob store: empty base directory")
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, err, "resolving base directory %q", baseDir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.IO, err, "creating base directory %q", abs)
	}
	return &Local{baseDir: abs}, nil
}

// ID implements Store.
func (l *Local) ID() string { return "local" }

// resolve validates and resolves path within baseDir, rejecting any
// resolution that escapes it.
func (l *Local) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	abs, err := filepath.Abs(filepath.Join(l.baseDir, clean))
	if err != nil {
		return "", apperr.Wrap(apperr.IO, err, "resolving path %q", path)
	}
	if abs != l.baseDir && !strings.HasPrefix(abs, l.baseDir+string(filepath.Separator)) {
		return "", apperr.New(apperr.IO, "path %q escapes base directory", path)
	}
	return abs, nil
}

// Put implements Store.
func (l *Local) Put(ctx context.Context, path string, data []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	abs, err := l.resolve(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", apperr.Wrap(apperr.IO, err, "creating parent directory for %q", path)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		return "", apperr.Wrap(apperr.IO, err, "writing %q", path)
	}
	rel, err := filepath.Rel(l.baseDir, abs)
	if err != nil {
		return path, nil
	}
	return rel, nil
}

// Get implements Store.
func (l *Local) Get(ctx context.Context, path string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	abs, err := l.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.New(apperr.DoesNotExist, "blob %q not found", path)
		}
		return nil, apperr.Wrap(apperr.IO, err, "reading %q", path)
	}
	return data, nil
}

// Delete implements Store.
func (l *Local) Delete(ctx context.Context, path string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	abs, err := l.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if os.IsNotExist(err) {
			return apperr.New(apperr.DoesNotExist, "blob %q not found", path)
		}
		return apperr.Wrap(apperr.IO, err, "deleting %q", path)
	}
	return nil
}

// Exists implements Store.
func (l *Local) Exists(ctx context.Context, path string) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	abs, err := l.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// List implements Store by walking baseDir and returning every regular
// file's path relative to it.
func (l *Local) List(ctx context.Context) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(l.baseDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.baseDir, p)
		if err != nil {
			return err
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.IO, err, "listing blobs under %q", l.baseDir)
	}
	return paths, nil
}
