package blob

import (
	"context"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/config"
)

// New constructs the Store selected by cfg.Kind.
func New(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch cfg.Kind {
	case "", "local":
		return NewLocal(cfg.LocalRoot)
	case "s3":
		return NewS3(ctx, S3Config{Bucket: cfg.S3Bucket, Region: cfg.S3Region})
	default:
		return nil, apperr.New(apperr.InvalidProvider, "unknown blob store kind %q", cfg.Kind)
	}
}
