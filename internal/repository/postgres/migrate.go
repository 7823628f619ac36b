package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/vdex/vdex/internal/apperr"
	"github.com/vdex/vdex/internal/logging"
)

// Migrate applies every pending goose migration under migrationsPath. It
// bridges pool to a database/sql.DB since goose has no native pgx support.
func Migrate(ctx context.Context, pool *pgxpool.Pool, migrationsPath string) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			logging.FromContext(ctx).ErrorContext(ctx, "closing migration db handle", "error", err)
		}
	}()

	goose.SetLogger(gooseLogAdapter{ctx: ctx})
	if err := goose.SetDialect("postgres"); err != nil {
		return apperr.Wrap(apperr.Database, err, "setting goose dialect")
	}
	if err := goose.UpContext(ctx, db, migrationsPath); err != nil {
		return apperr.Wrap(apperr.Database, err, "applying migrations from %q", migrationsPath)
	}
	return nil
}

// gooseLogAdapter routes goose's Printf-style logging through slog.
type gooseLogAdapter struct {
	ctx context.Context
}

func (a gooseLogAdapter) Fatalf(format string, v ...any) {
	logging.FromContext(a.ctx).ErrorContext(a.ctx, fmt.Sprintf(format, v...))
}

func (a gooseLogAdapter) Printf(format string, v ...any) {
	logging.FromContext(a.ctx).InfoContext(a.ctx, fmt.Sprintf(format, v...))
}
