package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vdex/vdex/internal/apperr"
)

// classifyError maps a raw pgx/pgconn error to the apperr taxonomy.
func classifyError(err error, context string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.DoesNotExist, "%s: not found", context)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return apperr.New(apperr.AlreadyExists, "%s: already exists", context)
		case "23503": // foreign_key_violation
			return apperr.New(apperr.Validation, "%s: references a row that does not exist", context)
		}
	}
	return apperr.Wrap(apperr.Database, err, "%s", context)
}
