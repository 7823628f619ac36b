package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vdex/vdex/internal/apperr"
)

// Tx is a handle to an in-flight transaction. It is an interface, not the
// concrete pgx type, so callers outside this package can fake Repository
// without a live database connection.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// pgTx wraps a pgx.Tx.
type pgTx struct {
	tx pgx.Tx
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting repository
// methods run against either a bare pool or an explicit transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Begin starts a new transaction against pool.
func Begin(ctx context.Context, pool *pgxpool.Pool) (Tx, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.Database, err, "beginning transaction")
	}
	return &pgTx{tx: tx}, nil
}

// Commit commits the transaction.
func (t *pgTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return apperr.Wrap(apperr.Database, err, "committing transaction")
	}
	return nil
}

// Rollback rolls the transaction back. Calling it after Commit is a no-op
// that returns nil, so it is safe to defer.
func (t *pgTx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return apperr.Wrap(apperr.Database, err, "rolling back transaction")
	}
	return nil
}

func (t *pgTx) querier() querier { return t.tx }

// resolve returns tx's underlying querier, or pool itself when tx is nil —
// every repository method accepts an optional Tx this way. tx must either be
// nil or a *pgTx produced by Begin; any other implementation indicates a
// caller passed a Tx from the wrong Repository.
func resolve(pool *pgxpool.Pool, tx Tx) querier {
	if tx == nil {
		return pool
	}
	pt, ok := tx.(*pgTx)
	if !ok {
		panic("postgres: Tx not produced by this package's Begin")
	}
	return pt.querier()
}
