package server

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vdex/vdex/internal/vectorstore"
)

// DatabasePinger probes the relational repository's connection pool.
type DatabasePinger struct {
	pool *pgxpool.Pool
}

// NewDatabasePinger wraps pool as a Pinger.
func NewDatabasePinger(pool *pgxpool.Pool) *DatabasePinger {
	return &DatabasePinger{pool: pool}
}

// Ping implements Pinger.
func (p *DatabasePinger) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Name implements Pinger.
func (p *DatabasePinger) Name() string { return "database" }

// VectorStorePinger probes one registered vector-store provider by listing
// its collections, which every backend must support cheaply.
type VectorStorePinger struct {
	store vectorstore.VectorStore
}

// NewVectorStorePinger wraps store as a Pinger.
func NewVectorStorePinger(store vectorstore.VectorStore) *VectorStorePinger {
	return &VectorStorePinger{store: store}
}

// Ping implements Pinger.
func (p *VectorStorePinger) Ping(ctx context.Context) error {
	_, err := p.store.ListCollections(ctx)
	return err
}

// Name implements Pinger.
func (p *VectorStorePinger) Name() string { return fmt.Sprintf("vectorstore:%s", p.store.ID()) }
