// Package postgres implements the durable block header store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goodnatureofminers/evmsync-backend/internal/model"
	"github.com/goodnatureofminers/evmsync-backend/pkg/safe"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// Metrics records duration and outcome of store operations.
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	// DB is the subset of pgxpool.Pool the queries run on.
	DB interface {
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Ping(ctx context.Context) error
	}
)

// Repository persists EVM block headers in Postgres.
type Repository struct {
	db      DB
	pool    *pgxpool.Pool
	metrics Metrics
}

// NewRepository opens a connection pool and verifies it with a ping.
func NewRepository(ctx context.Context, dsn string, metrics Metrics) (*Repository, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: pool, pool: pool, metrics: metrics}, nil
}

// Close releases the underlying pool.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Ping verifies store reachability; the readiness probe calls it.
func (r *Repository) Ping(ctx context.Context) error {
	start := time.Now()
	var err error
	defer func() {
		r.metrics.Observe("ping", err, start)
	}()

	if err = r.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// PoolStats reports live acquired/idle connection counts for the pool gauges.
func (r *Repository) PoolStats() (active, idle int32) {
	if r.pool == nil {
		return 0, 0
	}
	stat := r.pool.Stat()
	return stat.AcquiredConns(), stat.IdleConns()
}

func scanBlockHeader(rows pgx.Rows, header *model.BlockHeader) error {
	var (
		number    int64
		timestamp int64
	)
	if err := rows.Scan(&header.ID, &header.ChainID, &number, &header.Hash, &header.ParentHash, &timestamp); err != nil {
		return err
	}

	num, err := safe.Uint64(number)
	if err != nil {
		return fmt.Errorf("block number: %w", err)
	}
	ts, err := safe.Uint32(timestamp)
	if err != nil {
		return fmt.Errorf("block timestamp: %w", err)
	}

	header.Number = num
	header.Timestamp = ts
	return nil
}
