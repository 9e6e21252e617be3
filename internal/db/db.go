// Package db owns the connection pool and the unit-of-work boundary. One
// incoming request or workflow activity gets exactly one transaction for its
// whole lifetime; repositories reach it through the context.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/openfleet/fleetcore/internal/fault"
)

const (
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 30 * time.Minute
)

// Querier is the statement surface shared by *sql.DB and *sql.Tx. Repository
// code only ever sees this interface.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolConfig holds pool tuning knobs. Zero values fall back to defaults.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Pool wraps the database handle and hands out units of work.
type Pool struct {
	db *sql.DB
}

// Connect opens the pool and verifies connectivity.
func Connect(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 {
		cfg.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaultConnMaxLifetime
	}

	handle, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	handle.SetMaxOpenConns(cfg.MaxOpenConns)
	handle.SetMaxIdleConns(cfg.MaxIdleConns)
	handle.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := handle.PingContext(ctx); err != nil {
		_ = handle.Close()
		return nil, fault.Unavailable(err, "database unreachable")
	}

	return &Pool{db: handle}, nil
}

// NewPool wraps an already-open handle. Used by tests.
func NewPool(handle *sql.DB) *Pool {
	return &Pool{db: handle}
}

// Ping checks connectivity for readiness probes.
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close releases the pool.
func (p *Pool) Close() error {
	return p.db.Close()
}
