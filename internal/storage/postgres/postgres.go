// Package postgres persists finished encounters to PostgreSQL using pgx v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// connectTimeout bounds the ping performed while opening a Pool.
const connectTimeout = 5 * time.Second

// Pool owns the connection pool shared by the encounter repository.
type Pool struct {
	pool *pgxpool.Pool
}

// NewPool opens a pool sized from cfg and verifies the server answers.
//
// Precondition: cfg passes config validation with Enabled set.
// Postcondition: Returns a Pool that answered a ping, or a non-nil error and no open connections.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool for %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	p := &Pool{pool: db}
	if err := p.Health(ctx, connectTimeout); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

// Health pings the server, giving up after timeout.
//
// Precondition: The pool must not be closed.
func (p *Pool) Health(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}
	return nil
}

// Encounters returns a repository backed by this pool.
func (p *Pool) Encounters() *EncounterRepository {
	return NewEncounterRepository(p.pool)
}

// Close releases every connection. The pool is unusable afterwards.
func (p *Pool) Close() {
	p.pool.Close()
}

// DB returns the underlying pgxpool.Pool.
func (p *Pool) DB() *pgxpool.Pool {
	return p.pool
}
