package postgres

import (
	"context"
	"fmt"
	"net/url"

	"github.com/jackc/pgx/v5/pgxpool"

	"govportal/internal/platform/config"
)

// Pool wraps a pgx connection pool with health checking capabilities.
type Pool struct {
	*pgxpool.Pool
}

// New opens a connection pool from cfg and verifies connectivity.
func New(ctx context.Context, cfg config.DatabaseConfig) (*Pool, error) {
	pcfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL %s: %w", Redact(cfg.URL), err)
	}
	if cfg.MaxConns > 0 {
		pcfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("open database pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return &Pool{Pool: pool}, nil
}

// Name identifies the dependency in readiness reports.
func (p *Pool) Name() string { return "postgres" }

// Health pings the database.
func (p *Pool) Health(ctx context.Context) error {
	return p.Ping(ctx)
}

// Redact masks credentials in a connection URL for logging.
func Redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		// keyword/value DSNs may carry password=...
		return "****"
	}
	if u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
