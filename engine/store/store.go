// Package store owns the PostgreSQL schema and all document, chunk and
// search queries. It relies on the pgvector and pgcrypto extensions.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shadabshaukat/searchd/engine/core"
	"github.com/shadabshaukat/searchd/pkg/config"
	"github.com/shadabshaukat/searchd/pkg/logger"
)

// Metric selects the vector distance operator. It is fixed per deployment
// and must match the operator class the index was built with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricL2     Metric = "l2"
	MetricIP     Metric = "ip"
)

// DB is the subset of pgxpool.Pool the store uses. pgxmock satisfies it for
// tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Options carries the schema-shaping settings.
type Options struct {
	Dimension   int
	Metric      Metric
	FTSLanguage string
	IndexLists  int
	IndexProbes int
}

// Store is the PostgreSQL-backed document and chunk repository.
type Store struct {
	db   DB
	pool *pgxpool.Pool
	opts Options
}

// Connect builds the connection pool, verifies connectivity and returns a
// ready store. It does not create the schema; callers run EnsureSchema.
func Connect(ctx context.Context, cfg *config.DatabaseConfig, opts Options) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("store: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = int32(cfg.MinConns)
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, &core.StoreError{Op: "connect", Transient: true, Err: err}
	}
	store, err := New(pool, opts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	store.pool = pool
	logger.FromContext(ctx).With(
		"host", cfg.Host,
		"db_name", cfg.DBName,
		"max_conns", poolCfg.MaxConns,
	).Info("Store initialized")
	return store, nil
}

// New wraps an existing database handle. Tests pass a pgxmock pool.
func New(db DB, opts Options) (*Store, error) {
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be greater than zero", core.ErrInvalidConfig)
	}
	switch opts.Metric {
	case MetricCosine, MetricL2, MetricIP:
	default:
		return nil, fmt.Errorf("%w: unknown similarity metric %q", core.ErrInvalidConfig, opts.Metric)
	}
	if opts.FTSLanguage == "" {
		opts.FTSLanguage = "english"
	}
	if opts.IndexLists <= 0 {
		opts.IndexLists = 100
	}
	if opts.IndexProbes <= 0 {
		opts.IndexProbes = 10
	}
	return &Store{db: db, opts: opts}, nil
}

// Close shuts down the pool when the store owns one.
func (s *Store) Close(ctx context.Context) {
	if s.pool != nil {
		s.pool.Close()
		logger.FromContext(ctx).Info("Store closed")
	}
}

// HealthCheck verifies the connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return &core.StoreError{Op: "ping", Transient: true, Err: err}
	}
	return nil
}

// wrapErr classifies a pg error into the store error taxonomy. Constraint
// violations are permanent integrity faults; connectivity, serialization and
// admin-shutdown classes are retryable.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return core.ErrNotFound
	}
	return &core.StoreError{Op: op, Transient: isTransient(err), Err: err}
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"): // connection exceptions
			return true
		case pgErr.Code == "40001" || pgErr.Code == "40P01": // serialization, deadlock
			return true
		case pgErr.Code == "57P01" || pgErr.Code == "57014": // shutdown, cancel
			return true
		case pgErr.Code == "53300": // too many connections
			return true
		}
		return false
	}
	// Errors with no pg code are almost always network-level.
	return !errors.Is(err, context.Canceled)
}
