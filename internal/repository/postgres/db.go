package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/dialfa-analytics/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

const defaultMaxConcurrentQueries = 10

// DB is a read-only connection pool whose queries are gated by a semaphore so
// a burst of dashboard requests cannot exhaust the source database.
type DB struct {
	*sqlx.DB
	sem          *semaphore.Weighted
	queryTimeout time.Duration
}

// NewDB opens a connection pool for cfg. Driver is "postgres" (lib/pq) or
// "pgx" (pgx stdlib).
func NewDB(cfg config.DatabaseConfig) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sqlx.Connect(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect %s database %s: %w", driver, cfg.DBName, err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}

	// Configure connection pool
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Info().Str("driver", driver).Str("database", cfg.DBName).Int("max_open_conns", maxOpen).Msg("database pool ready")

	wrapped := NewDBFromSQLX(db, cfg.MaxConcurrentQueries)
	wrapped.queryTimeout = cfg.QueryTimeout()
	return wrapped, nil
}

// NewDBFromSQLX wraps an existing handle.
func NewDBFromSQLX(db *sqlx.DB, maxConcurrent int64) *DB {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentQueries
	}
	return &DB{
		DB:  db,
		sem: semaphore.NewWeighted(maxConcurrent),
	}
}

// selectAll runs query into dest while holding a semaphore slot.
func (db *DB) selectAll(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	// Acquire semaphore
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	if db.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, db.queryTimeout)
		defer cancel()
	}

	return db.SelectContext(ctx, dest, query, args...)
}
