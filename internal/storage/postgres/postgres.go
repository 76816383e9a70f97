// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/storage"
)

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates a new Postgres connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Close closes the connection pool.
func (p *Pool) Close() {
	p.Pool.Close()
}

// PostgreSQL error codes
const (
	pgErrUniqueViolation = "23505" // unique_violation
)

// isDuplicateKeyError checks if error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgErrUniqueViolation
	}

	return false
}

// isNotFoundError checks if error indicates no rows found.
func isNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// execBatch runs one statement per row inside a transaction and returns the
// total number of affected rows. An empty batch is a no-op.
func execBatch[T any](ctx context.Context, pool *Pool, operation, query string, rows []*T, args func(*T) []any) (n int64, err error) {
	if len(rows) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(query, args(row)...)
	}

	results := tx.SendBatch(ctx, batch)
	for range rows {
		tag, execErr := results.Exec()
		if execErr != nil {
			results.Close()
			if isDuplicateKeyError(execErr) {
				return 0, fmt.Errorf("%s: %w", operation, storage.ErrDuplicateKey)
			}
			return 0, fmt.Errorf("%s: %w", operation, execErr)
		}
		n += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}
	return n, nil
}

// queryRows runs a query and collects its rows with scan.
func queryRows[T any](ctx context.Context, pool *Pool, operation, query string, scan func(pgx.Row) (*T, error), args ...any) (result []*T, err error) {
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), err)
	}()

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", operation, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", operation, err)
	}
	return result, nil
}

// queryOne runs a single-row query. Returns storage.ErrNotFound on no rows.
func queryOne[T any](ctx context.Context, pool *Pool, operation, query string, scan func(pgx.Row) (*T, error), args ...any) (row *T, err error) {
	start := time.Now()
	defer func() {
		recErr := err
		if errors.Is(err, storage.ErrNotFound) {
			recErr = nil
		}
		observability.RecordDBQuery("postgres", operation, time.Since(start).Seconds(), recErr)
	}()

	row, err = scan(pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	return row, nil
}
