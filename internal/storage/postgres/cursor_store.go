package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/storage"
)

// CursorStore is a PostgreSQL implementation of storage.CursorStore.
// Uses a single table, stream_cursors, with one row per stream.
type CursorStore struct {
	pool *Pool
}

// NewCursorStore creates a new PostgreSQL cursor store.
func NewCursorStore(pool *Pool) *CursorStore {
	return &CursorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CursorStore = (*CursorStore)(nil)

// Get retrieves the cursor of a stream.
func (s *CursorStore) Get(ctx context.Context, stream string) (*storage.Cursor, error) {
	query := `
		SELECT stream, cursor_col, value, ties, updated_at
		FROM stream_cursors
		WHERE stream = $1
	`
	return queryOne(ctx, s.pool, "get_cursor", query, scanCursor, stream)
}

// Set stores the cursor of a stream.
// Uses upsert to handle initial insert and subsequent updates.
func (s *CursorStore) Set(ctx context.Context, c *storage.Cursor) error {
	if err := c.Validate(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO stream_cursors (stream, cursor_col, value, ties, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (stream) DO UPDATE
		SET cursor_col = EXCLUDED.cursor_col,
		    value = EXCLUDED.value,
		    ties = EXCLUDED.ties,
		    updated_at = NOW()
	`, c.Stream, c.Column, string(c.Value), c.Ties)
	if err != nil {
		return fmt.Errorf("set cursor %s: %w", c.Stream, err)
	}
	return nil
}

// List retrieves all cursors ordered by stream.
func (s *CursorStore) List(ctx context.Context) ([]*storage.Cursor, error) {
	query := `SELECT stream, cursor_col, value, ties, updated_at FROM stream_cursors ORDER BY stream`
	return queryRows(ctx, s.pool, "list_cursors", query, scanCursor)
}

func scanCursor(row pgx.Row) (*storage.Cursor, error) {
	var c storage.Cursor
	var value string
	if err := row.Scan(&c.Stream, &c.Column, &value, &c.Ties, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Value = []byte(value)
	return &c, nil
}
