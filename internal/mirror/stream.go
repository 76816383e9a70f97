// Package mirror copies futarchy tables from the GraphQL endpoint into local
// storage: a keyset backfill per table followed by a live _stream
// subscription resumed from the persisted cursor.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/hasura"
)

// Initial cursor values used when a stream has never written a batch.
var (
	StartTime = json.RawMessage(`"1970-01-01T00:00:00Z"`)
	StartSlot = json.RawMessage(`0`)
)

// Sink writes a batch of decoded rows and returns how many were written.
type Sink[T any] func(ctx context.Context, rows []*T) (int, error)

// Upsert adapts an upsert store method to a Sink. Every row counts as written.
func Upsert[T any](fn func(context.Context, []*T) error) Sink[T] {
	return func(ctx context.Context, rows []*T) (int, error) {
		if err := fn(ctx, rows); err != nil {
			return 0, err
		}
		return len(rows), nil
	}
}

// Tee writes each batch to primary, then to every secondary sink. The count
// reported is the primary's.
func Tee[T any](primary Sink[T], secondary ...Sink[T]) Sink[T] {
	return func(ctx context.Context, rows []*T) (int, error) {
		n, err := primary(ctx, rows)
		if err != nil {
			return 0, err
		}
		for _, s := range secondary {
			if _, err := s(ctx, rows); err != nil {
				return 0, err
			}
		}
		return n, nil
	}
}

// Stream binds a table and its cursor column to a sink.
type Stream struct {
	// Name identifies the stream in cursors, logs and metrics. Defaults to Table.
	Name         string
	Table        string
	CursorColumn string
	// Start is the cursor used when none is stored.
	Start json.RawMessage
	// Where optionally restricts the mirrored rows.
	Where     hasura.BoolExp
	Selection hasura.Selection

	write func(ctx context.Context, log logrus.FieldLogger, rows json.RawMessage) (int, error)
}

// NewStream creates a stream decoding rows into T. The selection defaults to
// the JSON-tagged columns of T.
func NewStream[T any](table, cursorColumn string, start json.RawMessage, sink Sink[T]) *Stream {
	return &Stream{
		Name:         table,
		Table:        table,
		CursorColumn: cursorColumn,
		Start:        start,
		Selection:    hasura.Cols(domain.Columns[T]()...),
		write: func(ctx context.Context, log logrus.FieldLogger, data json.RawMessage) (int, error) {
			var rows []*T
			if err := json.Unmarshal(data, &rows); err != nil {
				return 0, fmt.Errorf("decode %s rows: %w", table, err)
			}
			valid := rows[:0]
			for _, row := range rows {
				if v, ok := any(row).(interface{ Validate() error }); ok {
					if err := v.Validate(); err != nil {
						log.WithError(err).Warn("skipping invalid row")
						continue
					}
				}
				valid = append(valid, row)
			}
			if len(valid) == 0 {
				return 0, nil
			}
			return sink(ctx, valid)
		},
	}
}

// name returns the stream name, falling back to the table.
func (s *Stream) name() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Table
}

// check verifies the table, cursor column and selection against the schema.
func (s *Stream) check(b *hasura.Builder) error {
	if s.write == nil {
		return fmt.Errorf("stream %s: no sink, use NewStream", s.name())
	}
	if _, ok := b.Schema().Field(s.Table, s.CursorColumn); !ok {
		return fmt.Errorf("stream %s: %w: %s.%s", s.name(), hasura.ErrUnknownField, s.Table, s.CursorColumn)
	}
	if len(s.Start) == 0 || !json.Valid(s.Start) {
		return fmt.Errorf("stream %s: invalid start cursor %q", s.name(), s.Start)
	}
	if _, err := b.Stream(s.Table, 1, hasura.StreamCursor{InitialValue: map[string]any{s.CursorColumn: s.Start}}, s.Where, s.selection()); err != nil {
		return fmt.Errorf("stream %s: %w", s.name(), err)
	}
	return nil
}

// selection always includes the cursor column so batches can advance it.
func (s *Stream) selection() hasura.Selection {
	for _, f := range s.Selection {
		if f.Name == s.CursorColumn && f.Sub == nil {
			return s.Selection
		}
	}
	return append(hasura.Cols(s.CursorColumn), s.Selection...)
}
