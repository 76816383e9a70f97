package mirror

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"futarchy-graph/internal/storage"
)

var errNullCursor = errors.New("cursor column is null")

// advance moves cur past a batch of rows ordered by the cursor column and
// returns the new cursor and the batch length. Ties counts the trailing rows
// sharing the last value, carried over when the whole batch shares it with
// the previous cursor. A redelivered batch may repeat rows at cur.Value that
// cur.Ties already counts, so ties then only grow to the batch length. Ties
// must never exceed the rows holding the value: backfill skips that many.
func advance(cur storage.Cursor, rows []byte, redelivered bool) (storage.Cursor, int, error) {
	var (
		n        int
		last     []byte
		trailing int
		rowErr   error
	)
	_, err := jsonparser.ArrayEach(rows, func(row []byte, _ jsonparser.ValueType, _ int, _ error) {
		if rowErr != nil {
			return
		}
		v, err := cursorValue(row, cur.Column)
		if err != nil {
			rowErr = fmt.Errorf("row %d: %w", n, err)
			return
		}
		n++
		if bytes.Equal(v, last) {
			trailing++
			return
		}
		last, trailing = v, 1
	})
	if err != nil {
		return cur, 0, fmt.Errorf("iterate rows: %w", err)
	}
	if rowErr != nil {
		return cur, 0, rowErr
	}
	if n == 0 {
		return cur, 0, nil
	}

	next := cur
	switch {
	case bytes.Equal(last, cur.Value) && trailing == n && redelivered:
		next.Ties = max(cur.Ties, n)
	case bytes.Equal(last, cur.Value) && trailing == n:
		next.Ties = cur.Ties + n
	default:
		next.Ties = trailing
	}
	next.Value = json.RawMessage(last)
	return next, n, nil
}

// cursorValue extracts column from a row as JSON.
func cursorValue(row []byte, column string) ([]byte, error) {
	v, typ, _, err := jsonparser.Get(row, column)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", column, err)
	}
	switch typ {
	case jsonparser.Null:
		return nil, fmt.Errorf("%s: %w", column, errNullCursor)
	case jsonparser.String:
		out := make([]byte, 0, len(v)+2)
		out = append(out, '"')
		out = append(out, v...)
		return append(out, '"'), nil
	}
	return append([]byte(nil), v...), nil
}
