package hasura

import (
	"context"
	"fmt"

	"github.com/buger/jsonparser"
)

// DefaultPageSize is the page size of SelectAll when none is given.
const DefaultPageSize = 1000

// SelectAll pages through a table with limit/offset and decodes every row
// into T. args.Limit caps the total number of rows; without an order the
// rows are ordered by primary key so pages are stable.
func SelectAll[T any](ctx context.Context, exec Executor, b *Builder, table string, args ListArgs, sel Selection, pageSize int) ([]T, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if len(args.OrderBy) == 0 {
		for _, col := range b.PrimaryKey(table) {
			args.OrderBy = append(args.OrderBy, OrderBy{Column: col, Direction: Asc})
		}
	}

	total := args.Limit
	offset := args.Offset
	var out []T
	for {
		page := pageSize
		if total > 0 && total-len(out) < page {
			page = total - len(out)
		}
		if page <= 0 {
			break
		}

		pageArgs := args
		pageArgs.Limit = page
		pageArgs.Offset = offset
		op, err := b.Select(table, pageArgs, sel)
		if err != nil {
			return nil, err
		}

		var rows []T
		if err := exec.Do(ctx, op, &rows); err != nil {
			return nil, fmt.Errorf("select %s at offset %d: %w", table, offset, err)
		}
		out = append(out, rows...)
		if len(rows) < page {
			break
		}
		offset += len(rows)
	}
	return out, nil
}

// Get loads one row by primary key. A missing row returns ErrNotFound.
func Get[T any](ctx context.Context, exec Executor, b *Builder, table string, pk map[string]any, sel Selection) (*T, error) {
	op, err := b.ByPK(table, pk, sel)
	if err != nil {
		return nil, err
	}
	var row T
	if err := exec.Do(ctx, op, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// Count returns the number of rows matching where.
func Count(ctx context.Context, exec Executor, b *Builder, table string, where BoolExp) (int64, error) {
	op, err := b.Aggregate(table, ListArgs{Where: where}, nil)
	if err != nil {
		return 0, err
	}
	data, err := exec.Raw(ctx, op)
	if err != nil {
		return 0, err
	}
	n, err := jsonparser.GetInt(data, op.RootField, "aggregate", "count")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
