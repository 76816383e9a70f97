package hasura

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/domain"
)

// fakeExecutor answers operations from a function of the operation.
type fakeExecutor struct {
	ops     []*Operation
	respond func(op *Operation) (string, error)
}

func (f *fakeExecutor) Raw(ctx context.Context, op *Operation) (json.RawMessage, error) {
	f.ops = append(f.ops, op)
	body, err := f.respond(op)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (f *fakeExecutor) Do(ctx context.Context, op *Operation, out any) error {
	data, err := f.Raw(ctx, op)
	if err != nil {
		return err
	}
	return decodeRoot(data, op.RootField, out)
}

// tokenPages serves n tokens named mint<i>, honoring limit and offset.
func tokenPages(n int) func(op *Operation) (string, error) {
	return func(op *Operation) (string, error) {
		limit, _ := op.Variables["limit"].(int)
		offset, _ := op.Variables["offset"].(int)
		rows := []map[string]any{}
		for i := offset; i < n && i < offset+limit; i++ {
			rows = append(rows, map[string]any{"mint_acct": fmt.Sprintf("mint%d", i), "decimals": 6})
		}
		data, err := json.Marshal(map[string]any{op.RootField: rows})
		return string(data), err
	}
}

func TestSelectAll_Pages(t *testing.T) {
	b, _ := newTestBuilder(t)
	exec := &fakeExecutor{respond: tokenPages(25)}

	tokens, err := SelectAll[domain.Token](context.Background(), exec, b, "tokens", ListArgs{}, Cols("mint_acct", "decimals"), 10)
	require.NoError(t, err)
	require.Len(t, tokens, 25)
	assert.Equal(t, "mint0", tokens[0].MintAcct)
	assert.Equal(t, "mint24", tokens[24].MintAcct)

	require.Len(t, exec.ops, 3)
	assert.Equal(t, []map[string]any{{"mint_acct": "asc"}}, exec.ops[0].Variables["order_by"])
	assert.NotContains(t, exec.ops[0].Variables, "offset")
	assert.Equal(t, 10, exec.ops[1].Variables["offset"])
	assert.Equal(t, 20, exec.ops[2].Variables["offset"])
}

func TestSelectAll_ExactPageBoundary(t *testing.T) {
	b, _ := newTestBuilder(t)
	exec := &fakeExecutor{respond: tokenPages(20)}

	tokens, err := SelectAll[domain.Token](context.Background(), exec, b, "tokens", ListArgs{}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, tokens, 20)
	assert.Len(t, exec.ops, 3, "a short final page ends the scan")
}

func TestSelectAll_LimitCapsTotal(t *testing.T) {
	b, _ := newTestBuilder(t)
	exec := &fakeExecutor{respond: tokenPages(100)}

	tokens, err := SelectAll[domain.Token](context.Background(), exec, b, "tokens",
		ListArgs{Limit: 15, OrderBy: []OrderBy{{Column: "decimals", Direction: Desc}}}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, tokens, 15)
	require.Len(t, exec.ops, 2)
	assert.Equal(t, 5, exec.ops[1].Variables["limit"])
	assert.Equal(t, []map[string]any{{"decimals": "desc"}}, exec.ops[0].Variables["order_by"])
}

func TestSelectAll_Error(t *testing.T) {
	b, _ := newTestBuilder(t)
	boom := errors.New("boom")
	exec := &fakeExecutor{respond: func(*Operation) (string, error) { return "", boom }}

	_, err := SelectAll[domain.Token](context.Background(), exec, b, "tokens", ListArgs{}, nil, 0)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, DefaultPageSize, exec.ops[0].Variables["limit"])
}

func TestGet(t *testing.T) {
	b, _ := newTestBuilder(t)
	exec := &fakeExecutor{respond: func(op *Operation) (string, error) {
		return `{"markets_by_pk":{"market_acct":"m1","market_type":"amm","base_lot_size":1}}`, nil
	}}

	m, err := Get[domain.Market](context.Background(), exec, b, "markets", map[string]any{"market_acct": "m1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", m.MarketAcct)
	assert.Equal(t, domain.MarketTypeAmm, m.MarketType)
	assert.Equal(t, "m1", exec.ops[0].Variables["market_acct"])
}

func TestCount(t *testing.T) {
	b, _ := newTestBuilder(t)
	exec := &fakeExecutor{respond: func(op *Operation) (string, error) {
		return `{"proposals_aggregate":{"aggregate":{"count":42}}}`, nil
	}}

	n, err := Count(context.Background(), exec, b, "proposals", Eq("status", "Pending"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.Equal(t, Eq("status", "Pending"), exec.ops[0].Variables["where"])

	exec.respond = func(op *Operation) (string, error) { return `{"proposals_aggregate":{}}`, nil }
	_, err = Count(context.Background(), exec, b, "proposals", nil)
	assert.Error(t, err)
}
