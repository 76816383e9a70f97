package hasura

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/schema"
)

const daoAcct = "Dao1111111111111111111111111111111111111111"

func newTestBuilder(t *testing.T) (*Builder, *schema.Validator) {
	t.Helper()
	s, err := catalog.Schema()
	require.NoError(t, err)
	v, err := schema.NewValidator(s)
	require.NoError(t, err)
	return NewBuilder(s), v
}

func TestBuilder_Select(t *testing.T) {
	b, v := newTestBuilder(t)

	op, err := b.Select("proposals", ListArgs{
		Where:   Eq("dao_acct", daoAcct),
		OrderBy: []OrderBy{{Column: "created_at", Direction: Desc}},
		Limit:   10,
	}, Cols("proposal_acct", "status"))
	require.NoError(t, err)

	assert.Equal(t, schema.Query, op.Type)
	assert.Equal(t, "proposals", op.RootField)
	assert.Equal(t,
		"query proposals($limit: Int, $order_by: [proposals_order_by!], $where: proposals_bool_exp) "+
			"{ proposals(limit: $limit, order_by: $order_by, where: $where) { proposal_acct status } }",
		op.Document)
	assert.Equal(t, 10, op.Variables["limit"])
	assert.Equal(t, []map[string]any{{"created_at": "desc"}}, op.Variables["order_by"])
	assert.NoError(t, v.Validate(op.Document))
}

func TestBuilder_DefaultSelection(t *testing.T) {
	b, v := newTestBuilder(t)

	op, err := b.Select("tokens", ListArgs{}, nil)
	require.NoError(t, err)
	assert.Contains(t, op.Document, "mint_acct")
	assert.Contains(t, op.Document, "decimals")
	assert.NotContains(t, op.Document, "__typename")
	assert.NotContains(t, op.Document, "(")
	assert.Empty(t, op.Variables)
	assert.NoError(t, v.Validate(op.Document))
}

func TestBuilder_NestedSelection(t *testing.T) {
	b, v := newTestBuilder(t)

	sel := Cols("proposal_acct").With(
		Nest("dao", Cols("dao_acct", "slots_per_proposal")),
		Nest("markets", Selection{Nest("takes_aggregate", Selection{Nest("aggregate", Cols("count"))})}),
	)
	op, err := b.Select("proposals", ListArgs{Where: Rel("dao", Eq("dao_acct", daoAcct))}, sel)
	require.NoError(t, err)
	assert.Contains(t, op.Document, "dao { dao_acct slots_per_proposal }")
	assert.Contains(t, op.Document, "takes_aggregate { aggregate { count } }")
	assert.NoError(t, v.Validate(op.Document))
}

func TestBuilder_Aggregate(t *testing.T) {
	b, v := newTestBuilder(t)

	op, err := b.Aggregate("takes", ListArgs{Where: Gt("base_amount", 0)}, nil)
	require.NoError(t, err)
	assert.Equal(t, "takes_aggregate", op.RootField)
	assert.Contains(t, op.Document, "{ aggregate { count } }")
	assert.NoError(t, v.Validate(op.Document))
}

func TestBuilder_ByPK(t *testing.T) {
	b, v := newTestBuilder(t)

	op, err := b.ByPK("daos", map[string]any{"dao_acct": daoAcct}, Cols("dao_acct"))
	require.NoError(t, err)
	assert.Equal(t, "query daos_by_pk($dao_acct: String!) { daos_by_pk(dao_acct: $dao_acct) { dao_acct } }", op.Document)
	assert.NoError(t, v.Validate(op.Document))

	_, err = b.ByPK("daos", map[string]any{}, nil)
	assert.ErrorContains(t, err, "missing required argument dao_acct")

	_, err = b.ByPK("prices_chart_data", map[string]any{}, nil)
	assert.ErrorIs(t, err, ErrUnknownField, "views have no primary key")
}

func TestBuilder_Stream(t *testing.T) {
	b, v := newTestBuilder(t)

	op, err := b.Stream("takes", 100, StreamCursor{InitialValue: map[string]any{"order_time": "2024-01-01T00:00:00Z"}}, nil, Cols("order_tx_sig", "order_time"))
	require.NoError(t, err)
	assert.Equal(t, schema.Subscription, op.Type)
	assert.Equal(t,
		"subscription takes_stream($batch_size: Int!, $cursor: [takes_stream_cursor_input]!) "+
			"{ takes_stream(batch_size: $batch_size, cursor: $cursor) { order_tx_sig order_time } }",
		op.Document)
	assert.Equal(t, []map[string]any{{
		"initial_value": map[string]any{"order_time": "2024-01-01T00:00:00Z"},
		"ordering":      CursorAsc,
	}}, op.Variables["cursor"])
	assert.NoError(t, v.Validate(op.Document))

	_, err = b.Stream("takes", 0, StreamCursor{}, nil, nil)
	assert.Error(t, err)

	_, err = b.Stream("takes", 10, StreamCursor{InitialValue: map[string]any{"nope": 1}}, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestBuilder_Mutations(t *testing.T) {
	b, v := newTestBuilder(t)

	tests := []struct {
		name  string
		build func() (*Operation, error)
		root  string
	}{
		{
			name: "insert with upsert",
			build: func() (*Operation, error) {
				return b.Insert("daos", []map[string]any{{"dao_acct": daoAcct}},
					&OnConflict{Constraint: "daos_pkey", UpdateColumns: []string{"updated_at"}}, nil)
			},
			root: "insert_daos",
		},
		{
			name: "insert one",
			build: func() (*Operation, error) {
				return b.InsertOne("comments", map[string]any{"content": "hi"}, nil, Cols("comment_id"))
			},
			root: "insert_comments_one",
		},
		{
			name: "update",
			build: func() (*Operation, error) {
				return b.Update("orders", Eq("market_acct", daoAcct), map[string]any{"is_active": false}, nil, nil)
			},
			root: "update_orders",
		},
		{
			name: "update by pk",
			build: func() (*Operation, error) {
				return b.UpdateByPK("daos", map[string]any{"dao_acct": daoAcct}, nil, map[string]any{"dao_id": 1}, Cols("dao_acct"))
			},
			root: "update_daos_by_pk",
		},
		{
			name: "delete",
			build: func() (*Operation, error) {
				return b.Delete("sessions", Lt("expires_at", "2024-01-01T00:00:00Z"), nil)
			},
			root: "delete_sessions",
		},
		{
			name: "delete by pk",
			build: func() (*Operation, error) {
				return b.DeleteByPK("reactions", map[string]any{"reaction_id": "0b5c6f1e-3f57-4c61-9f5f-0d2f0a0d9b11"}, nil)
			},
			root: "delete_reactions_by_pk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op, err := tt.build()
			require.NoError(t, err)
			assert.Equal(t, schema.Mutation, op.Type)
			assert.Equal(t, tt.root, op.RootField)
			assert.NoError(t, v.Validate(op.Document))
		})
	}
}

func TestBuilder_RequiresWhere(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.Delete("sessions", nil, nil)
	assert.Error(t, err)
	_, err = b.Update("orders", nil, map[string]any{"is_active": false}, nil, nil)
	assert.Error(t, err)

	op, err := b.Delete("sessions", BoolExp{}, nil)
	require.NoError(t, err)
	assert.Equal(t, BoolExp{}, op.Variables["where"])
}

func TestBuilder_Unknown(t *testing.T) {
	b, _ := newTestBuilder(t)

	tests := []struct {
		name  string
		build func() (*Operation, error)
	}{
		{"table", func() (*Operation, error) { return b.Select("nope", ListArgs{}, nil) }},
		{"column", func() (*Operation, error) { return b.Select("daos", ListArgs{}, Cols("nope")) }},
		{"where column", func() (*Operation, error) { return b.Select("daos", ListArgs{Where: Eq("nope", 1)}, nil) }},
		{"where operator", func() (*Operation, error) {
			return b.Select("daos", ListArgs{Where: BoolExp{"dao_acct": map[string]any{"_near": 1}}}, nil)
		}},
		{"nested where", func() (*Operation, error) {
			return b.Select("proposals", ListArgs{Where: And(Eq("status", "Passed"), Rel("dao", Eq("nope", 1)))}, nil)
		}},
		{"order by", func() (*Operation, error) {
			return b.Select("daos", ListArgs{OrderBy: []OrderBy{{Column: "dao_detail.nope", Direction: Asc}}}, nil)
		}},
		{"view mutation", func() (*Operation, error) { return b.Delete("prices_chart_data", BoolExp{}, nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, ErrUnknownField)
		})
	}
}

func TestBuilder_LeafSelection(t *testing.T) {
	b, _ := newTestBuilder(t)

	_, err := b.Select("daos", ListArgs{}, Selection{Nest("dao_acct", Cols("x"))})
	assert.ErrorContains(t, err, "leaf field")

	_, err = b.Aggregate("daos", ListArgs{}, Selection{Nest("aggregate", nil)})
	assert.ErrorContains(t, err, "explicit selection")
}

func TestBuilder_PrimaryKey(t *testing.T) {
	b, _ := newTestBuilder(t)

	assert.Equal(t, []string{"dao_acct"}, b.PrimaryKey("daos"))
	assert.ElementsMatch(t, []string{"market_acct", "candle_duration", "timestamp"}, b.PrimaryKey("candles"))
	assert.Nil(t, b.PrimaryKey("twap_chart_data"))
}

func TestOrderBy_Value(t *testing.T) {
	o := OrderBy{Column: "dao.dao_detail.name", Direction: AscNullsLast}
	assert.Equal(t, map[string]any{"dao": map[string]any{"dao_detail": map[string]any{"name": "asc_nulls_last"}}}, o.value())
}

func TestOnConflict_Value(t *testing.T) {
	o := &OnConflict{Constraint: "takes_pkey"}
	v := o.value()
	assert.Equal(t, []string{}, v["update_columns"])
	assert.NotContains(t, v, "where")
}

func TestBoolExp_Helpers(t *testing.T) {
	exp := Or(In("status", "Passed", "Failed"), Not(IsNull("ended_at", true)))
	assert.Equal(t, BoolExp{"_or": []BoolExp{
		{"status": map[string]any{"_in": []any{"Passed", "Failed"}}},
		{"_not": BoolExp{"ended_at": map[string]any{"_is_null": true}}},
	}}, exp)
	assert.Equal(t, BoolExp{"name": map[string]any{"_ilike": "%meta%"}}, ILike("name", "%meta%"))
}
