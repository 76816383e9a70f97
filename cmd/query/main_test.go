package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/config"
	"futarchy-graph/internal/hasura"
	"futarchy-graph/internal/schema"
)

func newTestSchema(t *testing.T) (*schema.Schema, *schema.Validator, *hasura.Builder) {
	t.Helper()
	s, err := catalog.Schema()
	require.NoError(t, err)
	v, err := schema.NewValidator(s)
	require.NoError(t, err)
	return s, v, hasura.NewBuilder(s)
}

func TestParseOrderBy(t *testing.T) {
	got, err := parseOrderBy("created_at:desc, proposal_acct ,dao.name:asc_nulls_last")
	require.NoError(t, err)
	assert.Equal(t, []hasura.OrderBy{
		{Column: "created_at", Direction: hasura.Desc},
		{Column: "proposal_acct", Direction: hasura.Asc},
		{Column: "dao.name", Direction: hasura.AscNullsLast},
	}, got)

	got, err = parseOrderBy("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseOrderBy("created_at:sideways")
	assert.ErrorContains(t, err, "sideways")
}

func TestDocumentOperation(t *testing.T) {
	_, v, _ := newTestSchema(t)

	doc := `
query Daos { daos(limit: 1) { dao_acct } }
subscription Fills { recent: takes_stream(batch_size: 1, cursor: {initial_value: {order_time: "2024-01-01T00:00:00Z"}}) { order_tx_sig } }
`
	op, err := documentOperation(v, doc, "Fills", map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, schema.Subscription, op.Type)
	assert.Equal(t, "Fills", op.Name)
	assert.Equal(t, "recent", op.RootField)
	assert.Equal(t, map[string]any{"x": 1}, op.Variables)

	_, err = documentOperation(v, doc, "", nil)
	assert.ErrorContains(t, err, "choose one")

	_, err = documentOperation(v, doc, "Nope", nil)
	assert.ErrorContains(t, err, "no operation")

	_, err = documentOperation(v, `{ daos { nope } }`, "", nil)
	var ve *schema.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestBuildOperation_FromFlags(t *testing.T) {
	_, v, b := newTestSchema(t)

	op, err := buildOperation(v, b, request{
		table:   "proposals",
		columns: "proposal_acct,status",
		where:   `{"status":{"_eq":"Pending"}}`,
		orderBy: "created_at:desc",
		limit:   5,
	})
	require.NoError(t, err)
	assert.Equal(t, "proposals", op.RootField)
	assert.Equal(t, 5, op.Variables["limit"])
	assert.Equal(t, hasura.BoolExp{"status": map[string]any{"_eq": "Pending"}}, op.Variables["where"])
	assert.NoError(t, v.Validate(op.Document))

	op, err = buildOperation(v, b, request{table: "daos", pk: `{"dao_acct":"x"}`})
	require.NoError(t, err)
	assert.Equal(t, "daos_by_pk", op.RootField)

	_, err = buildOperation(v, b, request{table: "daos", where: `{"status":`})
	assert.ErrorContains(t, err, "-where")

	_, err = buildOperation(v, b, request{})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	s, _, _ := newTestSchema(t)

	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Query string `json:"query"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotQuery = body.Query
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"tokens":[{"mint_acct":"m","decimals":6,"supply":123456789012345678901234567890}]}}`))
	}))
	defer server.Close()

	cfg := &config.Config{Endpoint: config.EndpointConfig{HTTPURL: server.URL}}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	var out bytes.Buffer
	err := run(context.Background(), cfg, logger, s, request{table: "tokens", columns: "mint_acct,decimals", limit: 1}, &out)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "tokens(")
	assert.Contains(t, out.String(), `"mint_acct": "m"`)
	assert.Contains(t, out.String(), "123456789012345678901234567890", "numbers are printed verbatim")

	err = run(context.Background(), &config.Config{}, logger, s, request{table: "tokens"}, &out)
	assert.ErrorContains(t, err, "endpoint.http_url")
}
