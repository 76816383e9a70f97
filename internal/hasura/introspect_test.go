package hasura

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/schema"
)

const tinyIntrospection = `{"__schema": {
	"queryType": {"name": "query_root"},
	"mutationType": null,
	"subscriptionType": null,
	"types": [
		{"kind": "SCALAR", "name": "String", "fields": null, "inputFields": null, "enumValues": null},
		{"kind": "OBJECT", "name": "query_root", "fields": [
			{"name": "hello", "args": [], "type": {"kind": "NON_NULL", "name": null, "ofType": {"kind": "SCALAR", "name": "String", "ofType": null}}}
		], "inputFields": null, "enumValues": null},
		{"kind": "OBJECT", "name": "__Type", "fields": [], "inputFields": null, "enumValues": null}
	]
}}`

func TestIntrospect(t *testing.T) {
	exec := &fakeExecutor{respond: func(op *Operation) (string, error) { return tinyIntrospection, nil }}

	s, err := Introspect(context.Background(), exec)
	require.NoError(t, err)

	f, ok := s.RootField(schema.Query, "hello")
	require.True(t, ok)
	assert.Equal(t, "String!", f.Type.String())
	_, ok = s.Type("__Type")
	assert.False(t, ok)

	require.Len(t, exec.ops, 1)
	assert.Equal(t, schema.IntrospectionQuery, exec.ops[0].Document)
}

func TestIntrospect_Errors(t *testing.T) {
	boom := errors.New("boom")
	exec := &fakeExecutor{respond: func(*Operation) (string, error) { return "", boom }}
	_, err := Introspect(context.Background(), exec)
	assert.ErrorIs(t, err, boom)

	exec = &fakeExecutor{respond: func(*Operation) (string, error) { return `{"__schema": null}`, nil }}
	_, err = Introspect(context.Background(), exec)
	assert.Error(t, err)
}
