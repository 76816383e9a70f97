package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// introspect renders s the way a GraphQL server answers IntrospectionQuery.
func introspect(s *Schema) map[string]any {
	var ref func(r TypeRef) map[string]any
	named := func(name string) map[string]any {
		kind := "OBJECT"
		if t, ok := s.Type(name); ok {
			kind = string(t.Kind)
		}
		return map[string]any{"kind": kind, "name": name, "ofType": nil}
	}
	ref = func(r TypeRef) map[string]any {
		out := named(r.Name)
		if r.List {
			if r.ElemNonNull {
				out = map[string]any{"kind": "NON_NULL", "name": nil, "ofType": out}
			}
			out = map[string]any{"kind": "LIST", "name": nil, "ofType": out}
		}
		if r.NonNull {
			out = map[string]any{"kind": "NON_NULL", "name": nil, "ofType": out}
		}
		return out
	}
	input := func(v InputValue) map[string]any {
		var def any
		if v.DefaultValue != "" {
			def = v.DefaultValue
		}
		return map[string]any{"name": v.Name, "type": ref(v.Type), "defaultValue": def}
	}

	types := []any{map[string]any{"kind": "OBJECT", "name": "__Schema", "fields": []any{}}}
	for _, t := range s.Types {
		entry := map[string]any{"kind": string(t.Kind), "name": t.Name, "fields": nil, "inputFields": nil, "enumValues": nil}
		if t.Kind == KindObject {
			fields := []any{}
			for _, f := range t.Fields {
				args := []any{}
				for _, a := range f.Args {
					args = append(args, input(a))
				}
				fields = append(fields, map[string]any{"name": f.Name, "args": args, "type": ref(f.Type)})
			}
			entry["fields"] = fields
		}
		if t.Kind == KindInputObject {
			fields := []any{}
			for _, f := range t.InputFields {
				fields = append(fields, input(f))
			}
			entry["inputFields"] = fields
		}
		if t.Kind == KindEnum {
			values := []any{}
			for _, v := range t.EnumValues {
				values = append(values, map[string]any{"name": v})
			}
			entry["enumValues"] = values
		}
		types = append(types, entry)
	}

	root := func(name string) any {
		if name == "" {
			return nil
		}
		return map[string]any{"name": name}
	}
	return map[string]any{
		"queryType":        root(s.QueryType),
		"mutationType":     root(s.MutationType),
		"subscriptionType": root(s.SubscriptionType),
		"types":            types,
	}
}

func TestFromIntrospection(t *testing.T) {
	s := buildTestSchema(t)

	for name, envelope := range map[string]any{
		"bare":     map[string]any{"__schema": introspect(s)},
		"response": map[string]any{"data": map[string]any{"__schema": introspect(s)}},
	} {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(envelope)
			require.NoError(t, err)

			loaded, err := FromIntrospection(data)
			require.NoError(t, err)

			_, ok := loaded.Type("__Schema")
			assert.False(t, ok)
			assert.Empty(t, Diff(s, loaded))

			want, err := Fingerprint(s)
			require.NoError(t, err)
			got, err := Fingerprint(loaded)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFromIntrospection_Errors(t *testing.T) {
	tests := map[string]string{
		"invalid json":     `{`,
		"no schema":        `{"data":{}}`,
		"unsupported kind": `{"__schema":{"queryType":{"name":"q"},"types":[{"kind":"UNION","name":"u"}]}}`,
		"unnamed ref": `{"__schema":{"queryType":{"name":"q"},"types":[
			{"kind":"OBJECT","name":"q","fields":[{"name":"a","args":[],"type":{"kind":"NON_NULL","name":null,"ofType":null}}]}]}}`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := FromIntrospection([]byte(data))
			assert.Error(t, err)
		})
	}
}
