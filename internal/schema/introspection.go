package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IntrospectionQuery fetches everything the schema map records.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      kind
      name
      fields(includeDeprecated: true) {
        name
        args { ...InputValue }
        type { ...TypeRef }
      }
      inputFields { ...InputValue }
      enumValues(includeDeprecated: true) { name }
    }
  }
}
fragment InputValue on __InputValue {
  name
  type { ...TypeRef }
  defaultValue
}
fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
        }
      }
    }
  }
}`

type introspectedRef struct {
	Kind   string           `json:"kind"`
	Name   *string          `json:"name"`
	OfType *introspectedRef `json:"ofType"`
}

type introspectedInput struct {
	Name         string          `json:"name"`
	Type         introspectedRef `json:"type"`
	DefaultValue *string         `json:"defaultValue"`
}

type introspectedField struct {
	Name string              `json:"name"`
	Args []introspectedInput `json:"args"`
	Type introspectedRef     `json:"type"`
}

type introspectedType struct {
	Kind        string              `json:"kind"`
	Name        string              `json:"name"`
	Fields      []introspectedField `json:"fields"`
	InputFields []introspectedInput `json:"inputFields"`
	EnumValues  []struct {
		Name string `json:"name"`
	} `json:"enumValues"`
}

type namedRef struct {
	Name string `json:"name"`
}

type introspectedSchema struct {
	QueryType        *namedRef          `json:"queryType"`
	MutationType     *namedRef          `json:"mutationType"`
	SubscriptionType *namedRef          `json:"subscriptionType"`
	Types            []introspectedType `json:"types"`
}

// FromIntrospection builds a schema from an introspection result. Both the
// bare {"__schema": ...} object and the full {"data": {"__schema": ...}}
// response are accepted. Introspection types (__*) are dropped.
func FromIntrospection(data []byte) (*Schema, error) {
	var envelope struct {
		Data *struct {
			Schema *introspectedSchema `json:"__schema"`
		} `json:"data"`
		Schema *introspectedSchema `json:"__schema"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode introspection: %w", err)
	}
	in := envelope.Schema
	if envelope.Data != nil && envelope.Data.Schema != nil {
		in = envelope.Data.Schema
	}
	if in == nil {
		return nil, fmt.Errorf("introspection result has no __schema")
	}

	types := make([]*Type, 0, len(in.Types))
	for _, it := range in.Types {
		if strings.HasPrefix(it.Name, "__") {
			continue
		}
		t := &Type{Name: it.Name, Kind: Kind(it.Kind)}
		if !t.Kind.IsValid() {
			return nil, fmt.Errorf("type %s: unsupported kind %s", it.Name, it.Kind)
		}

		for _, f := range it.Fields {
			ref, err := refFromIntrospection(&f.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", it.Name, f.Name, err)
			}
			field := Field{Name: f.Name, Type: ref}
			for _, a := range f.Args {
				v, err := inputFromIntrospection(a)
				if err != nil {
					return nil, fmt.Errorf("%s.%s(%s): %w", it.Name, f.Name, a.Name, err)
				}
				field.Args = append(field.Args, v)
			}
			t.Fields = append(t.Fields, field)
		}
		for _, f := range it.InputFields {
			v, err := inputFromIntrospection(f)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", it.Name, f.Name, err)
			}
			t.InputFields = append(t.InputFields, v)
		}
		for _, ev := range it.EnumValues {
			t.EnumValues = append(t.EnumValues, ev.Name)
		}
		sortType(t)
		types = append(types, t)
	}

	name := func(r *namedRef) string {
		if r == nil {
			return ""
		}
		return r.Name
	}
	return New(types, name(in.QueryType), name(in.MutationType), name(in.SubscriptionType))
}

func inputFromIntrospection(in introspectedInput) (InputValue, error) {
	ref, err := refFromIntrospection(&in.Type)
	if err != nil {
		return InputValue{}, err
	}
	v := InputValue{Name: in.Name, Type: ref}
	if in.DefaultValue != nil {
		v.DefaultValue = *in.DefaultValue
	}
	return v, nil
}

func refFromIntrospection(r *introspectedRef) (TypeRef, error) {
	var ref TypeRef
	cur := r
	if cur != nil && cur.Kind == "NON_NULL" {
		ref.NonNull = true
		cur = cur.OfType
	}
	if cur != nil && cur.Kind == "LIST" {
		ref.List = true
		cur = cur.OfType
		if cur != nil && cur.Kind == "NON_NULL" {
			ref.ElemNonNull = true
			cur = cur.OfType
		}
	}
	if cur == nil || cur.Name == nil {
		return TypeRef{}, fmt.Errorf("unnamed type reference")
	}
	if cur.Kind == "LIST" || cur.Kind == "NON_NULL" {
		return TypeRef{}, fmt.Errorf("nested list type references are not supported")
	}
	ref.Name = *cur.Name
	return ref, nil
}
