// Package schema models the GraphQL schema map exposed by the futarchy Hasura
// endpoint: types, fields, argument signatures and the root operation tables.
//
// A Schema is produced either by expanding a table catalog with Hasura's
// conventions (Build), by decoding the compact numeric-reference snapshot
// (UnmarshalCompact) or by loading a live introspection result
// (FromIntrospection).
package schema

import (
	"fmt"
	"sort"
)

// Kind is the GraphQL type kind.
type Kind string

const (
	KindScalar      Kind = "SCALAR"
	KindObject      Kind = "OBJECT"
	KindInputObject Kind = "INPUT_OBJECT"
	KindEnum        Kind = "ENUM"
)

// IsValid checks if the kind is one the schema map can represent.
func (k Kind) IsValid() bool {
	switch k {
	case KindScalar, KindObject, KindInputObject, KindEnum:
		return true
	}
	return false
}

// OperationType identifies a root operation table.
type OperationType string

const (
	Query        OperationType = "query"
	Mutation     OperationType = "mutation"
	Subscription OperationType = "subscription"
)

// Hasura root type names.
const (
	QueryRoot        = "query_root"
	MutationRoot     = "mutation_root"
	SubscriptionRoot = "subscription_root"
)

// InputValue is an argument or an input object field.
type InputValue struct {
	Name         string
	Type         TypeRef
	DefaultValue string // GraphQL literal, empty when absent
}

// Field is an output field with its argument signature.
type Field struct {
	Name string
	Type TypeRef
	Args []InputValue
}

// Arg returns the named argument.
func (f *Field) Arg(name string) (InputValue, bool) {
	for _, a := range f.Args {
		if a.Name == name {
			return a, true
		}
	}
	return InputValue{}, false
}

// Type is a named schema type.
type Type struct {
	Name        string
	Kind        Kind
	Fields      []Field      // OBJECT
	InputFields []InputValue // INPUT_OBJECT
	EnumValues  []string     // ENUM
}

// Field returns the named output field.
func (t *Type) Field(name string) (*Field, bool) {
	for i := range t.Fields {
		if t.Fields[i].Name == name {
			return &t.Fields[i], true
		}
	}
	return nil, false
}

// InputField returns the named input field.
func (t *Type) InputField(name string) (InputValue, bool) {
	for _, f := range t.InputFields {
		if f.Name == name {
			return f, true
		}
	}
	return InputValue{}, false
}

// Schema is an ordered set of types plus the root operation tables.
type Schema struct {
	Types            []*Type
	QueryType        string
	MutationType     string
	SubscriptionType string

	index map[string]*Type
}

// New creates a schema from types. Types are sorted by name.
func New(types []*Type, query, mutation, subscription string) (*Schema, error) {
	s := &Schema{
		Types:            append([]*Type(nil), types...),
		QueryType:        query,
		MutationType:     mutation,
		SubscriptionType: subscription,
	}
	sort.Slice(s.Types, func(i, j int) bool { return s.Types[i].Name < s.Types[j].Name })

	s.index = make(map[string]*Type, len(s.Types))
	for _, t := range s.Types {
		if _, dup := s.index[t.Name]; dup {
			return nil, fmt.Errorf("duplicate type %q", t.Name)
		}
		s.index[t.Name] = t
	}

	for _, root := range []string{query, mutation, subscription} {
		if root == "" {
			continue
		}
		if t, ok := s.index[root]; !ok || t.Kind != KindObject {
			return nil, fmt.Errorf("root type %q is not an object type", root)
		}
	}
	if query == "" {
		return nil, fmt.Errorf("schema has no query root")
	}
	return s, nil
}

// Type returns the named type.
func (s *Schema) Type(name string) (*Type, bool) {
	t, ok := s.index[name]
	return t, ok
}

// Field returns a field of an object type.
func (s *Schema) Field(typeName, fieldName string) (*Field, bool) {
	t, ok := s.index[typeName]
	if !ok {
		return nil, false
	}
	return t.Field(fieldName)
}

// Root returns the root type name for an operation type.
func (s *Schema) Root(op OperationType) string {
	switch op {
	case Query:
		return s.QueryType
	case Mutation:
		return s.MutationType
	case Subscription:
		return s.SubscriptionType
	}
	return ""
}

// RootField returns a root operation field, e.g. RootField(Query, "proposals_by_pk").
func (s *Schema) RootField(op OperationType, name string) (*Field, bool) {
	root := s.Root(op)
	if root == "" {
		return nil, false
	}
	return s.Field(root, name)
}

// IsLeaf reports whether the named type is a scalar or enum.
func (s *Schema) IsLeaf(name string) bool {
	t, ok := s.index[name]
	return ok && (t.Kind == KindScalar || t.Kind == KindEnum)
}

// ScalarFields returns the names of the argument-free leaf fields of an object
// type, in schema order. These are the table's columns.
func (s *Schema) ScalarFields(typeName string) []string {
	t, ok := s.index[typeName]
	if !ok {
		return nil
	}
	var out []string
	for _, f := range t.Fields {
		if len(f.Args) == 0 && s.IsLeaf(f.Type.Name) && f.Name != "__typename" {
			out = append(out, f.Name)
		}
	}
	return out
}

// Check verifies every type reference resolves.
func (s *Schema) Check() error {
	resolve := func(where string, r TypeRef) error {
		if _, ok := s.index[r.Name]; !ok {
			return fmt.Errorf("%s: unknown type %q", where, r.Name)
		}
		return nil
	}
	for _, t := range s.Types {
		for _, f := range t.Fields {
			if err := resolve(t.Name+"."+f.Name, f.Type); err != nil {
				return err
			}
			for _, a := range f.Args {
				if err := resolve(t.Name+"."+f.Name+"("+a.Name+")", a.Type); err != nil {
					return err
				}
			}
		}
		for _, f := range t.InputFields {
			if err := resolve(t.Name+"."+f.Name, f.Type); err != nil {
				return err
			}
		}
	}
	return nil
}
