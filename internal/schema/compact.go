package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// The compact form is the numeric-reference snapshot consumed by typed client
// generators. Types are keyed by name under "types"; every reference to a type
// is its index in the name-sorted type list. Wrappers are spelled out as a
// type string only when the reference is not the bare named type.
//
//	field entry:  [idx] | [idx, "T!"] | [idx, {args}] | [idx, "T!", {args}]
//	input entry:  [idx] | [idx, "T!"] | [idx, "T!", "default literal"]
type compactSchema struct {
	Scalars []int                                 `json:"scalars"`
	Enums   map[string][]string                   `json:"enums"`
	Inputs  []int                                 `json:"inputs"`
	Roots   map[string]int                        `json:"roots"`
	Types   map[string]map[string]json.RawMessage `json:"types"`
}

const typenameField = "__typename"

// MarshalCompact encodes the schema in the compact numeric-reference form.
func MarshalCompact(s *Schema) ([]byte, error) {
	idx := make(map[string]int, len(s.Types))
	for i, t := range s.Types {
		idx[t.Name] = i
	}
	stringIdx, ok := idx[ScalarString]
	if !ok {
		return nil, fmt.Errorf("schema has no String scalar")
	}

	ref := func(r TypeRef) (int, error) {
		i, ok := idx[r.Name]
		if !ok {
			return 0, fmt.Errorf("unknown type %q", r.Name)
		}
		return i, nil
	}
	inputEntry := func(v InputValue) ([]any, error) {
		i, err := ref(v.Type)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", v.Name, err)
		}
		entry := []any{i}
		if !v.Type.IsBare() || v.DefaultValue != "" {
			entry = append(entry, v.Type.String())
		}
		if v.DefaultValue != "" {
			entry = append(entry, v.DefaultValue)
		}
		return entry, nil
	}

	out := struct {
		Scalars []int                     `json:"scalars"`
		Enums   map[string][]string       `json:"enums"`
		Inputs  []int                     `json:"inputs"`
		Roots   map[string]int            `json:"roots"`
		Types   map[string]map[string]any `json:"types"`
	}{
		Scalars: []int{},
		Enums:   map[string][]string{},
		Inputs:  []int{},
		Roots:   map[string]int{},
		Types:   make(map[string]map[string]any, len(s.Types)),
	}

	for _, op := range []OperationType{Query, Mutation, Subscription} {
		if root := s.Root(op); root != "" {
			out.Roots[string(op)] = idx[root]
		}
	}

	for i, t := range s.Types {
		entry := map[string]any{}
		switch t.Kind {
		case KindScalar:
			out.Scalars = append(out.Scalars, i)
		case KindEnum:
			out.Enums[t.Name] = append([]string{}, t.EnumValues...)
		case KindInputObject:
			out.Inputs = append(out.Inputs, i)
			for _, f := range t.InputFields {
				e, err := inputEntry(f)
				if err != nil {
					return nil, fmt.Errorf("type %s: %w", t.Name, err)
				}
				entry[f.Name] = e
			}
		case KindObject:
			for _, f := range t.Fields {
				fi, err := ref(f.Type)
				if err != nil {
					return nil, fmt.Errorf("type %s field %s: %w", t.Name, f.Name, err)
				}
				e := []any{fi}
				if !f.Type.IsBare() {
					e = append(e, f.Type.String())
				}
				if len(f.Args) > 0 {
					args := make(map[string]any, len(f.Args))
					for _, a := range f.Args {
						ae, err := inputEntry(a)
						if err != nil {
							return nil, fmt.Errorf("type %s field %s arg %w", t.Name, f.Name, err)
						}
						args[a.Name] = ae
					}
					e = append(e, args)
				}
				entry[f.Name] = e
			}
			entry[typenameField] = []any{stringIdx}
		default:
			return nil, fmt.Errorf("type %s: unsupported kind %q", t.Name, t.Kind)
		}
		out.Types[t.Name] = entry
	}

	return json.Marshal(out)
}

// UnmarshalCompact decodes the compact numeric-reference form.
func UnmarshalCompact(data []byte) (*Schema, error) {
	var in compactSchema
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode compact schema: %w", err)
	}

	names := make([]string, 0, len(in.Types))
	for name := range in.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	nameAt := func(i int) (string, error) {
		if i < 0 || i >= len(names) {
			return "", fmt.Errorf("type index %d out of range", i)
		}
		return names[i], nil
	}

	kinds := make(map[string]Kind, len(names))
	for _, i := range in.Scalars {
		n, err := nameAt(i)
		if err != nil {
			return nil, fmt.Errorf("scalars: %w", err)
		}
		kinds[n] = KindScalar
	}
	for _, i := range in.Inputs {
		n, err := nameAt(i)
		if err != nil {
			return nil, fmt.Errorf("inputs: %w", err)
		}
		kinds[n] = KindInputObject
	}
	for n := range in.Enums {
		if _, ok := in.Types[n]; !ok {
			return nil, fmt.Errorf("enum %s has no type entry", n)
		}
		kinds[n] = KindEnum
	}

	types := make([]*Type, 0, len(names))
	for _, name := range names {
		kind, ok := kinds[name]
		if !ok {
			kind = KindObject
		}
		t := &Type{Name: name, Kind: kind}

		switch kind {
		case KindEnum:
			t.EnumValues = append([]string(nil), in.Enums[name]...)
		case KindInputObject:
			for fname, raw := range in.Types[name] {
				v, err := decodeInputEntry(fname, raw, nameAt)
				if err != nil {
					return nil, fmt.Errorf("type %s: %w", name, err)
				}
				t.InputFields = append(t.InputFields, v)
			}
		case KindObject:
			for fname, raw := range in.Types[name] {
				if fname == typenameField {
					continue
				}
				f, err := decodeFieldEntry(fname, raw, nameAt)
				if err != nil {
					return nil, fmt.Errorf("type %s: %w", name, err)
				}
				t.Fields = append(t.Fields, f)
			}
		}
		sortType(t)
		types = append(types, t)
	}

	root := func(op OperationType) (string, error) {
		i, ok := in.Roots[string(op)]
		if !ok {
			return "", nil
		}
		return nameAt(i)
	}
	query, err := root(Query)
	if err != nil {
		return nil, fmt.Errorf("query root: %w", err)
	}
	mutation, err := root(Mutation)
	if err != nil {
		return nil, fmt.Errorf("mutation root: %w", err)
	}
	subscription, err := root(Subscription)
	if err != nil {
		return nil, fmt.Errorf("subscription root: %w", err)
	}

	s, err := New(types, query, mutation, subscription)
	if err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, err
	}
	return s, nil
}

// decodeRef resolves the index and optional type string of an entry.
func decodeRef(parts []json.RawMessage, nameAt func(int) (string, error)) (TypeRef, []json.RawMessage, error) {
	if len(parts) == 0 {
		return TypeRef{}, nil, fmt.Errorf("empty entry")
	}
	var i int
	if err := json.Unmarshal(parts[0], &i); err != nil {
		return TypeRef{}, nil, fmt.Errorf("type index: %w", err)
	}
	name, err := nameAt(i)
	if err != nil {
		return TypeRef{}, nil, err
	}
	ref := Named(name)
	rest := parts[1:]

	if len(rest) > 0 {
		var typeStr string
		if json.Unmarshal(rest[0], &typeStr) == nil {
			parsed, err := ParseTypeRef(typeStr)
			if err != nil {
				return TypeRef{}, nil, err
			}
			if parsed.Name != name {
				return TypeRef{}, nil, fmt.Errorf("type string %q does not match index %d (%s)", typeStr, i, name)
			}
			ref = parsed
			rest = rest[1:]
		}
	}
	return ref, rest, nil
}

func decodeInputEntry(name string, raw json.RawMessage, nameAt func(int) (string, error)) (InputValue, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return InputValue{}, fmt.Errorf("input %s: %w", name, err)
	}
	ref, rest, err := decodeRef(parts, nameAt)
	if err != nil {
		return InputValue{}, fmt.Errorf("input %s: %w", name, err)
	}
	v := InputValue{Name: name, Type: ref}
	if len(rest) > 0 {
		if err := json.Unmarshal(rest[0], &v.DefaultValue); err != nil {
			return InputValue{}, fmt.Errorf("input %s default: %w", name, err)
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return InputValue{}, fmt.Errorf("input %s: unexpected trailing elements", name)
	}
	return v, nil
}

func decodeFieldEntry(name string, raw json.RawMessage, nameAt func(int) (string, error)) (Field, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil {
		return Field{}, fmt.Errorf("field %s: %w", name, err)
	}
	ref, rest, err := decodeRef(parts, nameAt)
	if err != nil {
		return Field{}, fmt.Errorf("field %s: %w", name, err)
	}
	f := Field{Name: name, Type: ref}
	if len(rest) > 0 {
		var args map[string]json.RawMessage
		if err := json.Unmarshal(rest[0], &args); err != nil {
			return Field{}, fmt.Errorf("field %s args: %w", name, err)
		}
		for aname, araw := range args {
			a, err := decodeInputEntry(aname, araw, nameAt)
			if err != nil {
				return Field{}, fmt.Errorf("field %s: %w", name, err)
			}
			f.Args = append(f.Args, a)
		}
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return Field{}, fmt.Errorf("field %s: unexpected trailing elements", name)
	}
	return f, nil
}
