package schema

import (
	"fmt"
	"strings"
)

// TypeRef is a reference to a named type with its list and non-null wrappers.
// Hasura never nests lists, so a single list level is enough.
type TypeRef struct {
	Name        string
	NonNull     bool // outer non-null
	List        bool
	ElemNonNull bool // only meaningful when List is set
}

// Named returns a nullable reference to name.
func Named(name string) TypeRef {
	return TypeRef{Name: name}
}

// NonNullOf returns a non-null reference to name.
func NonNullOf(name string) TypeRef {
	return TypeRef{Name: name, NonNull: true}
}

// ListOf returns [name!] or [name!]! depending on nonNull.
func ListOf(name string, nonNull bool) TypeRef {
	return TypeRef{Name: name, List: true, ElemNonNull: true, NonNull: nonNull}
}

// IsBare reports whether the reference has no wrappers at all.
func (r TypeRef) IsBare() bool {
	return !r.NonNull && !r.List
}

// String renders the reference in GraphQL notation, e.g. "[proposals_order_by!]".
func (r TypeRef) String() string {
	var b strings.Builder
	if r.List {
		b.WriteByte('[')
		b.WriteString(r.Name)
		if r.ElemNonNull {
			b.WriteByte('!')
		}
		b.WriteByte(']')
	} else {
		b.WriteString(r.Name)
	}
	if r.NonNull {
		b.WriteByte('!')
	}
	return b.String()
}

// ParseTypeRef parses GraphQL type notation.
func ParseTypeRef(s string) (TypeRef, error) {
	var r TypeRef
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "!") {
		r.NonNull = true
		s = s[:len(s)-1]
	}
	if strings.HasPrefix(s, "[") {
		if !strings.HasSuffix(s, "]") {
			return TypeRef{}, fmt.Errorf("unbalanced list in type %q", s)
		}
		r.List = true
		s = s[1 : len(s)-1]
		if strings.HasSuffix(s, "!") {
			r.ElemNonNull = true
			s = s[:len(s)-1]
		}
		if strings.ContainsAny(s, "[]") {
			return TypeRef{}, fmt.Errorf("nested lists are not supported: %q", s)
		}
	}
	if s == "" || strings.ContainsAny(s, "[]! ") {
		return TypeRef{}, fmt.Errorf("invalid type name %q", s)
	}
	r.Name = s
	return r, nil
}
