package schema

import (
	"fmt"
	"strings"
)

// Built-in GraphQL scalars.
const (
	ScalarBoolean = "Boolean"
	ScalarFloat   = "Float"
	ScalarInt     = "Int"
	ScalarString  = "String"
)

// BuiltinScalars are predeclared by every GraphQL server and omitted from SDL.
var BuiltinScalars = []string{ScalarBoolean, ScalarFloat, ScalarInt, ScalarString, "ID"}

// IsBuiltinScalar reports whether name is a predeclared scalar.
func IsBuiltinScalar(name string) bool {
	for _, s := range BuiltinScalars {
		if s == name {
			return true
		}
	}
	return false
}

var pgScalars = map[string]string{
	"text":              ScalarString,
	"varchar":           ScalarString,
	"character varying": ScalarString,
	"bpchar":            ScalarString,
	"int4":              ScalarInt,
	"integer":           ScalarInt,
	"serial":            ScalarInt,
	"int2":              "smallint",
	"smallint":          "smallint",
	"int8":              "bigint",
	"bigint":            "bigint",
	"bigserial":         "bigint",
	"numeric":           "numeric",
	"float8":            "float8",
	"double precision":  "float8",
	"bool":              ScalarBoolean,
	"boolean":           ScalarBoolean,
	"timestamptz":       "timestamptz",
	"timestamp":         "timestamp",
	"jsonb":             "jsonb",
	"json":              "json",
	"uuid":              "uuid",
}

// scalarForPG maps a Postgres column type to its Hasura GraphQL scalar.
func scalarForPG(pgType string) (string, error) {
	s, ok := pgScalars[strings.ToLower(strings.TrimSpace(pgType))]
	if !ok {
		return "", fmt.Errorf("unmapped postgres type %q", pgType)
	}
	return s, nil
}

// isNumericScalar reports whether the scalar participates in sum/avg aggregates.
func isNumericScalar(s string) bool {
	switch s {
	case ScalarInt, ScalarFloat, "smallint", "bigint", "numeric", "float8":
		return true
	}
	return false
}

// isComparableScalar reports whether the scalar participates in min/max aggregates.
func isComparableScalar(s string) bool {
	if isNumericScalar(s) {
		return true
	}
	switch s {
	case ScalarString, "timestamptz", "timestamp":
		return true
	}
	return false
}

var stringOperators = []string{
	"_ilike", "_iregex", "_like", "_nilike", "_niregex",
	"_nlike", "_nregex", "_nsimilar", "_regex", "_similar",
}

// comparisonExpName is the name of the comparison input for a scalar.
func comparisonExpName(scalar string) string {
	return scalar + "_comparison_exp"
}

// comparisonExp builds the <scalar>_comparison_exp input type.
func comparisonExp(scalar string) []*Type {
	fields := []InputValue{
		{Name: "_eq", Type: Named(scalar)},
		{Name: "_gt", Type: Named(scalar)},
		{Name: "_gte", Type: Named(scalar)},
		{Name: "_in", Type: ListOf(scalar, false)},
		{Name: "_is_null", Type: Named(ScalarBoolean)},
		{Name: "_lt", Type: Named(scalar)},
		{Name: "_lte", Type: Named(scalar)},
		{Name: "_neq", Type: Named(scalar)},
		{Name: "_nin", Type: ListOf(scalar, false)},
	}
	var extra []*Type

	switch scalar {
	case ScalarString:
		for _, op := range stringOperators {
			fields = append(fields, InputValue{Name: op, Type: Named(ScalarString)})
		}
	case "jsonb":
		fields = append(fields,
			InputValue{Name: "_cast", Type: Named("jsonb_cast_exp")},
			InputValue{Name: "_contained_in", Type: Named("jsonb")},
			InputValue{Name: "_contains", Type: Named("jsonb")},
			InputValue{Name: "_has_key", Type: Named(ScalarString)},
			InputValue{Name: "_has_keys_all", Type: ListOf(ScalarString, false)},
			InputValue{Name: "_has_keys_any", Type: ListOf(ScalarString, false)},
		)
		extra = append(extra, &Type{
			Name: "jsonb_cast_exp",
			Kind: KindInputObject,
			InputFields: []InputValue{
				{Name: ScalarString, Type: Named(comparisonExpName(ScalarString))},
			},
		})
	}

	sortInputValues(fields)
	return append(extra, &Type{
		Name:        comparisonExpName(scalar),
		Kind:        KindInputObject,
		InputFields: fields,
	})
}
