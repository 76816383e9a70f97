package hasura

import "strings"

// BoolExp is a Hasura <table>_bool_exp value.
type BoolExp map[string]any

func compare(op, column string, value any) BoolExp {
	return BoolExp{column: map[string]any{op: value}}
}

func Eq(column string, value any) BoolExp  { return compare("_eq", column, value) }
func Neq(column string, value any) BoolExp { return compare("_neq", column, value) }
func Gt(column string, value any) BoolExp  { return compare("_gt", column, value) }
func Gte(column string, value any) BoolExp { return compare("_gte", column, value) }
func Lt(column string, value any) BoolExp  { return compare("_lt", column, value) }
func Lte(column string, value any) BoolExp { return compare("_lte", column, value) }

// In matches any of values.
func In(column string, values ...any) BoolExp {
	return compare("_in", column, values)
}

// Nin matches none of values.
func Nin(column string, values ...any) BoolExp {
	return compare("_nin", column, values)
}

func IsNull(column string, isNull bool) BoolExp { return compare("_is_null", column, isNull) }

func Like(column, pattern string) BoolExp  { return compare("_like", column, pattern) }
func ILike(column, pattern string) BoolExp { return compare("_ilike", column, pattern) }
func Regex(column, pattern string) BoolExp { return compare("_regex", column, pattern) }

// And matches rows satisfying every expression.
func And(exps ...BoolExp) BoolExp {
	return BoolExp{"_and": exps}
}

// Or matches rows satisfying any expression.
func Or(exps ...BoolExp) BoolExp {
	return BoolExp{"_or": exps}
}

func Not(exp BoolExp) BoolExp {
	return BoolExp{"_not": exp}
}

// Rel filters on a relationship, e.g. Rel("dao", Eq("dao_acct", acct)).
func Rel(relationship string, exp BoolExp) BoolExp {
	return BoolExp{relationship: exp}
}

// Order directions of the order_by enum.
const (
	Asc            = "asc"
	AscNullsFirst  = "asc_nulls_first"
	AscNullsLast   = "asc_nulls_last"
	Desc           = "desc"
	DescNullsFirst = "desc_nulls_first"
	DescNullsLast  = "desc_nulls_last"
)

// OrderBy orders by a column. Column may be a dotted path through object
// relationships, e.g. "dao.created_at".
type OrderBy struct {
	Column    string
	Direction string
}

func (o OrderBy) value() map[string]any {
	parts := strings.Split(o.Column, ".")
	var v any = o.Direction
	for i := len(parts) - 1; i >= 0; i-- {
		v = map[string]any{parts[i]: v}
	}
	return v.(map[string]any)
}

func orderByValue(orders []OrderBy) []map[string]any {
	out := make([]map[string]any, len(orders))
	for i, o := range orders {
		out[i] = o.value()
	}
	return out
}

// OnConflict turns an insert into an upsert.
type OnConflict struct {
	Constraint    string
	UpdateColumns []string // empty means do nothing on conflict
	Where         BoolExp
}

func (o *OnConflict) value() map[string]any {
	cols := o.UpdateColumns
	if cols == nil {
		cols = []string{}
	}
	v := map[string]any{"constraint": o.Constraint, "update_columns": cols}
	if len(o.Where) > 0 {
		v["where"] = o.Where
	}
	return v
}

// Cursor ordering values for <table>_stream.
const (
	CursorAsc  = "ASC"
	CursorDesc = "DESC"
)

// StreamCursor is one element of the <table>_stream cursor argument.
type StreamCursor struct {
	InitialValue map[string]any
	Ordering     string // CursorAsc when empty
}

func (s StreamCursor) value() map[string]any {
	ordering := s.Ordering
	if ordering == "" {
		ordering = CursorAsc
	}
	return map[string]any{"initial_value": s.InitialValue, "ordering": ordering}
}
