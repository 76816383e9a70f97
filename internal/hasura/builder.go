package hasura

import (
	"fmt"
	"sort"
	"strings"

	"futarchy-graph/internal/schema"
)

// Operation is a GraphQL document with its variables.
type Operation struct {
	Type      schema.OperationType
	Name      string
	RootField string
	Document  string
	Variables map[string]any
}

// Field is one entry of a selection set.
type Field struct {
	Name string
	Sub  Selection // nil selects every column of an object field
}

// Selection is a selection set. A nil Selection selects every column.
type Selection []Field

// Cols selects leaf fields.
func Cols(names ...string) Selection {
	sel := make(Selection, len(names))
	for i, n := range names {
		sel[i] = Field{Name: n}
	}
	return sel
}

// Nest selects an object or relationship field.
func Nest(name string, sub Selection) Field {
	return Field{Name: name, Sub: sub}
}

// With returns the selection extended by fields.
func (s Selection) With(fields ...Field) Selection {
	return append(append(Selection{}, s...), fields...)
}

// ListArgs are the arguments shared by <table> and <table>_aggregate.
type ListArgs struct {
	Where      BoolExp
	OrderBy    []OrderBy
	Limit      int // 0 means unlimited
	Offset     int
	DistinctOn []string
}

func (a ListArgs) values() map[string]any {
	v := make(map[string]any)
	if a.Where != nil {
		v["where"] = a.Where
	}
	if len(a.OrderBy) > 0 {
		v["order_by"] = orderByValue(a.OrderBy)
	}
	if a.Limit > 0 {
		v["limit"] = a.Limit
	}
	if a.Offset > 0 {
		v["offset"] = a.Offset
	}
	if len(a.DistinctOn) > 0 {
		v["distinct_on"] = a.DistinctOn
	}
	return v
}

// Builder builds operations checked against a schema map. Argument
// variable types come from the root field signatures.
type Builder struct {
	schema *schema.Schema
}

// NewBuilder creates a builder for s.
func NewBuilder(s *schema.Schema) *Builder {
	return &Builder{schema: s}
}

// Schema returns the schema the builder checks against.
func (b *Builder) Schema() *schema.Schema {
	return b.schema
}

// PrimaryKey returns the primary key columns of a table, nil for views.
func (b *Builder) PrimaryKey(table string) []string {
	f, ok := b.schema.RootField(schema.Query, table+"_by_pk")
	if !ok {
		return nil
	}
	cols := make([]string, len(f.Args))
	for i, a := range f.Args {
		cols[i] = a.Name
	}
	return cols
}

// Select builds a <table> query.
func (b *Builder) Select(table string, args ListArgs, sel Selection) (*Operation, error) {
	return b.build(schema.Query, table, args.values(), sel)
}

// Aggregate builds a <table>_aggregate query. A nil selection counts rows.
func (b *Builder) Aggregate(table string, args ListArgs, sel Selection) (*Operation, error) {
	if sel == nil {
		sel = Selection{Nest("aggregate", Cols("count"))}
	}
	return b.build(schema.Query, table+"_aggregate", args.values(), sel)
}

// ByPK builds a <table>_by_pk query.
func (b *Builder) ByPK(table string, pk map[string]any, sel Selection) (*Operation, error) {
	return b.build(schema.Query, table+"_by_pk", copyArgs(pk), sel)
}

// Stream builds a <table>_stream subscription.
func (b *Builder) Stream(table string, batchSize int, cursor StreamCursor, where BoolExp, sel Selection) (*Operation, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("stream %s: batch size must be positive", table)
	}
	args := map[string]any{
		"batch_size": batchSize,
		"cursor":     []map[string]any{cursor.value()},
	}
	if where != nil {
		args["where"] = where
	}
	return b.build(schema.Subscription, table+"_stream", args, sel)
}

// Insert builds an insert_<table> mutation. objects is a slice of rows or
// column maps. A nil selection returns affected_rows.
func (b *Builder) Insert(table string, objects any, onConflict *OnConflict, sel Selection) (*Operation, error) {
	args := map[string]any{"objects": objects}
	if onConflict != nil {
		args["on_conflict"] = onConflict.value()
	}
	return b.build(schema.Mutation, "insert_"+table, args, sel)
}

// InsertOne builds an insert_<table>_one mutation.
func (b *Builder) InsertOne(table string, object any, onConflict *OnConflict, sel Selection) (*Operation, error) {
	args := map[string]any{"object": object}
	if onConflict != nil {
		args["on_conflict"] = onConflict.value()
	}
	return b.build(schema.Mutation, "insert_"+table+"_one", args, sel)
}

// Update builds an update_<table> mutation.
func (b *Builder) Update(table string, where BoolExp, set, inc map[string]any, sel Selection) (*Operation, error) {
	if where == nil {
		return nil, fmt.Errorf("update %s: where is required, use BoolExp{} to match every row", table)
	}
	args := updateArgs(set, inc)
	args["where"] = where
	return b.build(schema.Mutation, "update_"+table, args, sel)
}

// UpdateByPK builds an update_<table>_by_pk mutation.
func (b *Builder) UpdateByPK(table string, pk, set, inc map[string]any, sel Selection) (*Operation, error) {
	args := updateArgs(set, inc)
	args["pk_columns"] = pk
	return b.build(schema.Mutation, "update_"+table+"_by_pk", args, sel)
}

// Delete builds a delete_<table> mutation.
func (b *Builder) Delete(table string, where BoolExp, sel Selection) (*Operation, error) {
	if where == nil {
		return nil, fmt.Errorf("delete %s: where is required, use BoolExp{} to match every row", table)
	}
	return b.build(schema.Mutation, "delete_"+table, map[string]any{"where": where}, sel)
}

// DeleteByPK builds a delete_<table>_by_pk mutation.
func (b *Builder) DeleteByPK(table string, pk map[string]any, sel Selection) (*Operation, error) {
	return b.build(schema.Mutation, "delete_"+table+"_by_pk", copyArgs(pk), sel)
}

func updateArgs(set, inc map[string]any) map[string]any {
	args := make(map[string]any)
	if len(set) > 0 {
		args["_set"] = set
	}
	if len(inc) > 0 {
		args["_inc"] = inc
	}
	return args
}

func copyArgs(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (b *Builder) build(opType schema.OperationType, rootField string, args map[string]any, sel Selection) (*Operation, error) {
	f, ok := b.schema.RootField(opType, rootField)
	if !ok {
		return nil, fmt.Errorf("%w: %s root field %s", ErrUnknownField, opType, rootField)
	}

	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	decls := make([]string, 0, len(names))
	uses := make([]string, 0, len(names))
	for _, name := range names {
		a, ok := f.Arg(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no argument %s", ErrUnknownField, rootField, name)
		}
		if err := b.checkInput(a.Type.Name, args[name]); err != nil {
			return nil, fmt.Errorf("%s(%s): %w", rootField, name, err)
		}
		decls = append(decls, "$"+name+": "+a.Type.String())
		uses = append(uses, name+": $"+name)
	}
	for _, a := range f.Args {
		if !a.Type.NonNull || a.DefaultValue != "" {
			continue
		}
		if _, ok := args[a.Name]; !ok {
			return nil, fmt.Errorf("%s: missing required argument %s", rootField, a.Name)
		}
	}

	var doc strings.Builder
	doc.WriteString(string(opType) + " " + rootField)
	if len(decls) > 0 {
		doc.WriteString("(" + strings.Join(decls, ", ") + ")")
	}
	doc.WriteString(" { " + rootField)
	if len(uses) > 0 {
		doc.WriteString("(" + strings.Join(uses, ", ") + ")")
	}
	if !b.schema.IsLeaf(f.Type.Name) {
		doc.WriteString(" ")
		if err := b.writeSelection(&doc, f.Type.Name, sel); err != nil {
			return nil, err
		}
	}
	doc.WriteString(" }")

	return &Operation{
		Type:      opType,
		Name:      rootField,
		RootField: rootField,
		Document:  doc.String(),
		Variables: args,
	}, nil
}

func (b *Builder) writeSelection(w *strings.Builder, typeName string, sel Selection) error {
	t, ok := b.schema.Type(typeName)
	if !ok || t.Kind != schema.KindObject {
		return fmt.Errorf("%w: %s is not an object type", ErrUnknownField, typeName)
	}
	if sel == nil {
		cols := b.schema.ScalarFields(typeName)
		if len(cols) == 0 {
			return fmt.Errorf("%s has no columns, give an explicit selection", typeName)
		}
		sel = Cols(cols...)
	}

	w.WriteString("{")
	for _, f := range sel {
		if f.Name == "__typename" {
			w.WriteString(" __typename")
			continue
		}
		fd, ok := t.Field(f.Name)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, typeName, f.Name)
		}
		w.WriteString(" " + f.Name)
		if b.schema.IsLeaf(fd.Type.Name) {
			if len(f.Sub) > 0 {
				return fmt.Errorf("%s.%s is a leaf field and takes no selection", typeName, f.Name)
			}
			continue
		}
		w.WriteString(" ")
		if err := b.writeSelection(w, fd.Type.Name, f.Sub); err != nil {
			return err
		}
	}
	w.WriteString(" }")
	return nil
}

// checkInput checks the keys of map-shaped argument values against an input
// object type. Struct values are passed through unchecked.
func (b *Builder) checkInput(typeName string, v any) error {
	t, ok := b.schema.Type(typeName)
	if !ok || t.Kind != schema.KindInputObject {
		return nil
	}
	if list, ok := asList(v); ok {
		for _, item := range list {
			if err := b.checkInput(typeName, item); err != nil {
				return err
			}
		}
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		return nil
	}
	for key, val := range m {
		f, ok := t.InputField(key)
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, typeName, key)
		}
		if err := b.checkInput(f.Type.Name, val); err != nil {
			return err
		}
	}
	return nil
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case BoolExp:
		return m, true
	case map[string]any:
		return m, true
	}
	return nil, false
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []BoolExp:
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, e := range l {
			out[i] = e
		}
		return out, true
	}
	return nil, false
}
