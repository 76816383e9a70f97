package schema

import (
	"fmt"
	"sort"
)

// Shared Hasura enums.
const (
	OrderByEnum        = "order_by"
	CursorOrderingEnum = "cursor_ordering"
)

// OrderByValues are the values of the order_by enum.
var OrderByValues = []string{
	"asc", "asc_nulls_first", "asc_nulls_last",
	"desc", "desc_nulls_first", "desc_nulls_last",
}

var numericAggregates = []string{
	"avg", "stddev", "stddev_pop", "stddev_samp", "sum", "var_pop", "var_samp", "variance",
}

var comparableAggregates = []string{"max", "min"}

// builder expands tables into the Hasura-generated type system.
type builder struct {
	tables  map[string]*Table
	order   []string
	types   map[string]*Type
	scalars map[string]struct{}

	arrayTargets  map[string]bool // tables used as array relationship targets
	objInsertRefs map[string]bool // tables needing <t>_obj_rel_insert_input
	arrInsertRefs map[string]bool // tables needing <t>_arr_rel_insert_input

	query, mutation, subscription []Field
}

// Build expands a table catalog into the schema Hasura would expose for it.
func Build(tables []Table) (*Schema, error) {
	b := &builder{
		tables:        make(map[string]*Table, len(tables)),
		types:         make(map[string]*Type),
		scalars:       make(map[string]struct{}),
		arrayTargets:  make(map[string]bool),
		objInsertRefs: make(map[string]bool),
		arrInsertRefs: make(map[string]bool),
	}

	for i := range tables {
		t := &tables[i]
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, dup := b.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %s", t.Name)
		}
		b.tables[t.Name] = t
		b.order = append(b.order, t.Name)
	}
	sort.Strings(b.order)

	if err := b.checkRelationships(); err != nil {
		return nil, err
	}

	b.addShared()
	for _, name := range b.order {
		if err := b.addTable(b.tables[name]); err != nil {
			return nil, err
		}
	}
	for _, name := range b.order {
		t := b.tables[name]
		if b.arrayTargets[name] {
			b.addAggregateBoolExp(t)
			b.addAggregateOrderBy(t)
		}
		if b.objInsertRefs[name] {
			b.addRelInsertInput(t, false)
		}
		if b.arrInsertRefs[name] {
			b.addRelInsertInput(t, true)
		}
	}
	b.addScalars()

	b.put(&Type{Name: QueryRoot, Kind: KindObject, Fields: b.query})
	b.put(&Type{Name: SubscriptionRoot, Kind: KindObject, Fields: b.subscription})
	mutationRoot := ""
	if len(b.mutation) > 0 {
		b.put(&Type{Name: MutationRoot, Kind: KindObject, Fields: b.mutation})
		mutationRoot = MutationRoot
	}

	types := make([]*Type, 0, len(b.types))
	for _, t := range b.types {
		sortType(t)
		types = append(types, t)
	}

	s, err := New(types, QueryRoot, mutationRoot, SubscriptionRoot)
	if err != nil {
		return nil, err
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("built schema is inconsistent: %w", err)
	}
	return s, nil
}

func (b *builder) checkRelationships() error {
	for _, name := range b.order {
		t := b.tables[name]
		for _, r := range t.Relationships {
			target, ok := b.tables[r.Table]
			if !ok {
				return fmt.Errorf("table %s: relationship %s targets unknown table %s", t.Name, r.Name, r.Table)
			}
			for _, remote := range r.Mapping {
				if _, ok := target.Column(remote); !ok {
					return fmt.Errorf("table %s: relationship %s maps unknown column %s.%s", t.Name, r.Name, r.Table, remote)
				}
			}
			if r.Kind == ArrayRel {
				b.arrayTargets[r.Table] = true
			}
			if !t.View && !target.View {
				if r.Kind == ObjectRel {
					b.objInsertRefs[r.Table] = true
				} else {
					b.arrInsertRefs[r.Table] = true
				}
			}
		}
	}
	return nil
}

func (b *builder) put(t *Type) {
	b.types[t.Name] = t
}

func (b *builder) useScalar(s string) {
	b.scalars[s] = struct{}{}
}

func (b *builder) addShared() {
	b.put(&Type{Name: OrderByEnum, Kind: KindEnum, EnumValues: append([]string(nil), OrderByValues...)})
	b.put(&Type{Name: CursorOrderingEnum, Kind: KindEnum, EnumValues: []string{"ASC", "DESC"}})
	// Always present: aggregate predicates and list arguments rely on them.
	b.useScalar(ScalarInt)
	b.useScalar(ScalarBoolean)
	b.useScalar(ScalarString)
}

func (b *builder) addScalars() {
	b.useScalar(ScalarFloat)
	for s := range b.scalars {
		b.put(&Type{Name: s, Kind: KindScalar})
		for _, t := range comparisonExp(s) {
			b.put(t)
		}
	}
}

func (b *builder) columnScalar(c Column) string {
	s, _ := scalarForPG(c.PGType) // validated in Table.Validate
	b.useScalar(s)
	return s
}

func listArgs(table string) []InputValue {
	return []InputValue{
		{Name: "distinct_on", Type: ListOf(table+"_select_column", false)},
		{Name: "limit", Type: Named(ScalarInt)},
		{Name: "offset", Type: Named(ScalarInt)},
		{Name: "order_by", Type: ListOf(table+"_order_by", false)},
		{Name: "where", Type: Named(table + "_bool_exp")},
	}
}

func (b *builder) pkArgs(t *Table) []InputValue {
	args := make([]InputValue, 0, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		c, _ := t.Column(name)
		args = append(args, InputValue{Name: name, Type: NonNullOf(b.columnScalar(c))})
	}
	return args
}

func (b *builder) numericColumns(t *Table) []Column {
	var out []Column
	for _, c := range t.Columns {
		if isNumericScalar(b.columnScalar(c)) {
			out = append(out, c)
		}
	}
	return out
}

func (b *builder) comparableColumns(t *Table) []Column {
	var out []Column
	for _, c := range t.Columns {
		if isComparableScalar(b.columnScalar(c)) {
			out = append(out, c)
		}
	}
	return out
}

func (b *builder) columnsOfScalar(t *Table, scalar string) []Column {
	var out []Column
	for _, c := range t.Columns {
		if b.columnScalar(c) == scalar {
			out = append(out, c)
		}
	}
	return out
}

func (b *builder) addTable(t *Table) error {
	b.addObject(t)
	b.addAggregate(t)
	b.addBoolExp(t)
	b.addOrderBy(t)
	b.addSelectColumn(t)
	b.addStreamCursor(t)

	q := []Field{
		{Name: t.Name, Type: ListOf(t.Name, true), Args: listArgs(t.Name)},
		{Name: t.Name + "_aggregate", Type: NonNullOf(t.Name + "_aggregate"), Args: listArgs(t.Name)},
	}
	if len(t.PrimaryKey) > 0 {
		q = append(q, Field{Name: t.Name + "_by_pk", Type: Named(t.Name), Args: b.pkArgs(t)})
	}
	b.query = append(b.query, q...)
	b.subscription = append(b.subscription, q...)
	b.subscription = append(b.subscription, Field{
		Name: t.Name + "_stream",
		Type: ListOf(t.Name, true),
		Args: []InputValue{
			{Name: "batch_size", Type: NonNullOf(ScalarInt)},
			{Name: "cursor", Type: TypeRef{Name: t.Name + "_stream_cursor_input", List: true, NonNull: true}},
			{Name: "where", Type: Named(t.Name + "_bool_exp")},
		},
	})

	if !t.View {
		b.addMutations(t)
	}
	return nil
}

func (b *builder) addObject(t *Table) {
	obj := &Type{Name: t.Name, Kind: KindObject}
	for _, c := range t.Columns {
		ref := Named(b.columnScalar(c))
		ref.NonNull = !c.Nullable
		obj.Fields = append(obj.Fields, Field{Name: c.Name, Type: ref})
	}
	for _, r := range t.Relationships {
		switch r.Kind {
		case ObjectRel:
			obj.Fields = append(obj.Fields, Field{Name: r.Name, Type: Named(r.Table)})
		case ArrayRel:
			obj.Fields = append(obj.Fields,
				Field{Name: r.Name, Type: ListOf(r.Table, true), Args: listArgs(r.Table)},
				Field{Name: r.Name + "_aggregate", Type: NonNullOf(r.Table + "_aggregate"), Args: listArgs(r.Table)},
			)
		}
	}
	b.put(obj)
}

func (b *builder) addAggregate(t *Table) {
	b.put(&Type{
		Name: t.Name + "_aggregate",
		Kind: KindObject,
		Fields: []Field{
			{Name: "aggregate", Type: Named(t.Name + "_aggregate_fields")},
			{Name: "nodes", Type: ListOf(t.Name, true)},
		},
	})

	fields := &Type{
		Name: t.Name + "_aggregate_fields",
		Kind: KindObject,
		Fields: []Field{{
			Name: "count",
			Type: NonNullOf(ScalarInt),
			Args: []InputValue{
				{Name: "columns", Type: ListOf(t.Name+"_select_column", false)},
				{Name: "distinct", Type: Named(ScalarBoolean)},
			},
		}},
	}

	if numeric := b.numericColumns(t); len(numeric) > 0 {
		for _, agg := range numericAggregates {
			typeName := t.Name + "_" + agg + "_fields"
			ft := &Type{Name: typeName, Kind: KindObject}
			for _, c := range numeric {
				scalar := ScalarFloat
				if agg == "sum" {
					scalar = b.columnScalar(c)
				}
				ft.Fields = append(ft.Fields, Field{Name: c.Name, Type: Named(scalar)})
			}
			b.put(ft)
			fields.Fields = append(fields.Fields, Field{Name: agg, Type: Named(typeName)})
		}
	}
	if comparable := b.comparableColumns(t); len(comparable) > 0 {
		for _, agg := range comparableAggregates {
			typeName := t.Name + "_" + agg + "_fields"
			ft := &Type{Name: typeName, Kind: KindObject}
			for _, c := range comparable {
				ft.Fields = append(ft.Fields, Field{Name: c.Name, Type: Named(b.columnScalar(c))})
			}
			b.put(ft)
			fields.Fields = append(fields.Fields, Field{Name: agg, Type: Named(typeName)})
		}
	}
	b.put(fields)
}

func (b *builder) addBoolExp(t *Table) {
	name := t.Name + "_bool_exp"
	exp := &Type{
		Name: name,
		Kind: KindInputObject,
		InputFields: []InputValue{
			{Name: "_and", Type: ListOf(name, false)},
			{Name: "_not", Type: Named(name)},
			{Name: "_or", Type: ListOf(name, false)},
		},
	}
	for _, c := range t.Columns {
		exp.InputFields = append(exp.InputFields, InputValue{
			Name: c.Name,
			Type: Named(comparisonExpName(b.columnScalar(c))),
		})
	}
	for _, r := range t.Relationships {
		exp.InputFields = append(exp.InputFields, InputValue{Name: r.Name, Type: Named(r.Table + "_bool_exp")})
		if r.Kind == ArrayRel {
			exp.InputFields = append(exp.InputFields, InputValue{
				Name: r.Name + "_aggregate",
				Type: Named(r.Table + "_aggregate_bool_exp"),
			})
		}
	}
	b.put(exp)
}

func (b *builder) addAggregateBoolExp(t *Table) {
	name := t.Name + "_aggregate_bool_exp"
	exp := &Type{
		Name: name,
		Kind: KindInputObject,
		InputFields: []InputValue{
			{Name: "count", Type: Named(name + "_count")},
		},
	}
	b.put(&Type{
		Name: name + "_count",
		Kind: KindInputObject,
		InputFields: []InputValue{
			{Name: "arguments", Type: ListOf(t.Name+"_select_column", false)},
			{Name: "distinct", Type: Named(ScalarBoolean)},
			{Name: "filter", Type: Named(t.Name + "_bool_exp")},
			{Name: "predicate", Type: NonNullOf(comparisonExpName(ScalarInt))},
		},
	})

	if bools := b.columnsOfScalar(t, ScalarBoolean); len(bools) > 0 {
		for _, agg := range []string{"bool_and", "bool_or"} {
			enumName := t.Name + "_select_column_" + name + "_" + agg + "_arguments_columns"
			enum := &Type{Name: enumName, Kind: KindEnum}
			for _, c := range bools {
				enum.EnumValues = append(enum.EnumValues, c.Name)
			}
			b.put(enum)
			b.put(&Type{
				Name: name + "_" + agg,
				Kind: KindInputObject,
				InputFields: []InputValue{
					{Name: "arguments", Type: NonNullOf(enumName)},
					{Name: "distinct", Type: Named(ScalarBoolean)},
					{Name: "filter", Type: Named(t.Name + "_bool_exp")},
					{Name: "predicate", Type: NonNullOf(comparisonExpName(ScalarBoolean))},
				},
			})
			exp.InputFields = append(exp.InputFields, InputValue{Name: agg, Type: Named(name + "_" + agg)})
		}
	}
	b.put(exp)
}

func (b *builder) addOrderBy(t *Table) {
	ob := &Type{Name: t.Name + "_order_by", Kind: KindInputObject}
	for _, c := range t.Columns {
		ob.InputFields = append(ob.InputFields, InputValue{Name: c.Name, Type: Named(OrderByEnum)})
	}
	for _, r := range t.Relationships {
		if r.Kind == ObjectRel {
			ob.InputFields = append(ob.InputFields, InputValue{Name: r.Name, Type: Named(r.Table + "_order_by")})
		} else {
			ob.InputFields = append(ob.InputFields, InputValue{
				Name: r.Name + "_aggregate",
				Type: Named(r.Table + "_aggregate_order_by"),
			})
		}
	}
	b.put(ob)
}

func (b *builder) addAggregateOrderBy(t *Table) {
	ob := &Type{
		Name:        t.Name + "_aggregate_order_by",
		Kind:        KindInputObject,
		InputFields: []InputValue{{Name: "count", Type: Named(OrderByEnum)}},
	}
	add := func(agg string, cols []Column) {
		typeName := t.Name + "_" + agg + "_order_by"
		at := &Type{Name: typeName, Kind: KindInputObject}
		for _, c := range cols {
			at.InputFields = append(at.InputFields, InputValue{Name: c.Name, Type: Named(OrderByEnum)})
		}
		b.put(at)
		ob.InputFields = append(ob.InputFields, InputValue{Name: agg, Type: Named(typeName)})
	}
	if numeric := b.numericColumns(t); len(numeric) > 0 {
		for _, agg := range numericAggregates {
			add(agg, numeric)
		}
	}
	if comparable := b.comparableColumns(t); len(comparable) > 0 {
		for _, agg := range comparableAggregates {
			add(agg, comparable)
		}
	}
	b.put(ob)
}

func (b *builder) addSelectColumn(t *Table) {
	enum := &Type{Name: t.Name + "_select_column", Kind: KindEnum}
	for _, c := range t.Columns {
		enum.EnumValues = append(enum.EnumValues, c.Name)
	}
	b.put(enum)
}

func (b *builder) addStreamCursor(t *Table) {
	b.put(&Type{
		Name: t.Name + "_stream_cursor_input",
		Kind: KindInputObject,
		InputFields: []InputValue{
			{Name: "initial_value", Type: NonNullOf(t.Name + "_stream_cursor_value_input")},
			{Name: "ordering", Type: Named(CursorOrderingEnum)},
		},
	})
	b.put(b.columnsInput(t, t.Name+"_stream_cursor_value_input", t.Columns))
}

func (b *builder) columnsInput(t *Table, name string, cols []Column) *Type {
	in := &Type{Name: name, Kind: KindInputObject}
	for _, c := range cols {
		in.InputFields = append(in.InputFields, InputValue{Name: c.Name, Type: Named(b.columnScalar(c))})
	}
	return in
}

// updateOperators returns the _set/_inc/jsonb operator arguments for a table.
func (b *builder) updateOperators(t *Table) []InputValue {
	ops := []InputValue{{Name: "_set", Type: Named(t.Name + "_set_input")}}
	if len(b.numericColumns(t)) > 0 {
		ops = append(ops, InputValue{Name: "_inc", Type: Named(t.Name + "_inc_input")})
	}
	if len(b.columnsOfScalar(t, "jsonb")) > 0 {
		for _, op := range []string{"append", "delete_at_path", "delete_elem", "delete_key", "prepend"} {
			ops = append(ops, InputValue{Name: "_" + op, Type: Named(t.Name + "_" + op + "_input")})
		}
	}
	return ops
}

func (b *builder) hasConstraint(t *Table) bool {
	return len(t.PrimaryKey) > 0 || len(t.UniqueKeys) > 0
}

func (b *builder) addMutations(t *Table) {
	// Inputs.
	insert := &Type{Name: t.Name + "_insert_input", Kind: KindInputObject}
	for _, c := range t.Columns {
		insert.InputFields = append(insert.InputFields, InputValue{Name: c.Name, Type: Named(b.columnScalar(c))})
	}
	for _, r := range t.Relationships {
		if b.tables[r.Table].View {
			continue
		}
		suffix := "_obj_rel_insert_input"
		if r.Kind == ArrayRel {
			suffix = "_arr_rel_insert_input"
		}
		insert.InputFields = append(insert.InputFields, InputValue{Name: r.Name, Type: Named(r.Table + suffix)})
	}
	b.put(insert)

	b.put(b.columnsInput(t, t.Name+"_set_input", t.Columns))
	if numeric := b.numericColumns(t); len(numeric) > 0 {
		b.put(b.columnsInput(t, t.Name+"_inc_input", numeric))
	}
	if jsonCols := b.columnsOfScalar(t, "jsonb"); len(jsonCols) > 0 {
		jsonInput := func(op string, ref TypeRef) {
			in := &Type{Name: t.Name + "_" + op + "_input", Kind: KindInputObject}
			for _, c := range jsonCols {
				in.InputFields = append(in.InputFields, InputValue{Name: c.Name, Type: ref})
			}
			b.put(in)
		}
		jsonInput("append", Named("jsonb"))
		jsonInput("prepend", Named("jsonb"))
		jsonInput("delete_key", Named(ScalarString))
		jsonInput("delete_elem", Named(ScalarInt))
		jsonInput("delete_at_path", ListOf(ScalarString, false))
	}

	if b.hasConstraint(t) {
		constraint := &Type{Name: t.Name + "_constraint", Kind: KindEnum}
		if len(t.PrimaryKey) > 0 {
			constraint.EnumValues = append(constraint.EnumValues, t.Name+"_pkey")
		}
		for name := range t.UniqueKeys {
			constraint.EnumValues = append(constraint.EnumValues, name)
		}
		b.put(constraint)

		update := &Type{Name: t.Name + "_update_column", Kind: KindEnum}
		for _, c := range t.Columns {
			update.EnumValues = append(update.EnumValues, c.Name)
		}
		b.put(update)

		b.put(&Type{
			Name: t.Name + "_on_conflict",
			Kind: KindInputObject,
			InputFields: []InputValue{
				{Name: "constraint", Type: NonNullOf(t.Name + "_constraint")},
				{Name: "update_columns", Type: ListOf(t.Name+"_update_column", true), DefaultValue: "[]"},
				{Name: "where", Type: Named(t.Name + "_bool_exp")},
			},
		})
	}

	if len(t.PrimaryKey) > 0 {
		pk := &Type{Name: t.Name + "_pk_columns_input", Kind: KindInputObject}
		pk.InputFields = b.pkArgs(t)
		b.put(pk)
	}

	ops := b.updateOperators(t)
	b.put(&Type{
		Name:        t.Name + "_updates",
		Kind:        KindInputObject,
		InputFields: append(append([]InputValue(nil), ops...), InputValue{Name: "where", Type: NonNullOf(t.Name + "_bool_exp")}),
	})
	b.put(&Type{
		Name: t.Name + "_mutation_response",
		Kind: KindObject,
		Fields: []Field{
			{Name: "affected_rows", Type: NonNullOf(ScalarInt)},
			{Name: "returning", Type: ListOf(t.Name, true)},
		},
	})

	// Root fields.
	response := Named(t.Name + "_mutation_response")
	insertArgs := []InputValue{{Name: "objects", Type: ListOf(t.Name+"_insert_input", true)}}
	insertOneArgs := []InputValue{{Name: "object", Type: NonNullOf(t.Name + "_insert_input")}}
	if b.hasConstraint(t) {
		onConflict := InputValue{Name: "on_conflict", Type: Named(t.Name + "_on_conflict")}
		insertArgs = append(insertArgs, onConflict)
		insertOneArgs = append(insertOneArgs, onConflict)
	}

	m := []Field{
		{Name: "delete_" + t.Name, Type: response, Args: []InputValue{{Name: "where", Type: NonNullOf(t.Name + "_bool_exp")}}},
		{Name: "insert_" + t.Name, Type: response, Args: insertArgs},
		{Name: "insert_" + t.Name + "_one", Type: Named(t.Name), Args: insertOneArgs},
		{Name: "update_" + t.Name, Type: response, Args: append(append([]InputValue(nil), ops...), InputValue{Name: "where", Type: NonNullOf(t.Name + "_bool_exp")})},
		{Name: "update_" + t.Name + "_many", Type: TypeRef{Name: t.Name + "_mutation_response", List: true}, Args: []InputValue{{Name: "updates", Type: ListOf(t.Name+"_updates", true)}}},
	}
	if len(t.PrimaryKey) > 0 {
		m = append(m,
			Field{Name: "delete_" + t.Name + "_by_pk", Type: Named(t.Name), Args: b.pkArgs(t)},
			Field{Name: "update_" + t.Name + "_by_pk", Type: Named(t.Name), Args: append(append([]InputValue(nil), ops...), InputValue{Name: "pk_columns", Type: NonNullOf(t.Name + "_pk_columns_input")})},
		)
	}
	b.mutation = append(b.mutation, m...)
}

func (b *builder) addRelInsertInput(t *Table, array bool) {
	name := t.Name + "_obj_rel_insert_input"
	data := NonNullOf(t.Name + "_insert_input")
	if array {
		name = t.Name + "_arr_rel_insert_input"
		data = ListOf(t.Name+"_insert_input", true)
	}
	in := &Type{Name: name, Kind: KindInputObject, InputFields: []InputValue{{Name: "data", Type: data}}}
	if b.hasConstraint(t) {
		in.InputFields = append(in.InputFields, InputValue{Name: "on_conflict", Type: Named(t.Name + "_on_conflict")})
	}
	b.put(in)
}

func sortInputValues(v []InputValue) {
	sort.SliceStable(v, func(i, j int) bool { return v[i].Name < v[j].Name })
}

func sortType(t *Type) {
	sort.SliceStable(t.Fields, func(i, j int) bool { return t.Fields[i].Name < t.Fields[j].Name })
	for i := range t.Fields {
		sortInputValues(t.Fields[i].Args)
	}
	sortInputValues(t.InputFields)
	sort.Strings(t.EnumValues)
}
