package schema

import (
	"fmt"
	"sort"
)

// ChangeKind classifies a schema difference.
type ChangeKind string

const (
	TypeAdded        ChangeKind = "TYPE_ADDED"
	TypeRemoved      ChangeKind = "TYPE_REMOVED"
	TypeKindChanged  ChangeKind = "TYPE_KIND_CHANGED"
	FieldAdded       ChangeKind = "FIELD_ADDED"
	FieldRemoved     ChangeKind = "FIELD_REMOVED"
	FieldTypeChanged ChangeKind = "FIELD_TYPE_CHANGED"
	ArgAdded         ChangeKind = "ARG_ADDED"
	ArgRemoved       ChangeKind = "ARG_REMOVED"
	ArgTypeChanged   ChangeKind = "ARG_TYPE_CHANGED"
	EnumValueAdded   ChangeKind = "ENUM_VALUE_ADDED"
	EnumValueRemoved ChangeKind = "ENUM_VALUE_REMOVED"
	RootChanged      ChangeKind = "ROOT_CHANGED"
)

// Change is one difference between a snapshot and a live schema.
type Change struct {
	Kind   ChangeKind
	Path   string // e.g. "proposals.status" or "query_root.proposals(where)"
	Before string
	After  string
	// Required is set on added arguments and input fields that are non-null
	// without a default.
	Required bool
}

// Breaking reports whether a client built against the base schema can fail
// against the new one.
func (c Change) Breaking() bool {
	switch c.Kind {
	case TypeAdded, EnumValueAdded:
		return false
	case FieldAdded, ArgAdded:
		// Existing documents do not pass a new required input.
		return c.Required
	}
	return true
}

func (c Change) String() string {
	switch {
	case c.Before != "" && c.After != "":
		return fmt.Sprintf("%s %s: %s -> %s", c.Kind, c.Path, c.Before, c.After)
	case c.After != "":
		return fmt.Sprintf("%s %s: %s", c.Kind, c.Path, c.After)
	case c.Before != "":
		return fmt.Sprintf("%s %s: %s", c.Kind, c.Path, c.Before)
	}
	return fmt.Sprintf("%s %s", c.Kind, c.Path)
}

// Diff compares base against live. Changes are ordered by path, then kind.
func Diff(base, live *Schema) []Change {
	var changes []Change
	add := func(c Change) {
		changes = append(changes, c)
	}

	for _, op := range []OperationType{Query, Mutation, Subscription} {
		if b, l := base.Root(op), live.Root(op); b != l {
			add(Change{Kind: RootChanged, Path: string(op), Before: b, After: l})
		}
	}

	for _, bt := range base.Types {
		lt, ok := live.Type(bt.Name)
		if !ok {
			add(Change{Kind: TypeRemoved, Path: bt.Name, Before: string(bt.Kind)})
			continue
		}
		if bt.Kind != lt.Kind {
			add(Change{Kind: TypeKindChanged, Path: bt.Name, Before: string(bt.Kind), After: string(lt.Kind)})
			continue
		}
		diffFields(bt, lt, add)
		diffInputs(bt.Name, bt.InputFields, lt.InputFields, FieldAdded, FieldRemoved, FieldTypeChanged, add)
		diffEnum(bt, lt, add)
	}
	for _, lt := range live.Types {
		if _, ok := base.Type(lt.Name); !ok {
			add(Change{Kind: TypeAdded, Path: lt.Name, After: string(lt.Kind)})
		}
	}

	sort.SliceStable(changes, func(i, j int) bool {
		if changes[i].Path != changes[j].Path {
			return changes[i].Path < changes[j].Path
		}
		return changes[i].Kind < changes[j].Kind
	})
	return changes
}

// BreakingChanges filters changes down to the breaking ones.
func BreakingChanges(changes []Change) []Change {
	var out []Change
	for _, c := range changes {
		if c.Breaking() {
			out = append(out, c)
		}
	}
	return out
}

type addFunc func(Change)

func diffFields(bt, lt *Type, add addFunc) {
	for _, bf := range bt.Fields {
		lf, ok := lt.Field(bf.Name)
		path := bt.Name + "." + bf.Name
		if !ok {
			add(Change{Kind: FieldRemoved, Path: path, Before: bf.Type.String()})
			continue
		}
		if bf.Type != lf.Type {
			add(Change{Kind: FieldTypeChanged, Path: path, Before: bf.Type.String(), After: lf.Type.String()})
		}
		diffInputs(path, bf.Args, lf.Args, ArgAdded, ArgRemoved, ArgTypeChanged, add)
	}
	for _, lf := range lt.Fields {
		if _, ok := bt.Field(lf.Name); !ok {
			add(Change{Kind: FieldAdded, Path: bt.Name + "." + lf.Name, After: lf.Type.String()})
		}
	}
}

func diffInputs(owner string, base, live []InputValue, added, removed, changed ChangeKind, add addFunc) {
	pathOf := func(name string) string {
		if added == ArgAdded {
			return owner + "(" + name + ")"
		}
		return owner + "." + name
	}
	liveByName := make(map[string]InputValue, len(live))
	for _, v := range live {
		liveByName[v.Name] = v
	}
	baseByName := make(map[string]struct{}, len(base))
	for _, bv := range base {
		baseByName[bv.Name] = struct{}{}
		lv, ok := liveByName[bv.Name]
		if !ok {
			add(Change{Kind: removed, Path: pathOf(bv.Name), Before: bv.Type.String()})
			continue
		}
		if bv.Type != lv.Type {
			add(Change{Kind: changed, Path: pathOf(bv.Name), Before: bv.Type.String(), After: lv.Type.String()})
		}
	}
	for _, lv := range live {
		if _, ok := baseByName[lv.Name]; !ok {
			add(Change{
				Kind:     added,
				Path:     pathOf(lv.Name),
				After:    lv.Type.String(),
				Required: lv.Type.NonNull && lv.DefaultValue == "",
			})
		}
	}
}

func diffEnum(bt, lt *Type, add addFunc) {
	liveValues := make(map[string]struct{}, len(lt.EnumValues))
	for _, v := range lt.EnumValues {
		liveValues[v] = struct{}{}
	}
	baseValues := make(map[string]struct{}, len(bt.EnumValues))
	for _, v := range bt.EnumValues {
		baseValues[v] = struct{}{}
		if _, ok := liveValues[v]; !ok {
			add(Change{Kind: EnumValueRemoved, Path: bt.Name + "." + v, Before: v})
		}
	}
	for _, v := range lt.EnumValues {
		if _, ok := baseValues[v]; !ok {
			add(Change{Kind: EnumValueAdded, Path: bt.Name + "." + v, After: v})
		}
	}
}
