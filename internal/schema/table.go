package schema

import "fmt"

// Column is a tracked Postgres column.
type Column struct {
	Name     string
	PGType   string // Postgres type name, see scalarForPG
	Nullable bool
}

// RelKind is the Hasura relationship kind.
type RelKind string

const (
	ObjectRel RelKind = "object"
	ArrayRel  RelKind = "array"
)

// Relationship is a tracked relationship to another table.
type Relationship struct {
	Name  string
	Kind  RelKind
	Table string
	// Mapping is local column -> remote column.
	Mapping map[string]string
}

// Table is a tracked Postgres table or view.
type Table struct {
	Name          string
	Columns       []Column
	PrimaryKey    []string
	UniqueKeys    map[string][]string // constraint name -> columns
	Relationships []Relationship
	View          bool // views expose no mutations
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Validate checks the table definition is self-consistent.
func (t *Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table has no name")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s: no columns", t.Name)
	}
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("table %s: duplicate column %s", t.Name, c.Name)
		}
		seen[c.Name] = struct{}{}
		if _, err := scalarForPG(c.PGType); err != nil {
			return fmt.Errorf("table %s column %s: %w", t.Name, c.Name, err)
		}
	}
	for _, pk := range t.PrimaryKey {
		if _, ok := seen[pk]; !ok {
			return fmt.Errorf("table %s: primary key column %s not found", t.Name, pk)
		}
	}
	for name, cols := range t.UniqueKeys {
		for _, c := range cols {
			if _, ok := seen[c]; !ok {
				return fmt.Errorf("table %s: unique key %s column %s not found", t.Name, name, c)
			}
		}
	}
	for _, r := range t.Relationships {
		if r.Kind != ObjectRel && r.Kind != ArrayRel {
			return fmt.Errorf("table %s: relationship %s has invalid kind %q", t.Name, r.Name, r.Kind)
		}
		if _, clash := seen[r.Name]; clash {
			return fmt.Errorf("table %s: relationship %s shadows a column", t.Name, r.Name)
		}
		for local := range r.Mapping {
			if _, ok := seen[local]; !ok {
				return fmt.Errorf("table %s: relationship %s maps unknown column %s", t.Name, r.Name, local)
			}
		}
	}
	return nil
}
