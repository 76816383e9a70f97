// Package catalog declares the futarchy indexer tables tracked by Hasura and
// builds the GraphQL schema map from them.
package catalog

import (
	"fmt"
	"sync"

	"futarchy-graph/internal/schema"
)

var (
	buildOnce sync.Once
	built     *schema.Schema
	buildErr  error
)

// Tables returns the tracked tables and views.
func Tables() []schema.Table {
	var tables []schema.Table
	tables = append(tables, daoTables()...)
	tables = append(tables, marketTables()...)
	tables = append(tables, tokenTables()...)
	tables = append(tables, userTables()...)
	tables = append(tables, indexerTables()...)
	tables = append(tables, v04Tables()...)
	tables = append(tables, views()...)
	return tables
}

// Schema returns the schema map built from Tables. It is built once.
func Schema() (*schema.Schema, error) {
	buildOnce.Do(func() {
		built, buildErr = schema.Build(Tables())
		if buildErr != nil {
			buildErr = fmt.Errorf("build futarchy schema: %w", buildErr)
		}
	})
	return built, buildErr
}

// Table returns the definition of a tracked table.
func Table(name string) (schema.Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return schema.Table{}, false
}

func col(name, pgType string) schema.Column {
	return schema.Column{Name: name, PGType: pgType}
}

// opt declares a nullable column.
func opt(name, pgType string) schema.Column {
	return schema.Column{Name: name, PGType: pgType, Nullable: true}
}

func obj(name, table string, mapping ...string) schema.Relationship {
	return rel(schema.ObjectRel, name, table, mapping)
}

func arr(name, table string, mapping ...string) schema.Relationship {
	return rel(schema.ArrayRel, name, table, mapping)
}

// rel takes mapping as local, remote pairs.
func rel(kind schema.RelKind, name, table string, mapping []string) schema.Relationship {
	m := make(map[string]string, len(mapping)/2)
	for i := 0; i+1 < len(mapping); i += 2 {
		m[mapping[i]] = mapping[i+1]
	}
	return schema.Relationship{Name: name, Kind: kind, Table: table, Mapping: m}
}
