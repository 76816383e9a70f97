// Package migrations applies the embedded PostgreSQL and ClickHouse schema
// files and records which ones have run.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// PostgresFS holds the PostgreSQL schema files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS holds the ClickHouse schema files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// ledgerTable records applied migration names in both databases.
const ledgerTable = "schema_migrations"

// Migration is one SQL file.
type Migration struct {
	Name string
	SQL  string
}

// Load returns the non-empty .sql files directly under dir, ordered by name.
func Load(fsys fs.FS, dir string) ([]Migration, error) {
	paths, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []Migration
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", p, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		out = append(out, Migration{Name: path.Base(p), SQL: string(data)})
	}
	return out, nil
}

// pending drops migrations whose names are in done.
func pending(all []Migration, done []string) []Migration {
	seen := make(map[string]bool, len(done))
	for _, name := range done {
		seen[name] = true
	}
	var out []Migration
	for _, m := range all {
		if !seen[m.Name] {
			out = append(out, m)
		}
	}
	return out
}
