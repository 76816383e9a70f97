package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"futarchy-graph/internal/catalog"
	"futarchy-graph/internal/observability"
	"futarchy-graph/internal/schema"
)

// buildWith builds the catalog schema after edit changes a copy of its tables.
func buildWith(t *testing.T, edit func([]schema.Table) []schema.Table) *schema.Schema {
	t.Helper()
	tables := catalog.Tables()
	copied := make([]schema.Table, len(tables))
	for i, tbl := range tables {
		tbl.Columns = append([]schema.Column(nil), tbl.Columns...)
		copied[i] = tbl
	}
	s, err := schema.Build(edit(copied))
	require.NoError(t, err)
	return s
}

func TestWriteAndLoadSnapshot(t *testing.T) {
	s, err := catalog.Schema()
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "out")

	fingerprint, err := write(s, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, FingerprintFile))
	require.NoError(t, err)
	assert.Equal(t, fingerprint+"\n", string(data))

	sdl, err := os.ReadFile(filepath.Join(dir, SDLFile))
	require.NoError(t, err)
	assert.Contains(t, string(sdl), "type proposals {")

	loaded, err := loadSnapshot(filepath.Join(dir, CompactFile))
	require.NoError(t, err)
	again, err := schema.Fingerprint(loaded)
	require.NoError(t, err)
	assert.Equal(t, fingerprint, again)

	_, err = loadSnapshot(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReport(t *testing.T) {
	base, err := catalog.Schema()
	require.NoError(t, err)

	added := buildWith(t, func(tables []schema.Table) []schema.Table {
		return append(tables, schema.Table{
			Name:       "launches",
			Columns:    []schema.Column{{Name: "launch_acct", PGType: "text"}},
			PrimaryKey: []string{"launch_acct"},
		})
	})
	retyped := buildWith(t, func(tables []schema.Table) []schema.Table {
		for i := range tables {
			if tables[i].Name != "tokens" {
				continue
			}
			for j := range tables[i].Columns {
				if tables[i].Columns[j].Name == "decimals" {
					tables[i].Columns[j].PGType = "text"
				}
			}
		}
		return tables
	})

	tests := []struct {
		name         string
		live         *schema.Schema
		strict       bool
		wantCode     int
		wantBreaking float64
		wantLine     string
	}{
		{"identical", base, true, exitOK, 0, "0 changes, 0 breaking"},
		{"additions", added, false, exitOK, 0, "TYPE_ADDED launches"},
		{"additions strict", added, true, exitChanged, 0, "TYPE_ADDED launches"},
		{"retyped column", retyped, false, exitBreaking, 1, "! FIELD_TYPE_CHANGED tokens.decimals"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetricsWithRegistry("test", prometheus.NewRegistry())
			var out bytes.Buffer

			code, err := report(base, tt.live, tt.strict, "", metrics, &out)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, out.String(), tt.wantLine)
			if tt.wantBreaking > 0 {
				assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.SchemaChanges.WithLabelValues("true")), tt.wantBreaking)
			} else {
				assert.Equal(t, 0.0, testutil.ToFloat64(metrics.SchemaChanges.WithLabelValues("true")))
			}
		})
	}
}

func TestReport_MetricsTextfile(t *testing.T) {
	base, err := catalog.Schema()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "schemagen.prom")

	code, err := report(base, base, false, path, observability.DefaultMetrics, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, exitOK, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "schema_changes"), "textfile holds the schema change gauge")
}

func TestReport_MetricsTextfileOwnRegistry(t *testing.T) {
	base, err := catalog.Schema()
	require.NoError(t, err)
	retyped := buildWith(t, func(tables []schema.Table) []schema.Table {
		for i := range tables {
			if tables[i].Name != "tokens" {
				continue
			}
			for j := range tables[i].Columns {
				if tables[i].Columns[j].Name == "decimals" {
					tables[i].Columns[j].PGType = "text"
				}
			}
		}
		return tables
	})
	path := filepath.Join(t.TempDir(), "schemagen.prom")
	metrics := observability.NewMetricsWithRegistry("check", prometheus.NewRegistry())

	code, err := report(base, retyped, false, path, metrics, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, exitBreaking, code)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `check_schema_changes{breaking="true"}`)
}
