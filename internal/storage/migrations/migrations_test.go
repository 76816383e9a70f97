package migrations

import (
	"context"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"futarchy-graph/internal/storage/postgres"
)

func TestEmbeddedFiles(t *testing.T) {
	pg, err := Load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	for _, table := range []string{"daos", "proposals", "markets", "orders", "takes", "candles", "twaps", "tokens", "stream_cursors"} {
		assert.Contains(t, pg[0].SQL, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}

	ch, err := Load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.NotEmpty(t, ch)
	for _, m := range ch {
		assert.NoError(t, validateNoSemicolonInStrings(m.SQL), m.Name)
		for _, stmt := range splitStatements(m.SQL) {
			assert.True(t, strings.HasPrefix(stmt, "CREATE TABLE"), "unexpected statement in %s: %s", m.Name, stmt)
		}
	}

	_, err = fs.Stat(PostgresFS, "postgres/"+pg[0].Name)
	assert.NoError(t, err)
}

func TestLoad(t *testing.T) {
	fsys := fstest.MapFS{
		"sql/002_b.sql":      {Data: []byte("CREATE TABLE b ();")},
		"sql/001_a.sql":      {Data: []byte("CREATE TABLE a ();")},
		"sql/003_empty.sql":  {Data: []byte("  \n")},
		"sql/README.md":      {Data: []byte("notes")},
		"sql/nested/004.sql": {Data: []byte("CREATE TABLE c ();")},
	}

	got, err := Load(fsys, "sql")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "001_a.sql", got[0].Name)
	assert.Equal(t, "002_b.sql", got[1].Name)
	assert.Equal(t, "CREATE TABLE b ();", got[1].SQL)

	got, err = Load(fsys, "missing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPending(t *testing.T) {
	all := []Migration{{Name: "001.sql"}, {Name: "002.sql"}, {Name: "003.sql"}}

	assert.Equal(t, all, pending(all, nil))
	assert.Equal(t, []Migration{{Name: "003.sql"}}, pending(all, []string{"001.sql", "002.sql"}))
	assert.Empty(t, pending(all, []string{"003.sql", "002.sql", "001.sql", "000.sql"}))
}

func TestSplitStatements(t *testing.T) {
	input := `
-- header comment
CREATE TABLE a (x UInt8) ENGINE = Memory;

  -- indented comment
CREATE TABLE b (
    y String -- trailing comment stays
) ENGINE = Memory;
;
`
	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b ("))
	assert.True(t, strings.HasSuffix(stmts[1], "ENGINE = Memory"))

	assert.Empty(t, splitStatements("-- only a comment\n\n"))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a' ; SELECT 'it''s'`))
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT '' ; SELECT 1`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'a;b'`))
	assert.Error(t, validateNoSemicolonInStrings(`SELECT 'it''s;'`))
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/futarchy")
	require.NoError(t, err)
	assert.Equal(t, "futarchy", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)

	_, err = databaseFromDSN("://bad")
	assert.Error(t, err)
}

func TestRunPostgresMigrations_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("futarchy"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	pool, err := postgres.NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	all, err := Load(PostgresFS, "postgres")
	require.NoError(t, err)

	applied, err := RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Len(t, applied, len(all))

	applied, err = RunPostgresMigrations(ctx, pool)
	require.NoError(t, err)
	assert.Empty(t, applied, "a second run finds every file in the ledger")

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM "+ledgerTable).Scan(&n))
	assert.Equal(t, len(all), n)
}
