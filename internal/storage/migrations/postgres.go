package migrations

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/storage/postgres"
)

const createPostgresLedger = `CREATE TABLE IF NOT EXISTS ` + ledgerTable + ` (
    name        TEXT PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// RunPostgresMigrations applies the embedded files missing from the ledger,
// each in its own transaction, and returns the names it applied.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	all, err := Load(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, createPostgresLedger); err != nil {
		return nil, fmt.Errorf("create migration ledger: %w", err)
	}

	rows, err := pool.Query(ctx, "SELECT name FROM "+ledgerTable)
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}
	done, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read migration ledger: %w", err)
	}

	var applied []string
	for _, m := range pending(all, done) {
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, "INSERT INTO "+ledgerTable+" (name) VALUES ($1)", m.Name)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		applied = append(applied, m.Name)
	}
	return applied, nil
}
