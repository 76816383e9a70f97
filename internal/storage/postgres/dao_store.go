package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// DaoStore implements storage.DaoStore using PostgreSQL.
type DaoStore struct {
	pool *Pool
}

// NewDaoStore creates a new DaoStore.
func NewDaoStore(pool *Pool) *DaoStore {
	return &DaoStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DaoStore = (*DaoStore)(nil)

const daoColumns = `
	dao_acct, program_acct, base_acct, quote_acct, treasury_acct,
	slots_per_proposal, pass_threshold_bps, dao_id,
	min_base_futarchic_liquidity, min_quote_futarchic_liquidity,
	twap_initial_observation, twap_max_observation_change_per_update,
	created_at, updated_at`

// Upsert inserts or replaces daos by dao_acct.
func (s *DaoStore) Upsert(ctx context.Context, daos []*domain.Dao) error {
	for _, d := range daos {
		if d == nil || d.DaoAcct == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO daos (` + daoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (dao_acct) DO UPDATE SET
			program_acct = EXCLUDED.program_acct,
			base_acct = EXCLUDED.base_acct,
			quote_acct = EXCLUDED.quote_acct,
			treasury_acct = EXCLUDED.treasury_acct,
			slots_per_proposal = EXCLUDED.slots_per_proposal,
			pass_threshold_bps = EXCLUDED.pass_threshold_bps,
			dao_id = EXCLUDED.dao_id,
			min_base_futarchic_liquidity = EXCLUDED.min_base_futarchic_liquidity,
			min_quote_futarchic_liquidity = EXCLUDED.min_quote_futarchic_liquidity,
			twap_initial_observation = EXCLUDED.twap_initial_observation,
			twap_max_observation_change_per_update = EXCLUDED.twap_max_observation_change_per_update,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := execBatch(ctx, s.pool, "upsert_daos", query, daos, func(d *domain.Dao) []any {
		return []any{
			d.DaoAcct, d.ProgramAcct, d.BaseAcct, d.QuoteAcct, d.TreasuryAcct,
			d.SlotsPerProposal, d.PassThresholdBps, d.DaoID,
			d.MinBaseFutarchicLiquidity, d.MinQuoteFutarchicLiquidity,
			d.TwapInitialObservation, d.TwapMaxObservationChangePerUpdate,
			d.CreatedAt, d.UpdatedAt,
		}
	})
	return err
}

// GetByAcct retrieves a dao. Returns ErrNotFound if not exists.
func (s *DaoStore) GetByAcct(ctx context.Context, daoAcct string) (*domain.Dao, error) {
	query := `SELECT ` + daoColumns + ` FROM daos WHERE dao_acct = $1`
	return queryOne(ctx, s.pool, "get_dao", query, scanDao, daoAcct)
}

// List retrieves all daos ordered by dao_acct.
func (s *DaoStore) List(ctx context.Context) ([]*domain.Dao, error) {
	query := `SELECT ` + daoColumns + ` FROM daos ORDER BY dao_acct`
	return queryRows(ctx, s.pool, "list_daos", query, scanDao)
}

func scanDao(row pgx.Row) (*domain.Dao, error) {
	var d domain.Dao
	err := row.Scan(
		&d.DaoAcct, &d.ProgramAcct, &d.BaseAcct, &d.QuoteAcct, &d.TreasuryAcct,
		&d.SlotsPerProposal, &d.PassThresholdBps, &d.DaoID,
		&d.MinBaseFutarchicLiquidity, &d.MinQuoteFutarchicLiquidity,
		&d.TwapInitialObservation, &d.TwapMaxObservationChangePerUpdate,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
