package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TwapStore implements storage.TwapStore using PostgreSQL.
type TwapStore struct {
	pool *Pool
}

// NewTwapStore creates a new TwapStore.
func NewTwapStore(pool *Pool) *TwapStore {
	return &TwapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TwapStore = (*TwapStore)(nil)

const twapColumns = `
	market_acct, proposal_acct, updated_slot, observation_agg, last_observation,
	last_price, token_amount, created_at`

// Upsert inserts or replaces twaps by (market_acct, updated_slot).
func (s *TwapStore) Upsert(ctx context.Context, twaps []*domain.Twap) error {
	for _, t := range twaps {
		if t == nil || t.MarketAcct == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO twaps (` + twapColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (market_acct, updated_slot) DO UPDATE SET
			proposal_acct = EXCLUDED.proposal_acct,
			observation_agg = EXCLUDED.observation_agg,
			last_observation = EXCLUDED.last_observation,
			last_price = EXCLUDED.last_price,
			token_amount = EXCLUDED.token_amount,
			created_at = EXCLUDED.created_at
	`

	_, err := execBatch(ctx, s.pool, "upsert_twaps", query, twaps, func(t *domain.Twap) []any {
		return []any{
			t.MarketAcct, t.ProposalAcct, t.UpdatedSlot, t.ObservationAgg, t.LastObservation,
			t.LastPrice, t.TokenAmount, t.CreatedAt,
		}
	})
	return err
}

// GetByMarket retrieves observations of a market ordered by updated_slot ASC.
func (s *TwapStore) GetByMarket(ctx context.Context, marketAcct string) ([]*domain.Twap, error) {
	query := `SELECT ` + twapColumns + ` FROM twaps WHERE market_acct = $1 ORDER BY updated_slot ASC`
	return queryRows(ctx, s.pool, "twaps_by_market", query, scanTwap, marketAcct)
}

// Latest retrieves the observation with the highest updated_slot.
func (s *TwapStore) Latest(ctx context.Context, marketAcct string) (*domain.Twap, error) {
	query := `SELECT ` + twapColumns + ` FROM twaps WHERE market_acct = $1 ORDER BY updated_slot DESC LIMIT 1`
	return queryOne(ctx, s.pool, "latest_twap", query, scanTwap, marketAcct)
}

func scanTwap(row pgx.Row) (*domain.Twap, error) {
	var t domain.Twap
	err := row.Scan(
		&t.MarketAcct, &t.ProposalAcct, &t.UpdatedSlot, &t.ObservationAgg, &t.LastObservation,
		&t.LastPrice, &t.TokenAmount, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
