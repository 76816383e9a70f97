package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// MarketStore implements storage.MarketStore using PostgreSQL.
type MarketStore struct {
	pool *Pool
}

// NewMarketStore creates a new MarketStore.
func NewMarketStore(pool *Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MarketStore = (*MarketStore)(nil)

const marketColumns = `
	market_acct, market_type, create_tx_sig, proposal_acct, base_mint_acct,
	quote_mint_acct, base_lot_size, quote_lot_size, quote_tick_size, bids_acct,
	asks_acct, inactive_slot, created_at_slot, base_maker_fee, base_taker_fee,
	quote_maker_fee, quote_taker_fee, active_slot`

// Upsert inserts or replaces markets by market_acct.
func (s *MarketStore) Upsert(ctx context.Context, markets []*domain.Market) error {
	for _, m := range markets {
		if m == nil || m.MarketAcct == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO markets (` + marketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (market_acct) DO UPDATE SET
			market_type = EXCLUDED.market_type,
			create_tx_sig = EXCLUDED.create_tx_sig,
			proposal_acct = EXCLUDED.proposal_acct,
			base_mint_acct = EXCLUDED.base_mint_acct,
			quote_mint_acct = EXCLUDED.quote_mint_acct,
			base_lot_size = EXCLUDED.base_lot_size,
			quote_lot_size = EXCLUDED.quote_lot_size,
			quote_tick_size = EXCLUDED.quote_tick_size,
			bids_acct = EXCLUDED.bids_acct,
			asks_acct = EXCLUDED.asks_acct,
			inactive_slot = EXCLUDED.inactive_slot,
			created_at_slot = EXCLUDED.created_at_slot,
			base_maker_fee = EXCLUDED.base_maker_fee,
			base_taker_fee = EXCLUDED.base_taker_fee,
			quote_maker_fee = EXCLUDED.quote_maker_fee,
			quote_taker_fee = EXCLUDED.quote_taker_fee,
			active_slot = EXCLUDED.active_slot
	`

	_, err := execBatch(ctx, s.pool, "upsert_markets", query, markets, func(m *domain.Market) []any {
		return []any{
			m.MarketAcct, string(m.MarketType), m.CreateTxSig, m.ProposalAcct, m.BaseMintAcct,
			m.QuoteMintAcct, m.BaseLotSize, m.QuoteLotSize, m.QuoteTickSize, m.BidsAcct,
			m.AsksAcct, m.InactiveSlot, m.CreatedAtSlot, m.BaseMakerFee, m.BaseTakerFee,
			m.QuoteMakerFee, m.QuoteTakerFee, m.ActiveSlot,
		}
	})
	return err
}

// GetByAcct retrieves a market. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByAcct(ctx context.Context, marketAcct string) (*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE market_acct = $1`
	return queryOne(ctx, s.pool, "get_market", query, scanMarket, marketAcct)
}

// GetByProposal retrieves the markets of a proposal ordered by market_acct.
func (s *MarketStore) GetByProposal(ctx context.Context, proposalAcct string) ([]*domain.Market, error) {
	query := `SELECT ` + marketColumns + ` FROM markets WHERE proposal_acct = $1 ORDER BY market_acct`
	return queryRows(ctx, s.pool, "markets_by_proposal", query, scanMarket, proposalAcct)
}

func scanMarket(row pgx.Row) (*domain.Market, error) {
	var m domain.Market
	var marketType string
	err := row.Scan(
		&m.MarketAcct, &marketType, &m.CreateTxSig, &m.ProposalAcct, &m.BaseMintAcct,
		&m.QuoteMintAcct, &m.BaseLotSize, &m.QuoteLotSize, &m.QuoteTickSize, &m.BidsAcct,
		&m.AsksAcct, &m.InactiveSlot, &m.CreatedAtSlot, &m.BaseMakerFee, &m.BaseTakerFee,
		&m.QuoteMakerFee, &m.QuoteTakerFee, &m.ActiveSlot,
	)
	if err != nil {
		return nil, err
	}
	m.MarketType = domain.MarketType(marketType)
	return &m, nil
}
