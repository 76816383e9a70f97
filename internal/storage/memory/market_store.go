package memory

import (
	"context"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// MarketStore is an in-memory implementation of storage.MarketStore.
type MarketStore struct {
	t *table[domain.Market]
}

// NewMarketStore creates a new in-memory market store.
func NewMarketStore() *MarketStore {
	return &MarketStore{t: newTable(func(m *domain.Market) string { return m.MarketAcct })}
}

// Upsert inserts or replaces markets by market_acct.
func (s *MarketStore) Upsert(_ context.Context, markets []*domain.Market) error {
	return s.t.upsert(markets)
}

// GetByAcct retrieves a market. Returns ErrNotFound if not exists.
func (s *MarketStore) GetByAcct(_ context.Context, marketAcct string) (*domain.Market, error) {
	return s.t.get(marketAcct)
}

// GetByProposal retrieves the markets of a proposal ordered by market_acct.
func (s *MarketStore) GetByProposal(_ context.Context, proposalAcct string) ([]*domain.Market, error) {
	return s.t.filter(
		func(m *domain.Market) bool { return m.ProposalAcct != nil && *m.ProposalAcct == proposalAcct },
		func(a, b *domain.Market) bool { return a.MarketAcct < b.MarketAcct },
	), nil
}

var _ storage.MarketStore = (*MarketStore)(nil)
