package memory

import (
	"context"
	"fmt"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TwapStore is an in-memory implementation of storage.TwapStore.
type TwapStore struct {
	t *table[domain.Twap]
}

// NewTwapStore creates a new in-memory twap store.
func NewTwapStore() *TwapStore {
	return &TwapStore{t: newTable(func(tw *domain.Twap) string {
		if tw.MarketAcct == "" {
			return ""
		}
		return fmt.Sprintf("%s|%d", tw.MarketAcct, tw.UpdatedSlot)
	})}
}

// Upsert inserts or replaces twaps by (market_acct, updated_slot).
func (s *TwapStore) Upsert(_ context.Context, twaps []*domain.Twap) error {
	return s.t.upsert(twaps)
}

// GetByMarket retrieves observations of a market ordered by updated_slot ASC.
func (s *TwapStore) GetByMarket(_ context.Context, marketAcct string) ([]*domain.Twap, error) {
	return s.t.filter(
		func(tw *domain.Twap) bool { return tw.MarketAcct == marketAcct },
		func(a, b *domain.Twap) bool { return a.UpdatedSlot < b.UpdatedSlot },
	), nil
}

// Latest retrieves the observation with the highest updated_slot.
func (s *TwapStore) Latest(ctx context.Context, marketAcct string) (*domain.Twap, error) {
	twaps, _ := s.GetByMarket(ctx, marketAcct)
	if len(twaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return twaps[len(twaps)-1], nil
}

var _ storage.TwapStore = (*TwapStore)(nil)
