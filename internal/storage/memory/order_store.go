package memory

import (
	"context"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// OrderStore is an in-memory implementation of storage.OrderStore.
type OrderStore struct {
	t *table[domain.Order]
}

// NewOrderStore creates a new in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{t: newTable(func(o *domain.Order) string { return o.OrderTxSig })}
}

// Upsert inserts or replaces orders by order_tx_sig.
func (s *OrderStore) Upsert(_ context.Context, orders []*domain.Order) error {
	return s.t.upsert(orders)
}

// GetByTxSig retrieves an order. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByTxSig(_ context.Context, orderTxSig string) (*domain.Order, error) {
	return s.t.get(orderTxSig)
}

// GetActiveByMarket retrieves active orders of a market ordered by order_time ASC.
func (s *OrderStore) GetActiveByMarket(_ context.Context, marketAcct string) ([]*domain.Order, error) {
	return s.t.filter(
		func(o *domain.Order) bool { return o.IsActive && o.MarketAcct == marketAcct },
		func(a, b *domain.Order) bool {
			if !a.OrderTime.Equal(b.OrderTime) {
				return a.OrderTime.Before(b.OrderTime)
			}
			return a.OrderTxSig < b.OrderTxSig
		},
	), nil
}

var _ storage.OrderStore = (*OrderStore)(nil)
