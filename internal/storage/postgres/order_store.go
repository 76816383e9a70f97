package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// OrderStore implements storage.OrderStore using PostgreSQL.
type OrderStore struct {
	pool *Pool
}

// NewOrderStore creates a new OrderStore.
func NewOrderStore(pool *Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OrderStore = (*OrderStore)(nil)

const orderColumns = `
	order_tx_sig, market_acct, actor_acct, side, order_block, order_time,
	cancel_tx_sig, cancel_block, cancel_time, filled_base_amount,
	unfilled_base_amount, quote_price, is_active, updated_at`

// Upsert inserts or replaces orders by order_tx_sig.
func (s *OrderStore) Upsert(ctx context.Context, orders []*domain.Order) error {
	for _, o := range orders {
		if o == nil || o.OrderTxSig == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (order_tx_sig) DO UPDATE SET
			market_acct = EXCLUDED.market_acct,
			actor_acct = EXCLUDED.actor_acct,
			side = EXCLUDED.side,
			order_block = EXCLUDED.order_block,
			order_time = EXCLUDED.order_time,
			cancel_tx_sig = EXCLUDED.cancel_tx_sig,
			cancel_block = EXCLUDED.cancel_block,
			cancel_time = EXCLUDED.cancel_time,
			filled_base_amount = EXCLUDED.filled_base_amount,
			unfilled_base_amount = EXCLUDED.unfilled_base_amount,
			quote_price = EXCLUDED.quote_price,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := execBatch(ctx, s.pool, "upsert_orders", query, orders, func(o *domain.Order) []any {
		return []any{
			o.OrderTxSig, o.MarketAcct, o.ActorAcct, string(o.Side), o.OrderBlock, o.OrderTime,
			o.CancelTxSig, o.CancelBlock, o.CancelTime, o.FilledBaseAmount,
			o.UnfilledBaseAmount, o.QuotePrice, o.IsActive, o.UpdatedAt,
		}
	})
	return err
}

// GetByTxSig retrieves an order. Returns ErrNotFound if not exists.
func (s *OrderStore) GetByTxSig(ctx context.Context, orderTxSig string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_tx_sig = $1`
	return queryOne(ctx, s.pool, "get_order", query, scanOrder, orderTxSig)
}

// GetActiveByMarket retrieves active orders of a market ordered by order_time ASC.
func (s *OrderStore) GetActiveByMarket(ctx context.Context, marketAcct string) ([]*domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE market_acct = $1 AND is_active
		ORDER BY order_time ASC, order_tx_sig ASC
	`
	return queryRows(ctx, s.pool, "active_orders", query, scanOrder, marketAcct)
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var side string
	err := row.Scan(
		&o.OrderTxSig, &o.MarketAcct, &o.ActorAcct, &side, &o.OrderBlock, &o.OrderTime,
		&o.CancelTxSig, &o.CancelBlock, &o.CancelTime, &o.FilledBaseAmount,
		&o.UnfilledBaseAmount, &o.QuotePrice, &o.IsActive, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.Side = domain.OrderSide(side)
	return &o, nil
}
