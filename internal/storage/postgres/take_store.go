package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TakeStore implements storage.TakeStore using PostgreSQL.
type TakeStore struct {
	pool *Pool
}

// NewTakeStore creates a new TakeStore.
func NewTakeStore(pool *Pool) *TakeStore {
	return &TakeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TakeStore = (*TakeStore)(nil)

const takeColumns = `
	order_tx_sig, base_amount, quote_price, taker_base_fee, taker_quote_fee,
	maker_order_tx_sig, maker_base_fee, maker_quote_fee, market_acct,
	order_block, order_time`

// InsertBulk adds takes, skipping existing ones. Returns the number inserted.
func (s *TakeStore) InsertBulk(ctx context.Context, takes []*domain.Take) (int, error) {
	seen := make(map[string]struct{}, len(takes))
	for _, t := range takes {
		if t == nil || t.OrderTxSig == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, exists := seen[t.OrderTxSig]; exists {
			return 0, storage.ErrDuplicateKey
		}
		seen[t.OrderTxSig] = struct{}{}
	}

	query := `
		INSERT INTO takes (` + takeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (order_tx_sig) DO NOTHING
	`

	n, err := execBatch(ctx, s.pool, "insert_takes", query, takes, func(t *domain.Take) []any {
		return []any{
			t.OrderTxSig, t.BaseAmount, t.QuotePrice, t.TakerBaseFee, t.TakerQuoteFee,
			t.MakerOrderTxSig, t.MakerBaseFee, t.MakerQuoteFee, t.MarketAcct,
			t.OrderBlock, t.OrderTime,
		}
	})
	return int(n), err
}

// GetByMarket retrieves takes of a market within [start, end] (inclusive).
func (s *TakeStore) GetByMarket(ctx context.Context, marketAcct string, start, end time.Time) ([]*domain.Take, error) {
	query := `
		SELECT ` + takeColumns + `
		FROM takes
		WHERE market_acct = $1 AND order_time >= $2 AND order_time <= $3
		ORDER BY order_time ASC, order_tx_sig ASC
	`
	return queryRows(ctx, s.pool, "takes_by_market", query, scanTake, marketAcct, start, end)
}

func scanTake(row pgx.Row) (*domain.Take, error) {
	var t domain.Take
	err := row.Scan(
		&t.OrderTxSig, &t.BaseAmount, &t.QuotePrice, &t.TakerBaseFee, &t.TakerQuoteFee,
		&t.MakerOrderTxSig, &t.MakerBaseFee, &t.MakerQuoteFee, &t.MarketAcct,
		&t.OrderBlock, &t.OrderTime,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
