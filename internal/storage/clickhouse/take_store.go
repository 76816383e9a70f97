package clickhouse

import (
	"context"
	"fmt"
	"time"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TakeStore implements storage.TakeStore using ClickHouse.
// Reads use FINAL so rows replayed by a resumed stream collapse to one.
type TakeStore struct {
	conn *Conn
}

// NewTakeStore creates a new TakeStore.
func NewTakeStore(conn *Conn) *TakeStore {
	return &TakeStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TakeStore = (*TakeStore)(nil)

// InsertBulk adds takes whose order_tx_sig is not stored yet and returns how
// many were written.
func (s *TakeStore) InsertBulk(ctx context.Context, takes []*domain.Take) (n int, err error) {
	if len(takes) == 0 {
		return 0, nil
	}

	sigs := make([]string, 0, len(takes))
	seen := make(map[string]struct{}, len(takes))
	for _, t := range takes {
		if t == nil || t.OrderTxSig == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, exists := seen[t.OrderTxSig]; exists {
			return 0, storage.ErrDuplicateKey
		}
		seen[t.OrderTxSig] = struct{}{}
		sigs = append(sigs, t.OrderTxSig)
	}

	start := time.Now()
	defer func() { record("insert_takes", start, err) }()

	existing, err := s.existing(ctx, sigs)
	if err != nil {
		return 0, fmt.Errorf("check existing: %w", err)
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO takes (
			order_tx_sig, market_acct, base_amount, quote_price, taker_base_fee,
			taker_quote_fee, maker_order_tx_sig, maker_base_fee, maker_quote_fee,
			order_block, order_time
		)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range takes {
		if _, ok := existing[t.OrderTxSig]; ok {
			continue
		}
		err = batch.Append(
			t.OrderTxSig, t.MarketAcct, t.BaseAmount, t.QuotePrice, t.TakerBaseFee,
			t.TakerQuoteFee, t.MakerOrderTxSig, t.MakerBaseFee, t.MakerQuoteFee,
			uint64(t.OrderBlock), t.OrderTime,
		)
		if err != nil {
			_ = batch.Abort()
			return 0, fmt.Errorf("append to batch: %w", err)
		}
		n++
	}

	if n == 0 {
		_ = batch.Abort()
		return 0, nil
	}
	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("send batch: %w", err)
	}
	return n, nil
}

// existing returns the subset of sigs already stored.
func (s *TakeStore) existing(ctx context.Context, sigs []string) (map[string]struct{}, error) {
	rows, err := s.conn.Query(ctx, `SELECT order_tx_sig FROM takes WHERE order_tx_sig IN (?)`, sigs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[string]struct{})
	for rows.Next() {
		var sig string
		if err := rows.Scan(&sig); err != nil {
			return nil, err
		}
		found[sig] = struct{}{}
	}
	return found, rows.Err()
}

// GetByMarket retrieves takes of a market within [start, end] (inclusive).
func (s *TakeStore) GetByMarket(ctx context.Context, marketAcct string, start, end time.Time) (takes []*domain.Take, err error) {
	began := time.Now()
	defer func() { record("takes_by_market", began, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT
			order_tx_sig, market_acct, base_amount, quote_price, taker_base_fee,
			taker_quote_fee, maker_order_tx_sig, maker_base_fee, maker_quote_fee,
			order_block, order_time
		FROM takes FINAL
		WHERE market_acct = ? AND order_time >= ? AND order_time <= ?
		ORDER BY order_time ASC, order_tx_sig ASC
	`, marketAcct, start, end)
	if err != nil {
		return nil, fmt.Errorf("query takes by market: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Take
		var block uint64
		err := rows.Scan(
			&t.OrderTxSig, &t.MarketAcct, &t.BaseAmount, &t.QuotePrice, &t.TakerBaseFee,
			&t.TakerQuoteFee, &t.MakerOrderTxSig, &t.MakerBaseFee, &t.MakerQuoteFee,
			&block, &t.OrderTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan take row: %w", err)
		}
		t.OrderBlock = int64(block)
		takes = append(takes, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate take rows: %w", err)
	}
	return takes, nil
}
