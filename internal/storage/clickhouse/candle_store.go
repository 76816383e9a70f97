package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// CandleStore implements storage.CandleStore using ClickHouse.
// Upserts append a new version; reads use FINAL to see the latest one.
type CandleStore struct {
	conn *Conn
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(conn *Conn) *CandleStore {
	return &CandleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// Upsert writes candles. Duplicate buckets inside one batch keep the last row.
func (s *CandleStore) Upsert(ctx context.Context, candles []*domain.Candle) (err error) {
	if len(candles) == 0 {
		return nil
	}
	for _, c := range candles {
		if c == nil || c.MarketAcct == "" || c.Timestamp.IsZero() || c.CandleDuration <= 0 {
			return storage.ErrInvalidInput
		}
	}

	start := time.Now()
	defer func() { record("upsert_candles", start, err) }()

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO candles (
			market_acct, candle_duration, timestamp, organic_volume, open, high,
			low, close, candle_average, cond_market_twap, version
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	// Versions increase through the batch so later rows win the merge.
	version := time.Now().UTC()
	for i, c := range candles {
		err = batch.Append(
			c.MarketAcct, uint32(c.CandleDuration), c.Timestamp, c.OrganicVolume,
			nullable(c.Open), nullable(c.High), nullable(c.Low), nullable(c.Close),
			nullable(c.CandleAverage), nullable(c.CondMarketTwap),
			version.Add(time.Duration(i)*time.Microsecond),
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetRange retrieves candles within [start, end] (inclusive), ordered by timestamp ASC.
func (s *CandleStore) GetRange(ctx context.Context, marketAcct string, duration int32, start, end time.Time) (candles []*domain.Candle, err error) {
	began := time.Now()
	defer func() { record("candle_range", began, err) }()

	rows, err := s.conn.Query(ctx, `
		SELECT
			market_acct, candle_duration, timestamp, organic_volume, open, high,
			low, close, candle_average, cond_market_twap
		FROM candles FINAL
		WHERE market_acct = ? AND candle_duration = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, marketAcct, uint32(duration), start, end)
	if err != nil {
		return nil, fmt.Errorf("query candle range: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c domain.Candle
		var dur uint32
		var open, high, low, closePrice, avg, twap *decimal.Decimal
		err := rows.Scan(
			&c.MarketAcct, &dur, &c.Timestamp, &c.OrganicVolume, &open, &high,
			&low, &closePrice, &avg, &twap,
		)
		if err != nil {
			return nil, fmt.Errorf("scan candle row: %w", err)
		}
		c.CandleDuration = int32(dur)
		c.Open, c.High, c.Low, c.Close = fromNullable(open), fromNullable(high), fromNullable(low), fromNullable(closePrice)
		c.CandleAverage, c.CondMarketTwap = fromNullable(avg), fromNullable(twap)
		candles = append(candles, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candle rows: %w", err)
	}
	return candles, nil
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func fromNullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}
