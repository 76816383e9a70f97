package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// CandleStore implements storage.CandleStore using PostgreSQL.
type CandleStore struct {
	pool *Pool
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(pool *Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

const candleColumns = `
	market_acct, candle_duration, "timestamp", organic_volume, open, high, low,
	close, candle_average, cond_market_twap`

// Upsert inserts or replaces candles by (market_acct, candle_duration, timestamp).
func (s *CandleStore) Upsert(ctx context.Context, candles []*domain.Candle) error {
	for _, c := range candles {
		if c == nil || c.MarketAcct == "" || c.Timestamp.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO candles (` + candleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (market_acct, candle_duration, "timestamp") DO UPDATE SET
			organic_volume = EXCLUDED.organic_volume,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			candle_average = EXCLUDED.candle_average,
			cond_market_twap = EXCLUDED.cond_market_twap
	`

	_, err := execBatch(ctx, s.pool, "upsert_candles", query, candles, func(c *domain.Candle) []any {
		return []any{
			c.MarketAcct, c.CandleDuration, c.Timestamp, c.OrganicVolume, c.Open, c.High, c.Low,
			c.Close, c.CandleAverage, c.CondMarketTwap,
		}
	})
	return err
}

// GetRange retrieves candles within [start, end] (inclusive), ordered by timestamp ASC.
func (s *CandleStore) GetRange(ctx context.Context, marketAcct string, duration int32, start, end time.Time) ([]*domain.Candle, error) {
	query := `
		SELECT ` + candleColumns + `
		FROM candles
		WHERE market_acct = $1 AND candle_duration = $2 AND "timestamp" >= $3 AND "timestamp" <= $4
		ORDER BY "timestamp" ASC
	`
	return queryRows(ctx, s.pool, "candle_range", query, scanCandle, marketAcct, duration, start, end)
}

func scanCandle(row pgx.Row) (*domain.Candle, error) {
	var c domain.Candle
	err := row.Scan(
		&c.MarketAcct, &c.CandleDuration, &c.Timestamp, &c.OrganicVolume, &c.Open, &c.High, &c.Low,
		&c.Close, &c.CandleAverage, &c.CondMarketTwap,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
