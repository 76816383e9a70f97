package memory

import (
	"context"
	"fmt"
	"time"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	t *table[domain.Candle]
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{t: newTable(candleKey)}
}

// candleKey generates a unique key for a candle bucket.
func candleKey(c *domain.Candle) string {
	if c.MarketAcct == "" || c.Timestamp.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s|%d|%d", c.MarketAcct, c.CandleDuration, c.Timestamp.UnixNano())
}

// Upsert inserts or replaces candles by bucket.
func (s *CandleStore) Upsert(_ context.Context, candles []*domain.Candle) error {
	return s.t.upsert(candles)
}

// GetRange retrieves candles within [start, end] (inclusive), ordered by timestamp ASC.
func (s *CandleStore) GetRange(_ context.Context, marketAcct string, duration int32, start, end time.Time) ([]*domain.Candle, error) {
	return s.t.filter(
		func(c *domain.Candle) bool {
			return c.MarketAcct == marketAcct && c.CandleDuration == duration &&
				!c.Timestamp.Before(start) && !c.Timestamp.After(end)
		},
		func(a, b *domain.Candle) bool { return a.Timestamp.Before(b.Timestamp) },
	), nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
