package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Candle is an OHLC bucket for a market.
// Corresponds to the candles table, keyed by (market_acct, candle_duration, timestamp).
type Candle struct {
	MarketAcct     string              `json:"market_acct"`
	CandleDuration int32               `json:"candle_duration"` // seconds
	Timestamp      time.Time           `json:"timestamp"`       // bucket start
	OrganicVolume  int64               `json:"organic_volume"`
	Open           decimal.NullDecimal `json:"open"`
	High           decimal.NullDecimal `json:"high"`
	Low            decimal.NullDecimal `json:"low"`
	Close          decimal.NullDecimal `json:"close"`
	CandleAverage  decimal.NullDecimal `json:"candle_average"`
	CondMarketTwap decimal.NullDecimal `json:"cond_market_twap"`
}

// Validate checks the bucket key.
func (c *Candle) Validate() error {
	if c.CandleDuration <= 0 {
		return fmt.Errorf("%w: candle duration %d", ErrInvalidRow, c.CandleDuration)
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("%w: candle has no timestamp", ErrInvalidRow)
	}
	return checkAccounts("market_acct", c.MarketAcct)
}

// Twap is an on-chain TWAP oracle observation for a market.
// Corresponds to the twaps table, keyed by (market_acct, updated_slot).
type Twap struct {
	MarketAcct      string              `json:"market_acct"`
	ProposalAcct    string              `json:"proposal_acct"`
	UpdatedSlot     int64               `json:"updated_slot"`
	ObservationAgg  decimal.Decimal     `json:"observation_agg"`
	LastObservation decimal.NullDecimal `json:"last_observation"`
	LastPrice       decimal.NullDecimal `json:"last_price"`
	TokenAmount     *int64              `json:"token_amount"`
	CreatedAt       time.Time           `json:"created_at"`
}

// Validate checks account keys.
func (t *Twap) Validate() error {
	return checkAccounts("market_acct", t.MarketAcct, "proposal_acct", t.ProposalAcct)
}
