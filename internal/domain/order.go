package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderSide is the side of an order book order.
type OrderSide string

const (
	OrderSideBid OrderSide = "BID"
	OrderSideAsk OrderSide = "ASK"
)

// IsValid checks if the side is a valid value.
func (s OrderSide) IsValid() bool {
	return s == OrderSideBid || s == OrderSideAsk
}

// Order represents an order placed on a conditional market.
// Corresponds to the orders table.
type Order struct {
	OrderTxSig         string          `json:"order_tx_sig"`
	MarketAcct         string          `json:"market_acct"`
	ActorAcct          string          `json:"actor_acct"`
	Side               OrderSide       `json:"side"`
	OrderBlock         int64           `json:"order_block"`
	OrderTime          time.Time       `json:"order_time"`
	CancelTxSig        *string         `json:"cancel_tx_sig"`
	CancelBlock        *int64          `json:"cancel_block"`
	CancelTime         *time.Time      `json:"cancel_time"`
	FilledBaseAmount   int64           `json:"filled_base_amount"`
	UnfilledBaseAmount int64           `json:"unfilled_base_amount"`
	QuotePrice         decimal.Decimal `json:"quote_price"`
	IsActive           bool            `json:"is_active"`
	UpdatedAt          *time.Time      `json:"updated_at"`
}

// Validate checks account keys and the side.
func (o *Order) Validate() error {
	if o.OrderTxSig == "" {
		return fmt.Errorf("%w: order has no tx signature", ErrInvalidRow)
	}
	if !o.Side.IsValid() {
		return fmt.Errorf("%w: order %s has side %q", ErrInvalidRow, o.OrderTxSig, o.Side)
	}
	return checkAccounts("market_acct", o.MarketAcct, "actor_acct", o.ActorAcct)
}

// Take represents a fill against resting liquidity. Takes are immutable.
// Corresponds to the takes table.
type Take struct {
	OrderTxSig      string          `json:"order_tx_sig"`
	BaseAmount      int64           `json:"base_amount"`
	QuotePrice      decimal.Decimal `json:"quote_price"`
	TakerBaseFee    int64           `json:"taker_base_fee"`
	TakerQuoteFee   int64           `json:"taker_quote_fee"`
	MakerOrderTxSig *string         `json:"maker_order_tx_sig"`
	MakerBaseFee    *int64          `json:"maker_base_fee"`
	MakerQuoteFee   *int64          `json:"maker_quote_fee"`
	MarketAcct      string          `json:"market_acct"`
	OrderBlock      int64           `json:"order_block"`
	OrderTime       time.Time       `json:"order_time"`
}

// Validate checks the take is attributable to a market.
func (t *Take) Validate() error {
	if t.OrderTxSig == "" {
		return fmt.Errorf("%w: take has no tx signature", ErrInvalidRow)
	}
	if t.BaseAmount < 0 {
		return fmt.Errorf("%w: take %s has negative base amount", ErrInvalidRow, t.OrderTxSig)
	}
	return checkAccounts("market_acct", t.MarketAcct)
}

// QuoteVolume is base amount times quote price.
func (t *Take) QuoteVolume() decimal.Decimal {
	return t.QuotePrice.Mul(decimal.NewFromInt(t.BaseAmount))
}
