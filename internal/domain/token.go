package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Token represents an SPL token mint.
// Corresponds to the tokens table.
type Token struct {
	MintAcct  string    `json:"mint_acct"`
	Name      string    `json:"name"`
	Symbol    string    `json:"symbol"`
	Supply    int64     `json:"supply"`
	Decimals  int16     `json:"decimals"`
	UpdatedAt time.Time `json:"updated_at"`
	ImageURL  *string   `json:"image_url"`
}

// Validate checks the mint key and decimals.
func (t *Token) Validate() error {
	if t.Decimals < 0 || t.Decimals > 18 {
		return fmt.Errorf("%w: token %s has %d decimals", ErrInvalidRow, t.MintAcct, t.Decimals)
	}
	return checkAccounts("mint_acct", t.MintAcct)
}

// UIAmount converts a raw token amount to its decimal representation.
func (t *Token) UIAmount(raw int64) decimal.Decimal {
	return decimal.New(raw, -int32(t.Decimals))
}
