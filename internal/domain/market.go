package domain

import "fmt"

// MarketType is the venue backing a conditional market.
type MarketType string

const (
	MarketTypeOpenbookV2 MarketType = "openbook_v2"
	MarketTypeAmm        MarketType = "amm"
)

// IsValid checks if the market type is a valid value.
func (m MarketType) IsValid() bool {
	return m == MarketTypeOpenbookV2 || m == MarketTypeAmm
}

// Market represents a pass or fail market of a proposal.
// Corresponds to the markets table.
type Market struct {
	MarketAcct    string     `json:"market_acct"`
	MarketType    MarketType `json:"market_type"`
	CreateTxSig   string     `json:"create_tx_sig"`
	ProposalAcct  *string    `json:"proposal_acct"`
	BaseMintAcct  string     `json:"base_mint_acct"`
	QuoteMintAcct string     `json:"quote_mint_acct"`
	BaseLotSize   int64      `json:"base_lot_size"`
	QuoteLotSize  int64      `json:"quote_lot_size"`
	QuoteTickSize int64      `json:"quote_tick_size"`
	BidsAcct      *string    `json:"bids_acct"`
	AsksAcct      *string    `json:"asks_acct"`
	InactiveSlot  *int64     `json:"inactive_slot"`
	CreatedAtSlot int64      `json:"created_at_slot"`
	BaseMakerFee  int16      `json:"base_maker_fee"`
	BaseTakerFee  int16      `json:"base_taker_fee"`
	QuoteMakerFee int64      `json:"quote_maker_fee"`
	QuoteTakerFee int64      `json:"quote_taker_fee"`
	ActiveSlot    *int64     `json:"active_slot"`
}

// Validate checks account keys and the market type.
func (m *Market) Validate() error {
	if !m.MarketType.IsValid() {
		return fmt.Errorf("%w: market %s has type %q", ErrInvalidRow, m.MarketAcct, m.MarketType)
	}
	return checkAccounts(
		"market_acct", m.MarketAcct,
		"proposal_acct", deref(m.ProposalAcct),
		"base_mint_acct", m.BaseMintAcct,
		"quote_mint_acct", m.QuoteMintAcct,
		"bids_acct", deref(m.BidsAcct),
		"asks_acct", deref(m.AsksAcct),
	)
}
