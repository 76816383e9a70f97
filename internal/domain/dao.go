package domain

import "time"

// Dao represents a futarchy DAO.
// Corresponds to the daos table.
type Dao struct {
	DaoAcct                           string    `json:"dao_acct"`
	ProgramAcct                       string    `json:"program_acct"`
	BaseAcct                          string    `json:"base_acct"`  // base token mint
	QuoteAcct                         string    `json:"quote_acct"` // quote token mint
	TreasuryAcct                      *string   `json:"treasury_acct"`
	SlotsPerProposal                  *int64    `json:"slots_per_proposal"`
	PassThresholdBps                  *int64    `json:"pass_threshold_bps"`
	DaoID                             *int64    `json:"dao_id"` // FK to dao_details
	MinBaseFutarchicLiquidity         *int64    `json:"min_base_futarchic_liquidity"`
	MinQuoteFutarchicLiquidity        *int64    `json:"min_quote_futarchic_liquidity"`
	TwapInitialObservation            *int64    `json:"twap_initial_observation"`
	TwapMaxObservationChangePerUpdate *int64    `json:"twap_max_observation_change_per_update"`
	CreatedAt                         time.Time `json:"created_at"`
	UpdatedAt                         time.Time `json:"updated_at"`
}

// Validate checks account keys.
func (d *Dao) Validate() error {
	return checkAccounts(
		"dao_acct", d.DaoAcct,
		"program_acct", d.ProgramAcct,
		"base_acct", d.BaseAcct,
		"quote_acct", d.QuoteAcct,
		"treasury_acct", deref(d.TreasuryAcct),
	)
}
