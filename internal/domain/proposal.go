package domain

import (
	"fmt"
	"time"
)

// ProposalStatus is the lifecycle state of a proposal.
type ProposalStatus string

const (
	ProposalStatusDraft    ProposalStatus = "Draft"
	ProposalStatusPending  ProposalStatus = "Pending"
	ProposalStatusPassed   ProposalStatus = "Passed"
	ProposalStatusFailed   ProposalStatus = "Failed"
	ProposalStatusExecuted ProposalStatus = "Executed"
)

// String returns the string representation of ProposalStatus.
func (s ProposalStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s ProposalStatus) IsValid() bool {
	switch s {
	case ProposalStatusDraft, ProposalStatusPending, ProposalStatusPassed,
		ProposalStatusFailed, ProposalStatusExecuted:
		return true
	}
	return false
}

// IsFinal reports whether the proposal can no longer change state.
func (s ProposalStatus) IsFinal() bool {
	return s == ProposalStatusFailed || s == ProposalStatusExecuted
}

// Proposal represents a futarchy proposal with its pass/fail markets.
// Corresponds to the proposals table.
type Proposal struct {
	ProposalAcct     string         `json:"proposal_acct"`
	ProposalNum      int64          `json:"proposal_num"`
	AutocratVersion  float64        `json:"autocrat_version"`
	ProposerAcct     string         `json:"proposer_acct"`
	InitialSlot      int64          `json:"initial_slot"`
	EndSlot          *int64         `json:"end_slot"`
	Status           ProposalStatus `json:"status"`
	DescriptionURL   *string        `json:"description_url"`
	PassMarketAcct   *string        `json:"pass_market_acct"`
	FailMarketAcct   *string        `json:"fail_market_acct"`
	BaseVault        *string        `json:"base_vault"`
	QuoteVault       *string        `json:"quote_vault"`
	DaoAcct          string         `json:"dao_acct"`
	DurationInSlots  *int64         `json:"duration_in_slots"`
	PassThresholdBps *int64         `json:"pass_threshold_bps"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	EndedAt          *time.Time     `json:"ended_at"`
	CompletedAt      *time.Time     `json:"completed_at"`
}

// Validate checks account keys and the status value.
func (p *Proposal) Validate() error {
	if !p.Status.IsValid() {
		return fmt.Errorf("%w: proposal %s has status %q", ErrInvalidRow, p.ProposalAcct, p.Status)
	}
	return checkAccounts(
		"proposal_acct", p.ProposalAcct,
		"proposer_acct", p.ProposerAcct,
		"dao_acct", p.DaoAcct,
		"pass_market_acct", deref(p.PassMarketAcct),
		"fail_market_acct", deref(p.FailMarketAcct),
		"base_vault", deref(p.BaseVault),
		"quote_vault", deref(p.QuoteVault),
	)
}
