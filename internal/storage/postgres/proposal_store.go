package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// ProposalStore implements storage.ProposalStore using PostgreSQL.
type ProposalStore struct {
	pool *Pool
}

// NewProposalStore creates a new ProposalStore.
func NewProposalStore(pool *Pool) *ProposalStore {
	return &ProposalStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProposalStore = (*ProposalStore)(nil)

const proposalColumns = `
	proposal_acct, proposal_num, autocrat_version, proposer_acct, initial_slot,
	end_slot, status, description_url, pass_market_acct, fail_market_acct,
	base_vault, quote_vault, dao_acct, duration_in_slots, pass_threshold_bps,
	created_at, updated_at, ended_at, completed_at`

// Upsert inserts or replaces proposals by proposal_acct.
func (s *ProposalStore) Upsert(ctx context.Context, proposals []*domain.Proposal) error {
	for _, p := range proposals {
		if p == nil || p.ProposalAcct == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (proposal_acct) DO UPDATE SET
			proposal_num = EXCLUDED.proposal_num,
			autocrat_version = EXCLUDED.autocrat_version,
			proposer_acct = EXCLUDED.proposer_acct,
			initial_slot = EXCLUDED.initial_slot,
			end_slot = EXCLUDED.end_slot,
			status = EXCLUDED.status,
			description_url = EXCLUDED.description_url,
			pass_market_acct = EXCLUDED.pass_market_acct,
			fail_market_acct = EXCLUDED.fail_market_acct,
			base_vault = EXCLUDED.base_vault,
			quote_vault = EXCLUDED.quote_vault,
			dao_acct = EXCLUDED.dao_acct,
			duration_in_slots = EXCLUDED.duration_in_slots,
			pass_threshold_bps = EXCLUDED.pass_threshold_bps,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			ended_at = EXCLUDED.ended_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err := execBatch(ctx, s.pool, "upsert_proposals", query, proposals, func(p *domain.Proposal) []any {
		return []any{
			p.ProposalAcct, p.ProposalNum, p.AutocratVersion, p.ProposerAcct, p.InitialSlot,
			p.EndSlot, string(p.Status), p.DescriptionURL, p.PassMarketAcct, p.FailMarketAcct,
			p.BaseVault, p.QuoteVault, p.DaoAcct, p.DurationInSlots, p.PassThresholdBps,
			p.CreatedAt, p.UpdatedAt, p.EndedAt, p.CompletedAt,
		}
	})
	return err
}

// GetByAcct retrieves a proposal. Returns ErrNotFound if not exists.
func (s *ProposalStore) GetByAcct(ctx context.Context, proposalAcct string) (*domain.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE proposal_acct = $1`
	return queryOne(ctx, s.pool, "get_proposal", query, scanProposal, proposalAcct)
}

// GetByDao retrieves the proposals of a dao ordered by proposal_num ASC.
func (s *ProposalStore) GetByDao(ctx context.Context, daoAcct string) ([]*domain.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE dao_acct = $1
		ORDER BY proposal_num ASC, proposal_acct ASC
	`
	return queryRows(ctx, s.pool, "proposals_by_dao", query, scanProposal, daoAcct)
}

// GetByStatus retrieves proposals in a status ordered by created_at ASC.
func (s *ProposalStore) GetByStatus(ctx context.Context, status domain.ProposalStatus) ([]*domain.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE status = $1
		ORDER BY created_at ASC, proposal_acct ASC
	`
	return queryRows(ctx, s.pool, "proposals_by_status", query, scanProposal, string(status))
}

func scanProposal(row pgx.Row) (*domain.Proposal, error) {
	var p domain.Proposal
	var status string
	err := row.Scan(
		&p.ProposalAcct, &p.ProposalNum, &p.AutocratVersion, &p.ProposerAcct, &p.InitialSlot,
		&p.EndSlot, &status, &p.DescriptionURL, &p.PassMarketAcct, &p.FailMarketAcct,
		&p.BaseVault, &p.QuoteVault, &p.DaoAcct, &p.DurationInSlots, &p.PassThresholdBps,
		&p.CreatedAt, &p.UpdatedAt, &p.EndedAt, &p.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ProposalStatus(status)
	return &p, nil
}
