package memory

import (
	"context"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// ProposalStore is an in-memory implementation of storage.ProposalStore.
type ProposalStore struct {
	t *table[domain.Proposal]
}

// NewProposalStore creates a new in-memory proposal store.
func NewProposalStore() *ProposalStore {
	return &ProposalStore{t: newTable(func(p *domain.Proposal) string { return p.ProposalAcct })}
}

// Upsert inserts or replaces proposals by proposal_acct.
func (s *ProposalStore) Upsert(_ context.Context, proposals []*domain.Proposal) error {
	return s.t.upsert(proposals)
}

// GetByAcct retrieves a proposal. Returns ErrNotFound if not exists.
func (s *ProposalStore) GetByAcct(_ context.Context, proposalAcct string) (*domain.Proposal, error) {
	return s.t.get(proposalAcct)
}

// GetByDao retrieves the proposals of a dao ordered by proposal_num ASC.
func (s *ProposalStore) GetByDao(_ context.Context, daoAcct string) ([]*domain.Proposal, error) {
	return s.t.filter(
		func(p *domain.Proposal) bool { return p.DaoAcct == daoAcct },
		func(a, b *domain.Proposal) bool {
			if a.ProposalNum != b.ProposalNum {
				return a.ProposalNum < b.ProposalNum
			}
			return a.ProposalAcct < b.ProposalAcct
		},
	), nil
}

// GetByStatus retrieves proposals in a status ordered by created_at ASC.
func (s *ProposalStore) GetByStatus(_ context.Context, status domain.ProposalStatus) ([]*domain.Proposal, error) {
	return s.t.filter(
		func(p *domain.Proposal) bool { return p.Status == status },
		func(a, b *domain.Proposal) bool {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ProposalAcct < b.ProposalAcct
		},
	), nil
}

var _ storage.ProposalStore = (*ProposalStore)(nil)
