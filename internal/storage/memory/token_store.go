package memory

import (
	"context"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	t *table[domain.Token]
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{t: newTable(func(tok *domain.Token) string { return tok.MintAcct })}
}

// Upsert inserts or replaces tokens by mint_acct.
func (s *TokenStore) Upsert(_ context.Context, tokens []*domain.Token) error {
	return s.t.upsert(tokens)
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mintAcct string) (*domain.Token, error) {
	return s.t.get(mintAcct)
}

var _ storage.TokenStore = (*TokenStore)(nil)
