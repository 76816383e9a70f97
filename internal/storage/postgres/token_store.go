package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or replaces tokens by mint_acct.
func (s *TokenStore) Upsert(ctx context.Context, tokens []*domain.Token) error {
	for _, t := range tokens {
		if t == nil || t.MintAcct == "" {
			return storage.ErrInvalidInput
		}
	}

	query := `
		INSERT INTO tokens (mint_acct, name, symbol, supply, decimals, updated_at, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (mint_acct) DO UPDATE SET
			name = EXCLUDED.name,
			symbol = EXCLUDED.symbol,
			supply = EXCLUDED.supply,
			decimals = EXCLUDED.decimals,
			updated_at = EXCLUDED.updated_at,
			image_url = EXCLUDED.image_url
	`

	_, err := execBatch(ctx, s.pool, "upsert_tokens", query, tokens, func(t *domain.Token) []any {
		return []any{t.MintAcct, t.Name, t.Symbol, t.Supply, t.Decimals, t.UpdatedAt, t.ImageURL}
	})
	return err
}

// GetByMint retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mintAcct string) (*domain.Token, error) {
	query := `
		SELECT mint_acct, name, symbol, supply, decimals, updated_at, image_url
		FROM tokens
		WHERE mint_acct = $1
	`
	return queryOne(ctx, s.pool, "get_token", query, func(row pgx.Row) (*domain.Token, error) {
		var t domain.Token
		if err := row.Scan(&t.MintAcct, &t.Name, &t.Symbol, &t.Supply, &t.Decimals, &t.UpdatedAt, &t.ImageURL); err != nil {
			return nil, err
		}
		return &t, nil
	}, mintAcct)
}
