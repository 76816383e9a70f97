package memory

import (
	"context"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// DaoStore is an in-memory implementation of storage.DaoStore.
type DaoStore struct {
	t *table[domain.Dao]
}

// NewDaoStore creates a new in-memory dao store.
func NewDaoStore() *DaoStore {
	return &DaoStore{t: newTable(func(d *domain.Dao) string { return d.DaoAcct })}
}

// Upsert inserts or replaces daos by dao_acct.
func (s *DaoStore) Upsert(_ context.Context, daos []*domain.Dao) error {
	return s.t.upsert(daos)
}

// GetByAcct retrieves a dao. Returns ErrNotFound if not exists.
func (s *DaoStore) GetByAcct(_ context.Context, daoAcct string) (*domain.Dao, error) {
	return s.t.get(daoAcct)
}

// List retrieves all daos ordered by dao_acct.
func (s *DaoStore) List(_ context.Context) ([]*domain.Dao, error) {
	return s.t.filter(all[domain.Dao], func(a, b *domain.Dao) bool {
		return a.DaoAcct < b.DaoAcct
	}), nil
}

var _ storage.DaoStore = (*DaoStore)(nil)
