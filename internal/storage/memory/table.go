// Package memory provides in-memory store implementations for tests and
// for running the mirror without a database.
package memory

import (
	"sort"
	"sync"

	"futarchy-graph/internal/storage"
)

// table is a keyed set of rows. Rows are copied on the way in and out so
// callers never share memory with the store.
type table[T any] struct {
	mu   sync.RWMutex
	rows map[string]*T
	key  func(*T) string
}

func newTable[T any](key func(*T) string) *table[T] {
	return &table[T]{rows: make(map[string]*T), key: key}
}

// upsert replaces rows by key. Later rows in the batch win.
func (t *table[T]) upsert(rows []*T) error {
	for _, r := range rows {
		if r == nil || t.key(r) == "" {
			return storage.ErrInvalidInput
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, r := range rows {
		c := *r
		t.rows[t.key(r)] = &c
	}
	return nil
}

func (t *table[T]) get(key string) (*T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	r, ok := t.rows[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c := *r
	return &c, nil
}

// filter returns copies of matching rows sorted by less.
func (t *table[T]) filter(match func(*T) bool, less func(a, b *T) bool) []*T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []*T
	for _, r := range t.rows {
		if match(r) {
			c := *r
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return less(result[i], result[j]) })
	return result
}

func all[T any](*T) bool { return true }
