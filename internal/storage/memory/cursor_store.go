package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"futarchy-graph/internal/storage"
)

// CursorStore is an in-memory implementation of storage.CursorStore.
type CursorStore struct {
	mu      sync.RWMutex
	cursors map[string]*storage.Cursor
}

// NewCursorStore creates a new in-memory cursor store.
func NewCursorStore() *CursorStore {
	return &CursorStore{
		cursors: make(map[string]*storage.Cursor),
	}
}

// Get retrieves the cursor of a stream.
func (s *CursorStore) Get(_ context.Context, stream string) (*storage.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.cursors[stream]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneCursor(c), nil
}

// Set stores the cursor of a stream.
func (s *CursorStore) Set(_ context.Context, c *storage.Cursor) error {
	if err := c.Validate(); err != nil {
		return err
	}

	stored := cloneCursor(c)
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cursors[c.Stream] = stored
	return nil
}

// List retrieves all cursors ordered by stream.
func (s *CursorStore) List(_ context.Context) ([]*storage.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*storage.Cursor, 0, len(s.cursors))
	for _, c := range s.cursors {
		result = append(result, cloneCursor(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Stream < result[j].Stream })
	return result, nil
}

func cloneCursor(c *storage.Cursor) *storage.Cursor {
	out := *c
	out.Value = append([]byte(nil), c.Value...)
	return &out
}

var _ storage.CursorStore = (*CursorStore)(nil)
