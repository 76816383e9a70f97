package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"futarchy-graph/internal/domain"
	"futarchy-graph/internal/storage"
)

// TakeStore is an in-memory implementation of storage.TakeStore.
type TakeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Take // keyed by order_tx_sig
}

// NewTakeStore creates a new in-memory take store.
func NewTakeStore() *TakeStore {
	return &TakeStore{
		data: make(map[string]*domain.Take),
	}
}

// InsertBulk adds takes, skipping existing ones. Returns the number inserted.
func (s *TakeStore) InsertBulk(_ context.Context, takes []*domain.Take) (int, error) {
	if len(takes) == 0 {
		return 0, nil
	}

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(takes))
	for _, take := range takes {
		if take == nil || take.OrderTxSig == "" {
			return 0, storage.ErrInvalidInput
		}
		if _, exists := batchKeys[take.OrderTxSig]; exists {
			return 0, storage.ErrDuplicateKey
		}
		batchKeys[take.OrderTxSig] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, take := range takes {
		if _, exists := s.data[take.OrderTxSig]; exists {
			continue
		}
		c := *take
		s.data[take.OrderTxSig] = &c
		inserted++
	}
	return inserted, nil
}

// GetByMarket retrieves takes of a market within [start, end] (inclusive).
func (s *TakeStore) GetByMarket(_ context.Context, marketAcct string, start, end time.Time) ([]*domain.Take, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Take
	for _, take := range s.data {
		if take.MarketAcct != marketAcct || take.OrderTime.Before(start) || take.OrderTime.After(end) {
			continue
		}
		c := *take
		result = append(result, &c)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].OrderTime.Equal(result[j].OrderTime) {
			return result[i].OrderTime.Before(result[j].OrderTime)
		}
		return result[i].OrderTxSig < result[j].OrderTxSig
	})

	return result, nil
}

var _ storage.TakeStore = (*TakeStore)(nil)
