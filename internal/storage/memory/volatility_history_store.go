package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// VolatilityHistoryStore is an in-memory implementation of storage.VolatilityHistoryStore.
type VolatilityHistoryStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.VolatilitySummary // keyed by ticker
}

// NewVolatilityHistoryStore creates a new in-memory volatility history store.
func NewVolatilityHistoryStore() *VolatilityHistoryStore {
	return &VolatilityHistoryStore{
		data: make(map[string][]*domain.VolatilitySummary),
	}
}

// InsertBulk appends summaries.
func (s *VolatilityHistoryStore) InsertBulk(_ context.Context, summaries []*domain.VolatilitySummary) error {
	for _, v := range summaries {
		if v == nil || v.Ticker == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range summaries {
		s.data[v.Ticker] = append(s.data[v.Ticker], copySummary(v))
	}
	return nil
}

// GetByTicker retrieves the history of a ticker, ordered by computed_at ASC.
func (s *VolatilityHistoryStore) GetByTicker(_ context.Context, ticker string) ([]*domain.VolatilitySummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.VolatilitySummary, 0, len(s.data[ticker]))
	for _, v := range s.data[ticker] {
		result = append(result, copySummary(v))
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ComputedAt.Before(result[j].ComputedAt)
	})
	return result, nil
}

var _ storage.VolatilityHistoryStore = (*VolatilityHistoryStore)(nil)
