package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu   sync.RWMutex
	data map[string]map[int64]*domain.PricePoint // symbol -> unix day -> point
}

// NewPriceStore creates a new in-memory price store.
func NewPriceStore() *PriceStore {
	return &PriceStore{
		data: make(map[string]map[int64]*domain.PricePoint),
	}
}

// InsertBulk upserts multiple points keyed by (symbol, date).
func (s *PriceStore) InsertBulk(_ context.Context, points []*domain.PricePoint) error {
	for _, p := range points {
		if p == nil || p.Symbol == "" || p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		series, ok := s.data[p.Symbol]
		if !ok {
			series = make(map[int64]*domain.PricePoint)
			s.data[p.Symbol] = series
		}
		copy := *p
		series[p.Date.Unix()] = &copy
	}
	return nil
}

// GetByRange retrieves points for a symbol within [start, end] (inclusive), ordered by date ASC.
func (s *PriceStore) GetByRange(_ context.Context, symbol string, start, end time.Time) ([]*domain.PricePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PricePoint
	for _, p := range s.data[symbol] {
		if p.Date.Before(start) || p.Date.After(end) {
			continue
		}
		copy := *p
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

var _ storage.PriceStore = (*PriceStore)(nil)
