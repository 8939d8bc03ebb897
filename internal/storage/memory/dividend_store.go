package memory

import (
	"context"
	"sync"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// DividendStore is an in-memory implementation of storage.DividendStore.
type DividendStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.DividendEvent // keyed by ticker, ex_date ASC
}

// NewDividendStore creates a new in-memory processed dividend store.
func NewDividendStore() *DividendStore {
	return &DividendStore{
		data: make(map[string][]*domain.DividendEvent),
	}
}

// WriteDividendBatch replaces the processed series of a ticker.
func (s *DividendStore) WriteDividendBatch(_ context.Context, ticker string, events []*domain.DividendEvent) (int, error) {
	if ticker == "" {
		return 0, storage.ErrInvalidInput
	}
	for _, e := range events {
		if e == nil || e.ID == "" || e.Ticker != ticker {
			return 0, storage.ErrInvalidInput
		}
	}

	series := make([]*domain.DividendEvent, 0, len(events))
	for _, e := range events {
		series = append(series, copyEvent(e))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[ticker] = series
	return len(series), nil
}

// GetByTicker retrieves the processed series of a ticker, ordered by ex_date ASC.
func (s *DividendStore) GetByTicker(_ context.Context, ticker string) ([]*domain.DividendEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[ticker]
	result := make([]*domain.DividendEvent, 0, len(series))
	for _, e := range series {
		result = append(result, copyEvent(e))
	}
	return result, nil
}

func copyEvent(e *domain.DividendEvent) *domain.DividendEvent {
	copy := *e
	if e.DaysSincePrev != nil {
		days := *e.DaysSincePrev
		copy.DaysSincePrev = &days
	}
	return &copy
}

var _ storage.DividendStore = (*DividendStore)(nil)
