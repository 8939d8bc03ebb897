package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// RawDividendStore is an in-memory implementation of storage.RawDividendStore.
type RawDividendStore struct {
	mu   sync.RWMutex
	data map[string]*domain.RawDividend // keyed by id
}

// NewRawDividendStore creates a new in-memory raw dividend store.
func NewRawDividendStore() *RawDividendStore {
	return &RawDividendStore{
		data: make(map[string]*domain.RawDividend),
	}
}

// InsertBulk adds multiple records atomically. Fails entire batch on any duplicate id.
func (s *RawDividendStore) InsertBulk(_ context.Context, records []*domain.RawDividend) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[r.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[r.ID] = struct{}{}
	}

	for _, r := range records {
		copy := *r
		s.data[r.ID] = &copy
	}
	return nil
}

// Upsert inserts or replaces a record by id.
func (s *RawDividendStore) Upsert(_ context.Context, r *domain.RawDividend) error {
	if r == nil || r.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	copy := *r
	s.data[r.ID] = &copy
	return nil
}

// GetByTicker retrieves all records for a ticker, ordered by (ex_date ASC, id ASC).
func (s *RawDividendStore) GetByTicker(_ context.Context, ticker string) ([]*domain.RawDividend, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.RawDividend
	for _, r := range s.data {
		if r.Ticker == ticker {
			copy := *r
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.HasExDate() != b.HasExDate() {
			return a.HasExDate()
		}
		if !a.ExDate.Equal(b.ExDate) {
			return a.ExDate.Before(b.ExDate)
		}
		return a.ID < b.ID
	})

	return result, nil
}

// ListTickers returns all tickers with at least one record, sorted ASC.
func (s *RawDividendStore) ListTickers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, r := range s.data {
		seen[r.Ticker] = struct{}{}
	}

	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

var _ storage.RawDividendStore = (*RawDividendStore)(nil)
