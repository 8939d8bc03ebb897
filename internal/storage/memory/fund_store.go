package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// FundStore is an in-memory implementation of storage.FundStore.
type FundStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FundProfile // keyed by ticker
}

// NewFundStore creates a new in-memory fund store.
func NewFundStore() *FundStore {
	return &FundStore{
		data: make(map[string]*domain.FundProfile),
	}
}

// Upsert inserts or replaces a fund profile by ticker.
func (s *FundStore) Upsert(_ context.Context, f *domain.FundProfile) error {
	if f == nil || f.Ticker == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[f.Ticker] = copyFund(f)
	return nil
}

// GetByTicker retrieves a fund. Returns ErrNotFound if not exists.
func (s *FundStore) GetByTicker(_ context.Context, ticker string) (*domain.FundProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyFund(f), nil
}

// ListByCategory retrieves funds of a category, ordered by ticker ASC.
func (s *FundStore) ListByCategory(_ context.Context, category string) ([]*domain.FundProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.FundProfile
	for _, f := range s.data {
		if category == "" || f.Category == category {
			result = append(result, copyFund(f))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

func copyFund(f *domain.FundProfile) *domain.FundProfile {
	copy := *f
	if f.Yield != nil {
		v := *f.Yield
		copy.Yield = &v
	}
	if f.TotalReturn != nil {
		v := *f.TotalReturn
		copy.TotalReturn = &v
	}
	return &copy
}

var _ storage.FundStore = (*FundStore)(nil)

// UniverseReader implements storage.RankInputReader over in-memory
// fund and metrics stores.
type UniverseReader struct {
	funds   *FundStore
	metrics *MetricsStore
}

// NewUniverseReader creates a reader joining funds with their metrics.
func NewUniverseReader(funds *FundStore, metrics *MetricsStore) *UniverseReader {
	return &UniverseReader{funds: funds, metrics: metrics}
}

// GetRankInputs joins fund profiles with their metrics, ordered by ticker ASC.
func (r *UniverseReader) GetRankInputs(ctx context.Context, category string, source storage.VolatilitySource) ([]*domain.RankInput, error) {
	funds, err := r.funds.ListByCategory(ctx, category)
	if err != nil {
		return nil, err
	}

	inputs := make([]*domain.RankInput, 0, len(funds))
	for _, f := range funds {
		in := &domain.RankInput{
			Ticker: f.Ticker,
			Yield:  f.Yield,
			Return: f.TotalReturn,
		}
		if m, err := r.metrics.GetByTicker(ctx, f.Ticker); err == nil {
			in.Volatility = volatilityValue(m, source)
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func volatilityValue(m *domain.FundMetrics, source storage.VolatilitySource) *float64 {
	switch source {
	case storage.VolatilityFromZScore:
		if m.ZScore != nil {
			return m.ZScore.ZScore
		}
	default:
		if m.Volatility != nil {
			v := m.Volatility.CVPercent
			return &v
		}
	}
	return nil
}

var _ storage.RankInputReader = (*UniverseReader)(nil)
