package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// MetricsStore is an in-memory implementation of storage.MetricsStore.
type MetricsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.FundMetrics // keyed by ticker
	now  func() time.Time
}

// NewMetricsStore creates a new in-memory fund metrics store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{
		data: make(map[string]*domain.FundMetrics),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WriteMetricsBatch upserts volatility summaries keyed by ticker.
func (s *MetricsStore) WriteMetricsBatch(_ context.Context, summaries []*domain.VolatilitySummary) (int, error) {
	for _, v := range summaries {
		if v == nil || v.Ticker == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range summaries {
		m := s.row(v.Ticker)
		m.Volatility = copySummary(v)
		m.UpdatedAt = s.now()
	}
	return len(summaries), nil
}

// WriteZScoreBatch upserts premium/discount z-scores keyed by ticker.
func (s *MetricsStore) WriteZScoreBatch(_ context.Context, results []*domain.ZScoreResult) (int, error) {
	for _, z := range results {
		if z == nil || z.Ticker == "" {
			return 0, storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, z := range results {
		m := s.row(z.Ticker)
		m.ZScore = copyZScore(z)
		m.UpdatedAt = s.now()
	}
	return len(results), nil
}

// ClearVolatility removes the stored volatility summary of a ticker.
func (s *MetricsStore) ClearVolatility(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, exists := s.data[ticker]; exists && m.Volatility != nil {
		m.Volatility = nil
		m.UpdatedAt = s.now()
	}
	return nil
}

// GetByTicker retrieves the metrics of a ticker. Returns ErrNotFound if not exists.
func (s *MetricsStore) GetByTicker(_ context.Context, ticker string) (*domain.FundMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data[ticker]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyMetrics(m), nil
}

// GetAll retrieves metrics for every ticker, ordered by ticker ASC.
func (s *MetricsStore) GetAll(_ context.Context) ([]*domain.FundMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.FundMetrics, 0, len(s.data))
	for _, m := range s.data {
		result = append(result, copyMetrics(m))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Ticker < result[j].Ticker
	})
	return result, nil
}

// row returns the mutable row for ticker, creating it. Caller holds mu.
func (s *MetricsStore) row(ticker string) *domain.FundMetrics {
	m, exists := s.data[ticker]
	if !exists {
		m = &domain.FundMetrics{Ticker: ticker}
		s.data[ticker] = m
	}
	return m
}

func copyMetrics(m *domain.FundMetrics) *domain.FundMetrics {
	return &domain.FundMetrics{
		Ticker:     m.Ticker,
		Volatility: copySummary(m.Volatility),
		ZScore:     copyZScore(m.ZScore),
		UpdatedAt:  m.UpdatedAt,
	}
}

func copySummary(v *domain.VolatilitySummary) *domain.VolatilitySummary {
	if v == nil {
		return nil
	}
	copy := *v
	copy.Values = append([]float64(nil), v.Values...)
	return &copy
}

func copyZScore(z *domain.ZScoreResult) *domain.ZScoreResult {
	if z == nil {
		return nil
	}
	copy := *z
	if z.ZScore != nil {
		v := *z.ZScore
		copy.ZScore = &v
	}
	return &copy
}

var _ storage.MetricsStore = (*MetricsStore)(nil)
