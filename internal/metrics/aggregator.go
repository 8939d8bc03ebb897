package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// Aggregator computes volatility summaries from processed dividends.
type Aggregator struct {
	dividendStore storage.DividendStore
	metricsStore  storage.MetricsStore
	historyStore  storage.VolatilityHistoryStore // optional
	window        int
	clock         func() time.Time
}

// NewAggregator creates a new volatility aggregator.
// historyStore may be nil when no analytics store is configured.
func NewAggregator(dividendStore storage.DividendStore, metricsStore storage.MetricsStore, historyStore storage.VolatilityHistoryStore, window int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{
		dividendStore: dividendStore,
		metricsStore:  metricsStore,
		historyStore:  historyStore,
		window:        window,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used for ComputedAt.
func (a *Aggregator) WithClock(clock func() time.Time) *Aggregator {
	a.clock = clock
	return a
}

// Compute loads the processed series of a ticker and computes its DVI.
// Returns nil, nil when data is insufficient.
func (a *Aggregator) Compute(ctx context.Context, ticker string) (*domain.VolatilitySummary, error) {
	events, err := a.dividendStore.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("load processed dividends: %w", err)
	}

	summary := ComputeVolatility(ticker, events, a.window)
	if summary != nil {
		summary.ComputedAt = a.clock()
	}
	return summary, nil
}

// ComputeAndStore computes the DVI of a ticker and persists it to the
// metrics store and, when configured, the history store.
// When data is insufficient it returns nil, nil and clears any previously
// stored DVI, so rankings treat the volatility as missing.
func (a *Aggregator) ComputeAndStore(ctx context.Context, ticker string) (*domain.VolatilitySummary, error) {
	summary, err := a.Compute(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		if err := a.metricsStore.ClearVolatility(ctx, ticker); err != nil {
			return nil, fmt.Errorf("clear metrics: %w", err)
		}
		return nil, nil
	}

	if _, err := a.metricsStore.WriteMetricsBatch(ctx, []*domain.VolatilitySummary{summary}); err != nil {
		return nil, fmt.Errorf("write metrics: %w", err)
	}
	if a.historyStore != nil {
		if err := a.historyStore.InsertBulk(ctx, []*domain.VolatilitySummary{summary}); err != nil {
			return nil, fmt.Errorf("write volatility history: %w", err)
		}
	}

	return summary, nil
}
