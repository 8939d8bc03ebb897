package zscore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// ErrNoNavSymbol is returned when a fund has no NAV series configured.
var ErrNoNavSymbol = errors.New("fund has no nav symbol")

// Calculator loads price and NAV history from storage and persists z-scores.
type Calculator struct {
	funds   storage.FundStore
	prices  storage.PriceStore
	metrics storage.MetricsStore
	cfg     Config
	clock   func() time.Time
}

// NewCalculator creates a new z-score calculator.
func NewCalculator(funds storage.FundStore, prices storage.PriceStore, metrics storage.MetricsStore, cfg Config) *Calculator {
	return &Calculator{
		funds:   funds,
		prices:  prices,
		metrics: metrics,
		cfg:     cfg,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets the clock used when no as-of date is given.
func (c *Calculator) WithClock(clock func() time.Time) *Calculator {
	c.clock = clock
	return c
}

// Calculate computes the z-score of ticker against navSymbol as of asOf.
// An empty navSymbol is resolved from the fund profile; a zero asOf means now.
func (c *Calculator) Calculate(ctx context.Context, ticker, navSymbol string, asOf time.Time) (*domain.ZScoreResult, error) {
	if navSymbol == "" {
		fund, err := c.funds.GetByTicker(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("get fund %s: %w", ticker, err)
		}
		if fund.NavSymbol == "" {
			return nil, fmt.Errorf("%s: %w", ticker, ErrNoNavSymbol)
		}
		navSymbol = fund.NavSymbol
	}
	if asOf.IsZero() {
		asOf = c.clock()
	}

	// One extra year so the window is covered even when the latest
	// common date lags asOf.
	from := asOf.AddDate(-(c.cfg.LookbackYears + 1), 0, 0)

	prices, err := c.prices.GetByRange(ctx, ticker, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("get prices %s: %w", ticker, err)
	}
	navs, err := c.prices.GetByRange(ctx, navSymbol, from, asOf)
	if err != nil {
		return nil, fmt.Errorf("get nav %s: %w", navSymbol, err)
	}

	return Compute(ticker, prices, navs, asOf, c.cfg)
}

// CalculateAndStore computes the z-score and writes it to the metrics store.
// Insufficient-data results are stored too, so the status is visible.
func (c *Calculator) CalculateAndStore(ctx context.Context, ticker, navSymbol string, asOf time.Time) (*domain.ZScoreResult, error) {
	result, err := c.Calculate(ctx, ticker, navSymbol, asOf)
	if err != nil {
		return nil, err
	}
	if _, err := c.metrics.WriteZScoreBatch(ctx, []*domain.ZScoreResult{result}); err != nil {
		return nil, fmt.Errorf("write zscore: %w", err)
	}
	return result, nil
}
