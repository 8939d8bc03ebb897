package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
	"github.com/Skythrill256/yield-ranker-sub006/internal/storage"
)

// CoverageThresholds are the minimums a report's inputs should meet.
type CoverageThresholds struct {
	MinFunds              int
	MinVolatilityCoverage float64 // share of funds with a DVI, in [0,1]
	MinZScoreCoverage     float64 // share of funds with a NAV symbol that have an active z-score
}

// DefaultCoverageThresholds returns the standard thresholds.
func DefaultCoverageThresholds() CoverageThresholds {
	return CoverageThresholds{
		MinFunds:              1,
		MinVolatilityCoverage: 0.5,
		MinZScoreCoverage:     0.5,
	}
}

// CoverageCheck represents one data coverage criterion.
type CoverageCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// CoverageResult contains all checks.
type CoverageResult struct {
	Checks  []CoverageCheck
	AllPass bool
	Errors  []string // data integrity errors
}

// CoverageChecker validates that stored data covers the ranking universe.
type CoverageChecker struct {
	fundStore     storage.FundStore
	dividendStore storage.DividendStore
	metricsStore  storage.MetricsStore
	thresholds    CoverageThresholds
}

// NewCoverageChecker creates a new coverage checker.
func NewCoverageChecker(
	fundStore storage.FundStore,
	dividendStore storage.DividendStore,
	metricsStore storage.MetricsStore,
	thresholds CoverageThresholds,
) *CoverageChecker {
	return &CoverageChecker{
		fundStore:     fundStore,
		dividendStore: dividendStore,
		metricsStore:  metricsStore,
		thresholds:    thresholds,
	}
}

// Check performs all coverage checks.
func (c *CoverageChecker) Check(ctx context.Context) (*CoverageResult, error) {
	result := &CoverageResult{
		Checks:  make([]CoverageCheck, 0, 4),
		AllPass: true,
		Errors:  []string{},
	}

	funds, err := c.fundStore.ListByCategory(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list funds: %w", err)
	}

	metricsByTicker := make(map[string]*domain.FundMetrics)
	all, err := c.metricsStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load metrics: %w", err)
	}
	for _, m := range all {
		metricsByTicker[m.Ticker] = m
	}

	add := func(check CoverageCheck) {
		result.Checks = append(result.Checks, check)
		if !check.Pass {
			result.AllPass = false
		}
	}

	// Check 1: universe size
	add(CoverageCheck{
		Name:      "Funds in universe",
		Threshold: fmt.Sprintf(">= %d", c.thresholds.MinFunds),
		Actual:    fmt.Sprintf("%d", len(funds)),
		Pass:      len(funds) >= c.thresholds.MinFunds,
	})

	// Check 2: DVI coverage
	withDVI := 0
	for _, f := range funds {
		if m := metricsByTicker[f.Ticker]; m != nil && m.Volatility != nil {
			withDVI++
		}
	}
	add(ratioCheck("DVI coverage", withDVI, len(funds), c.thresholds.MinVolatilityCoverage))

	// Check 3: z-score coverage among funds with a NAV series
	withNav, withZ := 0, 0
	for _, f := range funds {
		if f.NavSymbol == "" {
			continue
		}
		withNav++
		if m := metricsByTicker[f.Ticker]; m != nil && m.ZScore != nil && m.ZScore.Status == domain.ZScoreStatusActive {
			withZ++
		}
	}
	if withNav > 0 {
		add(ratioCheck("Z-score coverage", withZ, withNav, c.thresholds.MinZScoreCoverage))
	}

	// Check 4: processed series are ordered with unique ids
	check, integrityErrors, err := c.checkSeriesIntegrity(ctx, funds)
	if err != nil {
		return nil, err
	}
	add(check)
	result.Errors = append(result.Errors, integrityErrors...)

	return result, nil
}

// checkSeriesIntegrity verifies ex_date ordering and id uniqueness of every processed series.
func (c *CoverageChecker) checkSeriesIntegrity(ctx context.Context, funds []*domain.FundProfile) (CoverageCheck, []string, error) {
	var errs []string
	for _, f := range funds {
		events, err := c.dividendStore.GetByTicker(ctx, f.Ticker)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return CoverageCheck{}, nil, fmt.Errorf("failed to load series %s: %w", f.Ticker, err)
		}

		seen := make(map[string]bool, len(events))
		for i, e := range events {
			if seen[e.ID] {
				errs = append(errs, fmt.Sprintf("%s: duplicate event id %s", f.Ticker, e.ID))
			}
			seen[e.ID] = true
			if i > 0 && e.ExDate.Before(events[i-1].ExDate) {
				errs = append(errs, fmt.Sprintf("%s: event %s out of ex_date order", f.Ticker, e.ID))
			}
		}
	}

	return CoverageCheck{
		Name:      "Series integrity errors",
		Threshold: "== 0",
		Actual:    fmt.Sprintf("%d", len(errs)),
		Pass:      len(errs) == 0,
	}, errs, nil
}

func ratioCheck(name string, n, total int, min float64) CoverageCheck {
	ratio := 0.0
	if total > 0 {
		ratio = float64(n) / float64(total)
	}
	return CoverageCheck{
		Name:      name,
		Threshold: fmt.Sprintf(">= %.0f%%", min*100),
		Actual:    fmt.Sprintf("%.0f%% (%d/%d)", ratio*100, n, total),
		Pass:      total > 0 && ratio >= min,
	}
}
