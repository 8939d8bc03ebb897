// Package zscore computes the premium/discount z-score of a fund's market
// price against its NAV over a trailing window.
package zscore

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// ErrNoOverlap is returned when price and NAV share no usable date.
var ErrNoOverlap = errors.New("no overlapping price and nav dates")

// Config holds z-score window parameters.
type Config struct {
	LookbackYears int `mapstructure:"lookback_years" validate:"gte=1"`
	MinPoints     int `mapstructure:"min_points" validate:"gte=2"`
}

// DefaultConfig returns a 3-year window requiring one year of trading days.
func DefaultConfig() Config {
	return Config{
		LookbackYears: 3,
		MinPoints:     252,
	}
}

type pdPoint struct {
	date time.Time
	pd   float64
}

// Compute calculates the premium/discount z-score as of asOf.
// Rows are joined by calendar date; only rows where both closes are
// positive and the date is not after asOf are used. The window ends at the
// latest usable date and starts LookbackYears before it (inclusive).
// A window shorter than MinPoints yields status insufficient_data.
func Compute(ticker string, prices, navs []*domain.PricePoint, asOf time.Time, cfg Config) (*domain.ZScoreResult, error) {
	navByDate := make(map[string]float64, len(navs))
	for _, n := range navs {
		if n.Close > 0 {
			navByDate[dayKey(n.Date)] = n.Close
		}
	}

	points := make([]pdPoint, 0, len(prices))
	seen := make(map[string]struct{}, len(prices))
	for _, p := range prices {
		if p.Close <= 0 {
			continue
		}
		if !asOf.IsZero() && p.Date.After(asOf) {
			continue
		}
		key := dayKey(p.Date)
		nav, ok := navByDate[key]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		points = append(points, pdPoint{date: p.Date, pd: p.Close/nav - 1})
	}
	if len(points) == 0 {
		return nil, ErrNoOverlap
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].date.Before(points[j].date)
	})

	end := points[len(points)-1].date
	start := end.AddDate(-cfg.LookbackYears, 0, 0)
	first := sort.Search(len(points), func(i int) bool {
		return !points[i].date.Before(start)
	})
	window := points[first:]

	result := &domain.ZScoreResult{
		Ticker:     ticker,
		DataPoints: len(window),
		Required:   cfg.MinPoints,
		StartDate:  start,
		EndDate:    end,
	}

	if len(window) < cfg.MinPoints {
		result.Status = domain.ZScoreStatusInsufficientData
		return result, nil
	}

	values := make([]float64, len(window))
	for i, p := range window {
		values[i] = p.pd
	}

	mean := computeMean(values)
	stddev := computePopulationStddev(values, mean)
	current := values[len(values)-1]

	z := 0.0
	if stddev != 0 {
		z = (current - mean) / stddev
	}

	result.Status = domain.ZScoreStatusActive
	result.ZScore = &z
	result.CurrentPD = current
	result.AvgPD = mean
	result.StddevPD = stddev
	return result, nil
}

func dayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// computeMean calculates arithmetic mean of values.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computePopulationStddev calculates population standard deviation (n denominator).
func computePopulationStddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(values)))
}
