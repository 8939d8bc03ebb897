package metrics

import (
	"math"
	"sort"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// DefaultWindow is the number of trailing Regular payments in a DVI window.
const DefaultWindow = 12

// ComputeVolatility calculates the dividend volatility index of a ticker.
// Only Regular events count; the most recent window of them by ex_date
// form the sample. Returns nil when fewer than 2 Regular events exist or
// the mean is zero, since CV is undefined there.
func ComputeVolatility(ticker string, events []*domain.DividendEvent, window int) *domain.VolatilitySummary {
	if window <= 0 {
		window = DefaultWindow
	}

	regular := make([]*domain.DividendEvent, 0, len(events))
	for _, e := range events {
		if e.PaymentType == domain.PaymentRegular {
			regular = append(regular, e)
		}
	}
	if len(regular) < 2 {
		return nil
	}

	// Sort by ex_date ASC, id ASC so the window is deterministic.
	sort.Slice(regular, func(i, j int) bool {
		if !regular[i].ExDate.Equal(regular[j].ExDate) {
			return regular[i].ExDate.Before(regular[j].ExDate)
		}
		return regular[i].ID < regular[j].ID
	})
	if len(regular) > window {
		regular = regular[len(regular)-window:]
	}

	values := make([]float64, len(regular))
	for i, e := range regular {
		values[i] = e.Annualized.InexactFloat64()
	}

	mean := computeMean(values)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil
	}
	stddev := computeStddev(values, mean)
	cv := stddev / mean * 100

	return &domain.VolatilitySummary{
		Ticker:       ticker,
		PeriodStart:  regular[0].ExDate,
		PeriodEnd:    regular[len(regular)-1].ExDate,
		Values:       values,
		DataPoints:   len(values),
		Mean:         mean,
		SampleStddev: stddev,
		CVPercent:    cv,
		Bucket:       BucketFor(cv),
	}
}

// BucketFor maps a CV percent to its qualitative band.
func BucketFor(cv float64) domain.VolatilityBucket {
	switch {
	case cv < 5:
		return domain.BucketVeryLow
	case cv < 10:
		return domain.BucketLow
	case cv < 20:
		return domain.BucketModerate
	case cv < 30:
		return domain.BucketHigh
	default:
		return domain.BucketVeryHigh
	}
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

// computeStddev calculates sample standard deviation (n-1 denominator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}
