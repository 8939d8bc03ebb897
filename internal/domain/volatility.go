package domain

import "time"

// VolatilityBucket is the qualitative band of a DVI value.
type VolatilityBucket string

// Volatility buckets by CV percent.
const (
	BucketVeryLow  VolatilityBucket = "Very Low"
	BucketLow      VolatilityBucket = "Low"
	BucketModerate VolatilityBucket = "Moderate"
	BucketHigh     VolatilityBucket = "High"
	BucketVeryHigh VolatilityBucket = "Very High"
)

// VolatilitySummary is the dividend volatility index (DVI) for one ticker.
type VolatilitySummary struct {
	Ticker       string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Values       []float64 // annualized Regular payments, ex_date ASC
	DataPoints   int
	Mean         float64
	SampleStddev float64
	CVPercent    float64
	Bucket       VolatilityBucket
	ComputedAt   time.Time
}
