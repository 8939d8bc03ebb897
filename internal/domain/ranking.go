package domain

import "time"

// RankInput is the per-ticker input of a ranking run.
// A nil pointer means the metric is unavailable for the ticker.
type RankInput struct {
	Ticker     string
	Yield      *float64
	Volatility *float64 // DVI cv_percent or premium/discount z-score
	Return     *float64
}

// RankWeights are percentage weights of each dimension.
type RankWeights struct {
	Yield      float64 `mapstructure:"yield" validate:"gte=0,lte=100"`
	Volatility float64 `mapstructure:"volatility" validate:"gte=0,lte=100"`
	Return     float64 `mapstructure:"return" validate:"gte=0,lte=100"`
}

// DefaultRankWeights returns the default blend.
func DefaultRankWeights() RankWeights {
	return RankWeights{Yield: 50, Volatility: 0, Return: 50}
}

// RankedFund is one row of a ranking result.
type RankedFund struct {
	Ticker          string
	YieldValue      *float64
	VolatilityValue *float64
	ReturnValue     *float64
	YieldScore      float64 // [0,1]
	VolatilityScore float64 // [0,1]
	ReturnScore     float64 // [0,1]
	CompositeScore  float64
	Rank            int // 1-based, ties share a rank
}

// RankingSnapshot is a persisted ranking run for one category.
type RankingSnapshot struct {
	SnapshotID string
	Category   string
	Weights    RankWeights
	Funds      []RankedFund
	ComputedAt time.Time
}
