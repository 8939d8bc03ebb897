// Package ranking blends per-fund yield, volatility and return into a
// weighted composite and assigns competition-style ranks.
package ranking

import (
	"math"
	"sort"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// DefaultEpsilon is the minimum difference between two scores for the
// rank to advance.
const DefaultEpsilon = 0.0001

// neutralScore is used when a dimension has no spread.
const neutralScore = 0.5

// Rank normalizes every dimension across the universe, computes the
// weighted composite and returns funds ordered by composite DESC, ticker ASC.
// Yield and return are higher-is-better; volatility is lower-is-better.
// An empty universe returns an empty list.
func Rank(inputs []*domain.RankInput, weights domain.RankWeights, epsilon float64) []domain.RankedFund {
	if len(inputs) == 0 {
		return []domain.RankedFund{}
	}

	yields := make([]*float64, len(inputs))
	vols := make([]*float64, len(inputs))
	returns := make([]*float64, len(inputs))
	for i, in := range inputs {
		yields[i] = validValue(in.Yield)
		vols[i] = validValue(in.Volatility)
		returns[i] = validValue(in.Return)
	}

	yieldBounds := boundsOf(yields)
	volBounds := boundsOf(vols)
	returnBounds := boundsOf(returns)

	funds := make([]domain.RankedFund, len(inputs))
	for i, in := range inputs {
		f := domain.RankedFund{
			Ticker:          in.Ticker,
			YieldValue:      yields[i],
			VolatilityValue: vols[i],
			ReturnValue:     returns[i],
			YieldScore:      higherIsBetter(yields[i], yieldBounds),
			VolatilityScore: lowerIsBetter(vols[i], volBounds),
			ReturnScore:     higherIsBetter(returns[i], returnBounds),
		}
		f.CompositeScore = f.YieldScore*weights.Yield/100 +
			f.VolatilityScore*weights.Volatility/100 +
			f.ReturnScore*weights.Return/100
		funds[i] = f
	}

	sort.SliceStable(funds, func(i, j int) bool {
		if funds[i].CompositeScore != funds[j].CompositeScore {
			return funds[i].CompositeScore > funds[j].CompositeScore
		}
		return funds[i].Ticker < funds[j].Ticker
	})

	scores := make([]float64, len(funds))
	for i := range funds {
		scores[i] = funds[i].CompositeScore
	}
	for i, r := range assignRanks(scores, epsilon) {
		funds[i].Rank = r
	}

	return funds
}

// MetricRank is one row of a single-metric ranking.
type MetricRank struct {
	Ticker string
	Value  float64
	Rank   int
}

// RankByMetric ranks tickers by one metric. Tickers with a nil or
// non-finite value are left out. Ties are broken by ticker ASC.
func RankByMetric(values map[string]*float64, lowerIsBetter bool, epsilon float64) []MetricRank {
	rows := make([]MetricRank, 0, len(values))
	for ticker, v := range values {
		if vv := validValue(v); vv != nil {
			rows = append(rows, MetricRank{Ticker: ticker, Value: *vv})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			if lowerIsBetter {
				return rows[i].Value < rows[j].Value
			}
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Ticker < rows[j].Ticker
	})

	sorted := make([]float64, len(rows))
	for i := range rows {
		sorted[i] = rows[i].Value
	}
	for i, r := range assignRanks(sorted, epsilon) {
		rows[i].Rank = r
	}
	return rows
}

// assignRanks returns 1-based competition ranks for already sorted values.
// A value within epsilon of its predecessor shares the predecessor's rank;
// otherwise the rank is its position.
func assignRanks(sorted []float64, epsilon float64) []int {
	if epsilon < 0 {
		epsilon = DefaultEpsilon
	}
	ranks := make([]int, len(sorted))
	for i := range sorted {
		if i == 0 || math.Abs(sorted[i]-sorted[i-1]) > epsilon {
			ranks[i] = i + 1
		} else {
			ranks[i] = ranks[i-1]
		}
	}
	return ranks
}

type bounds struct {
	min, max float64
	ok       bool
}

func boundsOf(values []*float64) bounds {
	var b bounds
	for _, v := range values {
		if v == nil {
			continue
		}
		if !b.ok {
			b = bounds{min: *v, max: *v, ok: true}
			continue
		}
		b.min = math.Min(b.min, *v)
		b.max = math.Max(b.max, *v)
	}
	return b
}

// higherIsBetter maps v into [0,1]. Missing values score 0.
func higherIsBetter(v *float64, b bounds) float64 {
	if v == nil {
		return 0
	}
	if b.max == b.min {
		return neutralScore
	}
	return (*v - b.min) / (b.max - b.min)
}

// lowerIsBetter maps v into [0,1] inverted. Missing values score neutral.
func lowerIsBetter(v *float64, b bounds) float64 {
	if v == nil {
		return neutralScore
	}
	if b.max == b.min {
		return neutralScore
	}
	return (b.max - *v) / (b.max - b.min)
}

// validValue drops nil, NaN and infinite values.
func validValue(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	out := *v
	return &out
}
