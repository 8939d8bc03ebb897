package normalization

import (
	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// normalizedScale is the number of decimal places kept for normalized_weekly.
const normalizedScale = 10

var weeksPerYear = decimal.NewFromInt(52)

// Normalize computes annualized and weekly-equivalent values.
// Special and Initial events are carried through unchanged.
func Normalize(events []*domain.DividendEvent) {
	for _, e := range events {
		e.Annualized = e.AdjustedAmount.Mul(decimal.NewFromInt(int64(e.Frequency)))
		e.NormalizedWeekly = e.Annualized.DivRound(weeksPerYear, normalizedScale)
	}
}
