package normalization

import (
	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// ApplySplitChain converts ordered raw records into events carrying the
// cumulative split factor and the split-adjusted amount.
// A split applies to its own event and every later event; splits compound.
// Records must be validated and sorted by SortRawDividends.
func ApplySplitChain(records []*domain.RawDividend) []*domain.DividendEvent {
	one := decimal.NewFromInt(1)
	cumulative := one
	events := make([]*domain.DividendEvent, 0, len(records))

	var prev *domain.RawDividend
	for _, r := range records {
		factor := one
		if r.HasSplit() {
			factor = r.SplitFactor.Decimal
			cumulative = cumulative.Mul(factor)
		}

		e := &domain.DividendEvent{
			ID:               r.ID,
			Ticker:           r.Ticker,
			ExDate:           r.ExDate,
			RawAmount:        r.RawAmount,
			SplitFactor:      factor,
			CumulativeFactor: cumulative,
			AdjustedAmount:   r.RawAmount.Mul(cumulative),
			ExternalAdjusted: r.AdjustedAmount,
			ExternalScaled:   r.ScaledAmount,
		}
		if prev != nil {
			gap := daysBetween(prev.ExDate, r.ExDate)
			e.DaysSincePrev = &gap
		}
		events = append(events, e)
		prev = r
	}

	return events
}
