package normalization

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func raw(ticker, id string, exDate time.Time, amount string) *domain.RawDividend {
	return &domain.RawDividend{
		ID:        id,
		Ticker:    ticker,
		ExDate:    exDate,
		RawAmount: decimal.RequireFromString(amount),
	}
}

func withSplit(r *domain.RawDividend, factor string) *domain.RawDividend {
	r.SplitFactor = decimal.NewNullDecimal(decimal.RequireFromString(factor))
	return r
}

// monthlySeries returns n monthly payments of amount on day-of-month day,
// starting in the given month.
func monthlySeries(ticker string, start time.Time, day, n int, amount string) []*domain.RawDividend {
	out := make([]*domain.RawDividend, 0, n)
	for i := 0; i < n; i++ {
		d := time.Date(start.Year(), start.Month()+time.Month(i), day, 0, 0, 0, 0, time.UTC)
		out = append(out, raw(ticker, fmt.Sprintf("%s-m%02d", ticker, i), d, amount))
	}
	return out
}

// weeklySeries returns n weekly payments starting at start.
func weeklySeries(ticker string, start time.Time, n int, amount string) []*domain.RawDividend {
	out := make([]*domain.RawDividend, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, raw(ticker, fmt.Sprintf("%s-w%03d", ticker, i), start.AddDate(0, 0, 7*i), amount))
	}
	return out
}

var zeroTime time.Time

func intPtr(v int) *int { return &v }
