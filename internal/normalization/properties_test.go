package normalization

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// seriesFromGen builds a ticker history from generated gaps, amounts (in
// thousandths) and split markers. Marker 0 is a 1:10 reverse split, marker 1
// a 2:1 split, anything else no split.
func seriesFromGen(gaps, amounts, splits []int) []*domain.RawDividend {
	n := len(gaps)
	if len(amounts) < n {
		n = len(amounts)
	}
	if len(splits) < n {
		n = len(splits)
	}

	records := make([]*domain.RawDividend, 0, n)
	d := date(2020, 1, 3)
	for i := 0; i < n; i++ {
		d = d.AddDate(0, 0, gaps[i])
		r := raw("GEN", fmt.Sprintf("GEN-%04d", i), d, decimal.New(int64(amounts[i]), -3).String())
		switch splits[i] {
		case 0:
			withSplit(r, "0.1")
		case 1:
			withSplit(r, "2")
		}
		records = append(records, r)
	}
	return records
}

func newProperties() *gopter.Properties {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	return gopter.NewProperties(parameters)
}

var (
	gapsGen    = gen.SliceOf(gen.IntRange(1, 200))
	amountsGen = gen.SliceOf(gen.IntRange(1, 5000))
	splitsGen  = gen.SliceOf(gen.IntRange(0, 40))
)

func TestProperty_ProcessIsIdempotent(t *testing.T) {
	properties := newProperties()

	properties.Property("identical input yields identical derived fields", prop.ForAll(
		func(gaps, amounts, splits []int) bool {
			records := seriesFromGen(gaps, amounts, splits)
			a, errA := Process("GEN", records, DefaultConfig())
			b, errB := Process("GEN", records, DefaultConfig())
			if errA != nil || errB != nil {
				return false
			}
			if len(a.Events) != len(b.Events) {
				return false
			}
			for i := range a.Events {
				x, y := a.Events[i], b.Events[i]
				if x.ID != y.ID ||
					!x.CumulativeFactor.Equal(y.CumulativeFactor) ||
					!x.AdjustedAmount.Equal(y.AdjustedAmount) ||
					x.PaymentType != y.PaymentType ||
					x.Frequency != y.Frequency ||
					!x.Annualized.Equal(y.Annualized) ||
					!x.NormalizedWeekly.Equal(y.NormalizedWeekly) {
					return false
				}
			}
			return true
		},
		gapsGen, amountsGen, splitsGen,
	))

	properties.TestingRun(t)
}

func TestProperty_SplitFactorPiecewiseConstant(t *testing.T) {
	properties := newProperties()

	properties.Property("cumulative factor changes only at split events", prop.ForAll(
		func(gaps, amounts, splits []int) bool {
			records := seriesFromGen(gaps, amounts, splits)
			events := ApplySplitChain(records)
			prev := decimal.NewFromInt(1)
			for i, e := range events {
				if records[i].HasSplit() {
					if !e.CumulativeFactor.Equal(prev.Mul(records[i].SplitFactor.Decimal)) {
						return false
					}
				} else if !e.CumulativeFactor.Equal(prev) {
					return false
				}
				if !e.AdjustedAmount.Equal(e.RawAmount.Mul(e.CumulativeFactor)) {
					return false
				}
				prev = e.CumulativeFactor
			}
			return true
		},
		gapsGen, amountsGen, splitsGen,
	))

	properties.TestingRun(t)
}

func TestProperty_ClassifierIsTotal(t *testing.T) {
	properties := newProperties()

	properties.Property("every event has one type and a canonical frequency; first is Initial", prop.ForAll(
		func(gaps, amounts, splits []int) bool {
			result, err := Process("GEN", seriesFromGen(gaps, amounts, splits), DefaultConfig())
			if err != nil {
				return false
			}
			for i, e := range result.Events {
				if i == 0 && e.PaymentType != domain.PaymentInitial {
					return false
				}
				if i > 0 && e.PaymentType != domain.PaymentRegular && e.PaymentType != domain.PaymentSpecial {
					return false
				}
				if !e.Frequency.Valid() {
					return false
				}
			}
			return true
		},
		gapsGen, amountsGen, splitsGen,
	))

	properties.TestingRun(t)
}
