package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentType classifies a dividend payment.
type PaymentType string

// Payment type values.
const (
	PaymentInitial PaymentType = "Initial"
	PaymentRegular PaymentType = "Regular"
	PaymentSpecial PaymentType = "Special"
)

// Frequency is the number of payments per year for a cadence.
type Frequency int

// Canonical frequencies.
const (
	FrequencyWeekly    Frequency = 52
	FrequencyMonthly   Frequency = 12
	FrequencyQuarterly Frequency = 4
	FrequencyAnnual    Frequency = 1
)

// Valid reports whether f is one of the canonical frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyAnnual:
		return true
	}
	return false
}

// String returns the cadence name.
func (f Frequency) String() string {
	switch f {
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyQuarterly:
		return "quarterly"
	case FrequencyAnnual:
		return "annual"
	}
	return "unknown"
}

// RawDividend is a dividend record as received from an upstream feed.
// Optional fields are NullDecimal; a zero ExDate means the date was missing.
type RawDividend struct {
	ID             string              `validate:"required"`
	Ticker         string              `validate:"required"`
	ExDate         time.Time           // ex-dividend date (UTC midnight)
	RawAmount      decimal.Decimal     // amount as paid on the ex-date
	AdjustedAmount decimal.NullDecimal // split-adjusted amount reported by the feed
	ScaledAmount   decimal.NullDecimal // scaled amount reported by the feed
	SplitFactor    decimal.NullDecimal // split ratio effective on this ex-date
}

// HasExDate reports whether the record carries an ex-date.
func (r *RawDividend) HasExDate() bool {
	return !r.ExDate.IsZero()
}

// HasSplit reports whether the record carries a split factor other than 1.
func (r *RawDividend) HasSplit() bool {
	return r.SplitFactor.Valid && !r.SplitFactor.Decimal.Equal(decimal.NewFromInt(1))
}

// DividendEvent is a processed dividend with all derived fields.
// Corresponds to the processed_dividends table.
type DividendEvent struct {
	ID     string
	Ticker string
	ExDate time.Time

	RawAmount        decimal.Decimal
	SplitFactor      decimal.Decimal // 1 when the record carries no split
	CumulativeFactor decimal.Decimal // product of all splits up to and including this event
	AdjustedAmount   decimal.Decimal // RawAmount * CumulativeFactor

	// Upstream values kept for BestAdjustedAmount.
	ExternalAdjusted decimal.NullDecimal
	ExternalScaled   decimal.NullDecimal

	DaysSincePrev *int // nil for the first event
	PaymentType   PaymentType
	Frequency     Frequency

	Annualized       decimal.Decimal // AdjustedAmount * Frequency
	NormalizedWeekly decimal.Decimal // Annualized / 52
}

// BestAdjustedAmount returns the best-known adjusted amount for an event.
// Precedence: external scaled, external adjusted, locally computed adjusted, raw.
func BestAdjustedAmount(e *DividendEvent) decimal.Decimal {
	switch {
	case e.ExternalScaled.Valid:
		return e.ExternalScaled.Decimal
	case e.ExternalAdjusted.Valid:
		return e.ExternalAdjusted.Decimal
	case !e.CumulativeFactor.IsZero():
		// CumulativeFactor is set once the split chain has run.
		return e.AdjustedAmount
	default:
		return e.RawAmount
	}
}
