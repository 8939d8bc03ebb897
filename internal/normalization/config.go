package normalization

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Config holds the tunable thresholds of the dividend chain.
type Config struct {
	// Day-gap buckets, inclusive toward the lower frequency.
	WeeklyMaxGap    int `mapstructure:"weekly_max_gap" validate:"gt=0"`
	MonthlyMaxGap   int `mapstructure:"monthly_max_gap" validate:"gtfield=WeeklyMaxGap"`
	QuarterlyMaxGap int `mapstructure:"quarterly_max_gap" validate:"gtfield=MonthlyMaxGap"`

	// Gaps at or below JitterDays are scheduling noise, not a cadence.
	JitterDays int `mapstructure:"jitter_days" validate:"gte=0"`

	// Special detection.
	SpecialAmountRatio  float64 `mapstructure:"special_amount_ratio" validate:"gt=0"`
	DayOfMonthTolerance int     `mapstructure:"day_of_month_tolerance" validate:"gte=0"`
	WeekdayTolerance    int     `mapstructure:"weekday_tolerance" validate:"gte=0,lte=3"`
	AnchorLookback      int     `mapstructure:"anchor_lookback" validate:"gt=0"`
	MinAnchorEvents     int     `mapstructure:"min_anchor_events" validate:"gt=0"`
	// RequireOneOff keeps an off-schedule raise Regular when the next
	// on-schedule payment repeats it.
	RequireOneOff       bool    `mapstructure:"require_one_off"`

	// Tickers known to pay weekly; gaps up to KnownWeeklyMaxGap map to 52.
	KnownWeeklyPayers []string `mapstructure:"known_weekly_payers"`
	KnownWeeklyMaxGap int      `mapstructure:"known_weekly_max_gap" validate:"gte=0"`
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		WeeklyMaxGap:        10,
		MonthlyMaxGap:       45,
		QuarterlyMaxGap:     135,
		JitterDays:          5,
		SpecialAmountRatio:  1.3,
		DayOfMonthTolerance: 5,
		WeekdayTolerance:    1,
		AnchorLookback:      6,
		MinAnchorEvents:     2,
		RequireOneOff:       false,
		KnownWeeklyMaxGap:   17,
	}
}

// IsKnownWeekly reports whether ticker is configured as a weekly payer.
func (c Config) IsKnownWeekly(ticker string) bool {
	for _, t := range c.KnownWeeklyPayers {
		if strings.EqualFold(t, ticker) {
			return true
		}
	}
	return false
}

func (c Config) specialRatio() decimal.Decimal {
	return decimal.NewFromFloat(c.SpecialAmountRatio)
}
