package normalization

import "github.com/Skythrill256/yield-ranker-sub006/internal/domain"

// DetectFrequency maps a day-gap between consecutive ex-dates to a canonical
// frequency. A nil gap (no prior event) yields monthly.
func DetectFrequency(gap *int, cfg Config) domain.Frequency {
	if gap == nil {
		return domain.FrequencyMonthly
	}
	return frequencyForGap(*gap, cfg)
}

func frequencyForGap(gap int, cfg Config) domain.Frequency {
	switch {
	case gap <= cfg.WeeklyMaxGap:
		return domain.FrequencyWeekly
	case gap <= cfg.MonthlyMaxGap:
		return domain.FrequencyMonthly
	case gap <= cfg.QuarterlyMaxGap:
		return domain.FrequencyQuarterly
	default:
		return domain.FrequencyAnnual
	}
}

// detectForTicker applies the known-weekly override before the buckets.
func detectForTicker(ticker string, gap int, cfg Config) domain.Frequency {
	if gap <= cfg.KnownWeeklyMaxGap && cfg.IsKnownWeekly(ticker) {
		return domain.FrequencyWeekly
	}
	return frequencyForGap(gap, cfg)
}
