package normalization

import (
	"github.com/shopspring/decimal"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// Classify assigns PaymentType and Frequency to a ticker's events.
// Events must be sorted by ex_date and carry split-adjusted amounts.
//
// The first event is Initial. An event is Special when it lands off the
// fund's established pay day and is at least SpecialAmountRatio times the
// trailing regular amount. Specials are removed from the cadence series
// before frequencies are resolved, and carry the frequency of the cadence
// event before them. Everything else is Regular.
func Classify(events []*domain.DividendEvent, cfg Config) {
	if len(events) == 0 {
		return
	}

	special := detectSpecials(events, cfg)

	cadence := make([]int, 0, len(events))
	for i := range events {
		if !special[i] {
			cadence = append(cadence, i)
		}
	}
	freqs := cadenceFrequencies(events, cadence, cfg)

	last := domain.FrequencyMonthly
	for i, e := range events {
		switch {
		case i == 0:
			e.PaymentType = domain.PaymentInitial
		case special[i]:
			e.PaymentType = domain.PaymentSpecial
		default:
			e.PaymentType = domain.PaymentRegular
		}

		if f := freqs[i]; f != 0 {
			last = f
		}
		e.Frequency = last
	}
}

// ResolveFrequency picks the frequency of a cadence event from the gaps to
// its neighbours.
//   - no previous event: the next gap decides, monthly if there is none
//   - no next event: the previous gap decides
//   - next gap within jitter: the previous gap decides; a jitter gap never
//     selects a cadence, even on the next side
//   - both gaps beyond jitter and disagreeing: the previous gap decides,
//     so a transition payment stays with the cadence it leaves
//   - otherwise the next gap decides
func ResolveFrequency(ticker string, gapPrev, gapNext *int, cfg Config) domain.Frequency {
	if gapPrev == nil {
		if gapNext == nil {
			return DetectFrequency(nil, cfg)
		}
		return detectForTicker(ticker, *gapNext, cfg)
	}

	fPrev := detectForTicker(ticker, *gapPrev, cfg)
	if gapNext == nil || *gapNext <= cfg.JitterDays {
		return fPrev
	}

	fNext := detectForTicker(ticker, *gapNext, cfg)
	if *gapPrev > cfg.JitterDays && fPrev != fNext {
		return fPrev
	}
	return fNext
}

// cadenceFrequencies resolves frequencies over the cadence subsequence.
// The result is indexed like events; specials are left zero.
func cadenceFrequencies(events []*domain.DividendEvent, cadence []int, cfg Config) []domain.Frequency {
	freqs := make([]domain.Frequency, len(events))
	for k, i := range cadence {
		var gapPrev, gapNext *int
		if k > 0 {
			g := daysBetween(events[cadence[k-1]].ExDate, events[i].ExDate)
			gapPrev = &g
		}
		if k+1 < len(cadence) {
			g := daysBetween(events[i].ExDate, events[cadence[k+1]].ExDate)
			gapNext = &g
		}
		freqs[i] = ResolveFrequency(events[i].Ticker, gapPrev, gapNext, cfg)
	}
	return freqs
}

// detectSpecials walks forward keeping the non-special history as the
// reference for pay day and trailing amount.
func detectSpecials(events []*domain.DividendEvent, cfg Config) []bool {
	special := make([]bool, len(events))
	ratio := cfg.specialRatio()

	history := []*domain.DividendEvent{events[0]}
	for i := 1; i < len(events); i++ {
		var next *domain.DividendEvent
		if i+1 < len(events) {
			next = events[i+1]
		}
		if isSpecial(events[i], next, history, ratio, cfg) {
			special[i] = true
			continue
		}
		history = append(history, events[i])
	}
	return special
}

func isSpecial(e, next *domain.DividendEvent, history []*domain.DividendEvent, ratio decimal.Decimal, cfg Config) bool {
	if len(history) < cfg.MinAnchorEvents {
		return false
	}

	trailing := history[len(history)-1].AdjustedAmount
	if !exceedsTrailing(e.AdjustedAmount, trailing, ratio) {
		return false
	}
	if !offAnchor(e, history, cfg) {
		return false
	}
	// A raise the next on-schedule payment repeats is a new level, not a
	// one-off. An off-schedule follower is another special candidate.
	if cfg.RequireOneOff && next != nil &&
		exceedsTrailing(next.AdjustedAmount, trailing, ratio) && !offAnchor(next, history, cfg) {
		return false
	}
	return true
}

func exceedsTrailing(amount, trailing, ratio decimal.Decimal) bool {
	if !trailing.IsPositive() {
		return amount.IsPositive()
	}
	return amount.GreaterThanOrEqual(trailing.Mul(ratio))
}

// offAnchor reports whether e deviates from the established pay day.
// Weekly series anchor on the weekday, others on the day of month.
func offAnchor(e *domain.DividendEvent, history []*domain.DividendEvent, cfg Config) bool {
	start := len(history) - cfg.AnchorLookback
	if start < 0 {
		start = 0
	}
	recent := history[start:]

	n := len(history)
	weekly := n >= 2 &&
		detectForTicker(e.Ticker, daysBetween(history[n-2].ExDate, history[n-1].ExDate), cfg) == domain.FrequencyWeekly

	if weekly {
		anchor := modeOf(recent, func(ev *domain.DividendEvent) int { return int(ev.ExDate.Weekday()) })
		return circularDistance(int(e.ExDate.Weekday()), anchor, 7) > cfg.WeekdayTolerance
	}
	anchor := modeOf(recent, func(ev *domain.DividendEvent) int { return ev.ExDate.Day() })
	return circularDistance(e.ExDate.Day(), anchor, 31) > cfg.DayOfMonthTolerance
}

// modeOf returns the most frequent key; ties go to the most recent event.
func modeOf(events []*domain.DividendEvent, key func(*domain.DividendEvent) int) int {
	counts := make(map[int]int, len(events))
	for _, e := range events {
		counts[key(e)]++
	}

	best, bestCount := 0, 0
	for i := len(events) - 1; i >= 0; i-- {
		k := key(events[i])
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func circularDistance(a, b, period int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if period-d < d {
		return period - d
	}
	return d
}
