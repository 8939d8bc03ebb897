package normalization

import (
	"math"
	"sort"
	"time"

	"github.com/Skythrill256/yield-ranker-sub006/internal/domain"
)

// SortRawDividends orders records by (ex_date ASC, id ASC).
// The id tie-break keeps same-day payments in a stable order across runs.
func SortRawDividends(records []*domain.RawDividend) {
	sort.Slice(records, func(i, j int) bool {
		return compareRawDividends(records[i], records[j]) < 0
	})
}

// SortEvents orders processed events by (ex_date ASC, id ASC).
func SortEvents(events []*domain.DividendEvent) {
	sort.Slice(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.ExDate.Equal(b.ExDate) {
			return a.ExDate.Before(b.ExDate)
		}
		return a.ID < b.ID
	})
}

// compareRawDividends returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareRawDividends(a, b *domain.RawDividend) int {
	if !a.ExDate.Equal(b.ExDate) {
		if a.ExDate.Before(b.ExDate) {
			return -1
		}
		return 1
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}

// daysBetween returns the whole-day gap between two ex-dates.
func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}
