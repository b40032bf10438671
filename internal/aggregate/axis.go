// Package aggregate aligns per-metric series on a common date axis and builds
// one composite data point per day.
package aggregate

import (
	"sort"
	"time"

	"github.com/claude/wellcast/internal/models"
)

// DefaultWindowDays is how many of the most recent logged days are kept.
const DefaultWindowDays = 60

// DateAxis unions the date keys of every series, drops anything that is not an
// exact YYYY-MM-DD key or falls after today in loc, and returns the last
// windowDays dates in ascending order. A zero now disables the today cutoff.
func DateAxis(now time.Time, loc *time.Location, windowDays int, series ...models.MetricSeries) []string {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if loc == nil {
		loc = time.Local
	}

	today := ""
	if !now.IsZero() {
		today = models.DateKey(now, loc)
	}

	seen := make(map[string]struct{})
	for _, s := range series {
		for date := range s {
			if !models.IsDateKey(date) {
				continue
			}
			if _, err := time.Parse(models.DateKeyLayout, date); err != nil {
				continue
			}
			if today != "" && date > today {
				continue
			}
			seen[date] = struct{}{}
		}
	}

	dates := make([]string, 0, len(seen))
	for date := range seen {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	if len(dates) > windowDays {
		dates = dates[len(dates)-windowDays:]
	}
	return dates
}
