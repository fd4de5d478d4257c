// Package schedule computes the next occurrence of a recurring
// maintenance task from its frequency.
package schedule

import (
	"time"

	"github.com/ravlen/upkeep/internal/models"
)

// NextDate returns now advanced by the interval f describes. customDays is
// consulted only when f is custom; a non-positive value falls back to one
// month. Unrecognized frequencies use the monthly rule.
func NextDate(now time.Time, f models.Frequency, customDays int) time.Time {
	switch f {
	case models.FreqDaily:
		return now.AddDate(0, 0, 1)
	case models.FreqWeekly:
		return now.AddDate(0, 0, 7)
	case models.FreqMonthly:
		return addMonths(now, 1)
	case models.FreqQuarterly:
		return addMonths(now, 3)
	case models.FreqSemiAnnual:
		return addMonths(now, 6)
	case models.FreqAnnual:
		return addMonths(now, 12)
	case models.FreqCustom:
		if customDays > 0 {
			return now.AddDate(0, 0, customDays)
		}
		return addMonths(now, 1)
	default:
		return addMonths(now, 1)
	}
}

// addMonths advances t by n calendar months, clamping the day-of-month to
// the last valid day of the target month. time.AddDate would overflow
// Jan 31 + 1 month into March; the clamp keeps it at the end of February.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, n, 0)
	if last := lastDayOfMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// lastDayOfMonth returns the number of days in the given month.
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
