package scheduler

import (
	"time"

	"github.com/lomoval/alarmd/internal/storage"
)

// NextOccurrence advances dueAt by the recurrence period until the result
// is strictly after now. Missed occurrences are skipped, not replayed: an
// alarm that was dormant for ten days lands on the next future slot only.
// For RecurrenceNone dueAt is returned unchanged.
//
// Daily and weekly use fixed 24h/168h durations. Monthly and yearly use
// AddDate, so a day missing from the target month rolls over into the
// following month (Jan 31 + 1 month = Mar 2 or Mar 3).
func NextOccurrence(dueAt time.Time, recurrence storage.Recurrence, now time.Time) time.Time {
	t := dueAt
	for !t.After(now) {
		switch recurrence {
		case storage.RecurrenceDaily:
			t = t.Add(24 * time.Hour)
		case storage.RecurrenceWeekly:
			t = t.Add(7 * 24 * time.Hour)
		case storage.RecurrenceMonthly:
			t = t.AddDate(0, 1, 0)
		case storage.RecurrenceYearly:
			t = t.AddDate(1, 0, 0)
		default:
			return t
		}
	}
	return t
}
