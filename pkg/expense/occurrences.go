package expense

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// Occurrences returns the dates of r that fall within [start, end], both inclusive,
// in ascending order. The walk always begins at the anchor date and steps forward
// until it passes end; dates before start are stepped over, never skipped to.
func Occurrences(r RecurringExpense, start, end time.Time) []time.Time {
	start, end = Day(start), Day(end)
	anchor := Day(r.Date)

	var dates []time.Time
	current := anchor
	limit := maxSteps(anchor, end, r.Frequency)
	for step := 0; !current.After(end); step++ {
		if step >= limit {
			log.Warnf("stopped expanding %s %s expense anchored on %s after %d steps",
				r.Frequency, r.Category, anchor.Format(DateLayout), step)
			break
		}
		if !current.Before(start) {
			dates = append(dates, current)
		}
		next, ok := nextOccurrence(anchor, current, step+1, r.Frequency)
		if !ok || !next.After(current) {
			break
		}
		current = next
	}
	return dates
}

// maxSteps is the number of steps needed to walk from anchor past end, plus slack.
func maxSteps(anchor, end time.Time, freq Frequency) int {
	if end.Before(anchor) {
		return 1
	}
	switch freq {
	case Weekly:
		// Unix seconds, since a time.Duration cannot span more than ~292 years
		days := (end.Unix() - anchor.Unix()) / (24 * 60 * 60)
		return int(days/7) + 2
	case Monthly:
		months := (end.Year()-anchor.Year())*12 + int(end.Month()) - int(anchor.Month())
		return months + 2
	default:
		return 1
	}
}

// nextOccurrence returns the n-th occurrence after anchor. Monthly steps take their
// day from the anchor, so a clamp in one month never carries into the next.
func nextOccurrence(anchor, current time.Time, n int, freq Frequency) (time.Time, bool) {
	switch freq {
	case Weekly:
		return current.AddDate(0, 0, 7), true
	case Monthly:
		return addMonthsClamped(anchor, n), true
	default:
		return time.Time{}, false
	}
}

func addMonthsClamped(anchor time.Time, months int) time.Time {
	year, month, day := anchor.Date()
	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
