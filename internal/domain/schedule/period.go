package schedule

import (
	"fmt"
	"time"
)

// Frequency is the recurrence cadence of a work type.
type Frequency string

const (
	FrequencyMonthly   Frequency = "MONTHLY"
	FrequencyQuarterly Frequency = "QUARTERLY"
	FrequencyYearly    Frequency = "YEARLY"
	FrequencyOneTime   Frequency = "ONE_TIME"
)

// Period is one occurrence window of a recurring obligation: the date range
// it covers, the human label shown on reminders, and the statutory due date.
type Period struct {
	Label   string
	Start   time.Time
	End     time.Time
	DueDate time.Time
}

// DueConfig carries the work type's due-date settings. Zero values fall back
// to defaults: day 1 for monthly/quarterly, July 31 for yearly.
type DueConfig struct {
	DayOfMonth  int
	YearlyMonth time.Month
	YearlyDay   int
}

// maxDueDay caps monthly/quarterly due days so the due date exists in every
// month (no Feb 30).
const maxDueDay = 28

const oneTimeGraceDays = 30

// DateOnly truncates t to midnight UTC. All period arithmetic operates on
// date-only values.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clampDueDay(day int) int {
	if day < 1 {
		return 1
	}
	if day > maxDueDay {
		return maxDueDay
	}
	return day
}

// clampToMonth clamps day to the last day of (year, month). Never errors.
func clampToMonth(year int, month time.Month, day int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day < 1 {
		day = 1
	}
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// PeriodFromAnchor computes the period containing anchor. A subscription
// backdated to a past start date therefore produces the historically correct
// first period rather than one anchored on "today".
func (f Frequency) PeriodFromAnchor(anchor time.Time, due DueConfig) (Period, error) {
	anchor = DateOnly(anchor)
	switch f {
	case FrequencyMonthly:
		start := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		next := start.AddDate(0, 1, 0)
		return Period{
			Label:   start.Format("Jan 2006"),
			Start:   start,
			End:     end,
			DueDate: clampToMonth(next.Year(), next.Month(), clampDueDay(due.DayOfMonth)),
		}, nil
	case FrequencyQuarterly:
		quarter := (int(anchor.Month()) - 1) / 3
		start := time.Date(anchor.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 3, -1)
		next := start.AddDate(0, 3, 0)
		return Period{
			Label:   fmt.Sprintf("Q%d %d", quarter+1, start.Year()),
			Start:   start,
			End:     end,
			DueDate: clampToMonth(next.Year(), next.Month(), clampDueDay(due.DayOfMonth)),
		}, nil
	case FrequencyYearly:
		// Indian fiscal year: April 1 through March 31.
		startYear := anchor.Year()
		if anchor.Month() < time.April {
			startYear--
		}
		start := time.Date(startYear, time.April, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(startYear+1, time.March, 31, 0, 0, 0, 0, time.UTC)
		month := due.YearlyMonth
		day := due.YearlyDay
		if month == 0 {
			month = time.July
		}
		if day == 0 {
			day = 31
		}
		dueYear := startYear + 1
		if month < time.April {
			// Keep the due date after the fiscal year end.
			dueYear++
		}
		return Period{
			Label:   fmt.Sprintf("FY %d-%02d", startYear, (startYear+1)%100),
			Start:   start,
			End:     end,
			DueDate: clampToMonth(dueYear, month, day),
		}, nil
	case FrequencyOneTime:
		return Period{
			Label:   "One Time",
			Start:   anchor,
			End:     anchor,
			DueDate: anchor.AddDate(0, 0, oneTimeGraceDays),
		}, nil
	default:
		return Period{}, fmt.Errorf("unknown frequency: %q", f)
	}
}

// NextPeriod computes the period immediately following the one that ends on
// priorEnd. Succession follows the period boundary, never the due date: due
// dates are mutable via reschedule and cannot be trusted to land in the
// successor period. The second return value is false when the frequency does
// not repeat.
func (f Frequency) NextPeriod(priorEnd time.Time, due DueConfig) (Period, bool, error) {
	if f == FrequencyOneTime {
		return Period{}, false, nil
	}
	p, err := f.PeriodFromAnchor(DateOnly(priorEnd).AddDate(0, 0, 1), due)
	if err != nil {
		return Period{}, false, err
	}
	return p, true, nil
}

// Recurring reports whether the frequency produces more than one period.
func (f Frequency) Recurring() bool {
	return f != FrequencyOneTime
}
