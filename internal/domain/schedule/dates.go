package schedule

import (
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/teambition/rrule-go"
)

// ReminderFrequency selects the cadence of reminder dates inside a window.
type ReminderFrequency string

const (
	ReminderDaily         ReminderFrequency = "DAILY"
	ReminderAlternateDays ReminderFrequency = "ALTERNATE_DAYS"
	ReminderWeekly        ReminderFrequency = "WEEKLY"
	ReminderCustom        ReminderFrequency = "CUSTOM"
)

// ReminderPolicy is the per-recipient-class reminder cadence configured on a
// work type. Weekdays is a comma-separated list of day numbers, 0=Monday
// through 6=Sunday, and only applies to WEEKLY.
type ReminderPolicy struct {
	Frequency    ReminderFrequency
	IntervalDays int
	Weekdays     string
}

// weekdayOrder maps the configured day numbers onto RFC 5545 weekdays.
var weekdayOrder = []rrule.Weekday{
	rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU,
}

// defaultWeekdays is the documented fallback for an empty or unparseable
// weekday list.
var defaultWeekdays = []rrule.Weekday{rrule.MO, rrule.WE, rrule.FR}

// Dates returns every calendar date in [start, end] on which a reminder
// should fire under the policy, in ascending order. It is a pure function of
// its inputs: calling it twice yields identical output. Configuration
// problems never propagate; they are logged and recovered with the documented
// fallbacks (unknown frequency behaves as DAILY, a bad weekday list becomes
// Mon/Wed/Fri, a CUSTOM interval is floored at 1).
func Dates(start, end time.Time, policy ReminderPolicy) []time.Time {
	start = DateOnly(start)
	end = DateOnly(end)
	if end.Before(start) {
		return nil
	}

	opt := rrule.ROption{Dtstart: start, Until: end}
	switch policy.Frequency {
	case ReminderDaily:
		opt.Freq = rrule.DAILY
	case ReminderAlternateDays:
		opt.Freq = rrule.DAILY
		opt.Interval = 2
	case ReminderWeekly:
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = parseWeekdays(policy.Weekdays)
	case ReminderCustom:
		opt.Freq = rrule.DAILY
		interval := policy.IntervalDays
		if interval < 1 {
			logrus.WithField("interval_days", policy.IntervalDays).
				Warn("custom reminder interval below 1, flooring to 1")
			interval = 1
		}
		opt.Interval = interval
	default:
		logrus.WithField("frequency", string(policy.Frequency)).
			Warn("unknown reminder frequency, falling back to daily")
		opt.Freq = rrule.DAILY
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		// NewRRule only fails on invalid options, which the switch above
		// cannot produce. Degrade to a plain daily walk if it ever does.
		logrus.WithError(err).Warn("recurrence rule construction failed, falling back to daily walk")
		var out []time.Time
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			out = append(out, d)
		}
		return out
	}
	return rule.All()
}

// parseWeekdays parses a "0,2,4" style weekday list. Invalid entries are
// dropped; an empty result falls back to Mon/Wed/Fri.
func parseWeekdays(spec string) []rrule.Weekday {
	var days []rrule.Weekday
	seen := make(map[int]bool)
	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n < 0 || n > 6 || seen[n] {
			continue
		}
		seen[n] = true
		days = append(days, weekdayOrder[n])
	}
	if len(days) == 0 {
		if spec != "" {
			logrus.WithField("weekdays", spec).
				Warn("unparseable weekday list, falling back to Mon/Wed/Fri")
		}
		return defaultWeekdays
	}
	return days
}
