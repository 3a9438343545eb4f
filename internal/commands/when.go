package commands

import (
	"strings"
	"time"
)

var weekdays = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

// ResolveWhen turns a reschedule expression into a local time. The second
// result reports whether a clock time was given.
//
//	today 14:00
//	tomorrow
//	fri 09:30
//	2026-03-02 08:15
func ResolveWhen(expr string, now time.Time) (time.Time, bool, error) {
	fields := strings.Fields(strings.ToLower(expr))
	if len(fields) == 0 || len(fields) > 2 {
		return time.Time{}, false, invalid("cannot parse %q", expr)
	}
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	var day time.Time
	head := fields[0]
	target, isWeekday := lookupWeekday(head)
	switch {
	case head == "today":
		day = today
	case head == "tomorrow":
		day = today.AddDate(0, 0, 1)
	case isWeekday:
		delta := (int(target) - int(today.Weekday()) + 7) % 7
		if delta == 0 {
			delta = 7
		}
		day = today.AddDate(0, 0, delta)
	default:
		parsed, err := time.ParseInLocation("2006-01-02", head, loc)
		if err != nil {
			return time.Time{}, false, invalid("unknown day %q", fields[0])
		}
		day = parsed
	}

	if len(fields) == 1 {
		return day, false, nil
	}
	clock, err := time.Parse("15:04", fields[1])
	if err != nil {
		return time.Time{}, false, invalid("invalid time %q", fields[1])
	}
	return time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc), true, nil
}

// lookupWeekday accepts "mon", "monday" and similar.
func lookupWeekday(word string) (time.Weekday, bool) {
	if len(word) < 3 {
		return 0, false
	}
	day, ok := weekdays[word[:3]]
	if !ok {
		return 0, false
	}
	if len(word) > 3 && !strings.HasPrefix(strings.ToLower(day.String()), word) {
		return 0, false
	}
	return day, true
}
