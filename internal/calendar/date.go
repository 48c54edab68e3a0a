// Package calendar decides which tasks are due on a date and how far a day has
// been completed. Every function here is pure: inputs are snapshots, results are
// freshly allocated, and "today" is always passed in by the caller.
package calendar

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used as the join key between
// tasks, completions and skips.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Day drops the time of day from t. The civil date is taken in t's own
// location and returned as midnight UTC, so day arithmetic never crosses a
// DST boundary.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day in loc. A nil loc means UTC.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return Day(now)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

// FormatDate renders the calendar day of t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return Day(t).Format(DateLayout)
}

// DaysBetween returns the signed number of whole days from one day to another.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / day)
}

// AddDays shifts the calendar day of t by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := Day(t)
	back := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -back)
}

// IsFuture reports whether date falls strictly after today.
func IsFuture(date, today time.Time) bool {
	return Day(date).After(Day(today))
}
