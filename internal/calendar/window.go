package calendar

import (
	"time"

	"task-calendar/internal/model"
)

const (
	// WindowDays is the size of the calendar grid: six Monday-start weeks.
	WindowDays = 42

	weeksBefore          = 3
	defaultMinWeekOffset = -6
)

// Window returns the 42 consecutive days shown for weekOffset: three weeks
// before the Monday of the offset week, that week, and two more after it.
func Window(today time.Time, weekOffset int) []time.Time {
	monday := AddDays(StartOfWeek(today), weekOffset*7)
	first := AddDays(monday, -weeksBefore*7)

	days := make([]time.Time, WindowDays)
	for i := range days {
		days[i] = first.AddDate(0, 0, i)
	}
	return days
}

// MinWeekOffset is the furthest back the grid may be navigated: three weeks
// past the week of the earliest task start, and never less than six weeks.
// Tasks with malformed start dates are ignored.
func MinWeekOffset(tasks []model.Task, today time.Time) int {
	var earliest time.Time
	for _, task := range tasks {
		start, err := ParseDate(task.StartDate)
		if err != nil {
			continue
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	if earliest.IsZero() {
		return defaultMinWeekOffset
	}

	weeksBack := DaysBetween(StartOfWeek(earliest), StartOfWeek(today)) / 7
	return min(defaultMinWeekOffset, -(weeksBack + weeksBefore))
}

// ClampWeekOffset keeps offset within [minOffset, 0]. The grid never scrolls
// past the current window.
func ClampWeekOffset(offset, minOffset int) int {
	if offset > 0 {
		return 0
	}
	if offset < minOffset {
		return minOffset
	}
	return offset
}

// Cell is one day of the calendar grid.
type Cell struct {
	Date     time.Time `json:"-"`
	Progress Progress  `json:"progress"`
	IsToday  bool      `json:"is_today"`
}

// Grid evaluates DayProgress for every day of Window(today, weekOffset).
func Grid(tasks []model.Task, completions []model.TaskCompletion, skips []model.TaskSkip, today time.Time, weekOffset int) []Cell {
	done := NewCompletionSet(completions)
	skipped := NewSkipSet(skips)
	t := Day(today)

	days := Window(today, weekOffset)
	cells := make([]Cell, len(days))
	for i, d := range days {
		cells[i] = Cell{
			Date:     d,
			Progress: dayProgress(tasks, done, d, t, skipped),
			IsToday:  d.Equal(t),
		}
	}
	return cells
}
