package calendar

import (
	"time"

	"task-calendar/internal/model"
)

type occurrenceKey struct {
	taskID string
	date   string
}

// SkipSet indexes skip records by (task, date). The zero value is an empty set.
type SkipSet map[occurrenceKey]struct{}

// NewSkipSet builds a lookup set from skip records.
func NewSkipSet(skips []model.TaskSkip) SkipSet {
	set := make(SkipSet, len(skips))
	for _, s := range skips {
		set[occurrenceKey{taskID: s.TaskID, date: s.SkippedDate}] = struct{}{}
	}
	return set
}

// Has reports whether the occurrence of taskID on date is skipped.
func (s SkipSet) Has(taskID string, date time.Time) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[occurrenceKey{taskID: taskID, date: FormatDate(date)}]
	return ok
}

// IsDue applies the task's boundaries and recurrence rule to date. Skips are
// not considered; see IsDueWithSkips.
//
// A task whose start date cannot be parsed is never due. An unparsable end
// date is ignored. Unknown repeat types are never due.
func IsDue(task model.Task, date time.Time) bool {
	start, err := ParseDate(task.StartDate)
	if err != nil {
		return false
	}

	d := Day(date)
	if d.Before(start) {
		return false
	}

	if task.EndDate != nil {
		if end, err := ParseDate(*task.EndDate); err == nil && !d.Before(end) {
			return false
		}
	}

	switch task.RepeatType {
	case model.RepeatNone:
		return d.Equal(start)
	case model.RepeatDaily:
		return true
	case model.RepeatWeekly:
		return task.RepeatDay != nil && int(d.Weekday()) == *task.RepeatDay
	case model.RepeatFortnightly:
		diff := DaysBetween(start, d)
		return diff >= 0 && diff%14 == 0
	default:
		return false
	}
}

// IsDueWithSkips is IsDue with a skip on (task, date) taking precedence over
// every other rule.
func IsDueWithSkips(task model.Task, date time.Time, skips SkipSet) bool {
	if skips.Has(task.ID, date) {
		return false
	}
	return IsDue(task, date)
}

// OccurrencesOn returns the tasks due on date, in input order.
func OccurrencesOn(tasks []model.Task, date time.Time, skips []model.TaskSkip) []model.Task {
	return occurrencesOn(tasks, date, NewSkipSet(skips))
}

func occurrencesOn(tasks []model.Task, date time.Time, skips SkipSet) []model.Task {
	due := make([]model.Task, 0, len(tasks))
	for _, task := range tasks {
		if IsDueWithSkips(task, date, skips) {
			due = append(due, task)
		}
	}
	return due
}

// NextOccurrence finds the first day on or after from when task is due,
// looking at most horizon days ahead.
func NextOccurrence(task model.Task, from time.Time, skips SkipSet, horizon int) (time.Time, bool) {
	start, err := ParseDate(task.StartDate)
	if err != nil {
		return time.Time{}, false
	}

	d := Day(from)
	last := AddDays(d, horizon)
	if d.Before(start) {
		d = start
	}

	for !d.After(last) {
		if task.EndDate != nil {
			if end, err := ParseDate(*task.EndDate); err == nil && !d.Before(end) {
				return time.Time{}, false
			}
		}
		if IsDueWithSkips(task, d, skips) {
			return d, true
		}
		if task.RepeatType == model.RepeatNone && d.After(start) {
			return time.Time{}, false
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}
