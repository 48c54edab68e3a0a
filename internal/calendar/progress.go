package calendar

import (
	"time"

	"task-calendar/internal/model"
)

// Status classifies a day for calendar display.
type Status string

const (
	StatusNone       Status = "none"
	StatusFuture     Status = "future"
	StatusComplete   Status = "complete"
	StatusPartial    Status = "partial"
	StatusIncomplete Status = "incomplete"
)

// Progress is the derived completion state of one day. It is never stored.
type Progress struct {
	Status    Status  `json:"status"`
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Progress  float64 `json:"progress"`
}

// CompletionSet indexes completion records by (task, date).
type CompletionSet map[occurrenceKey]struct{}

func NewCompletionSet(completions []model.TaskCompletion) CompletionSet {
	set := make(CompletionSet, len(completions))
	for _, c := range completions {
		set[occurrenceKey{taskID: c.TaskID, date: c.CompletedDate}] = struct{}{}
	}
	return set
}

// Has reports whether taskID has a completion on date.
func (s CompletionSet) Has(taskID string, date time.Time) bool {
	if len(s) == 0 {
		return false
	}
	_, ok := s[occurrenceKey{taskID: taskID, date: FormatDate(date)}]
	return ok
}

// DayProgress reduces the tasks due on date against the completion records.
// Future days report their due count but never any completions.
func DayProgress(tasks []model.Task, completions []model.TaskCompletion, date, today time.Time, skips []model.TaskSkip) Progress {
	return dayProgress(tasks, NewCompletionSet(completions), date, today, NewSkipSet(skips))
}

func dayProgress(tasks []model.Task, done CompletionSet, date, today time.Time, skips SkipSet) Progress {
	return progressOf(occurrencesOn(tasks, date, skips), done, date, today)
}

func progressOf(due []model.Task, done CompletionSet, date, today time.Time) Progress {
	if len(due) == 0 {
		return Progress{Status: StatusNone}
	}

	total := len(due)
	if IsFuture(date, today) {
		return Progress{Status: StatusFuture, Total: total}
	}

	completed := 0
	for _, task := range due {
		if done.Has(task.ID, date) {
			completed++
		}
	}

	p := Progress{
		Total:     total,
		Completed: completed,
		Progress:  float64(completed) / float64(total),
	}
	switch {
	case completed == 0:
		p.Status = StatusIncomplete
	case completed == total:
		p.Status = StatusComplete
	default:
		p.Status = StatusPartial
	}
	return p
}

// Completable reports whether completions may be toggled on date.
func Completable(date, today time.Time) bool {
	return !IsFuture(date, today)
}

// Entry is a task due on a specific day together with its completion mark.
type Entry struct {
	Task      model.Task
	Completed bool
}

// Agenda lists the tasks due on date in input order along with the day's
// progress. Completion marks are never reported for future days.
func Agenda(tasks []model.Task, completions []model.TaskCompletion, date, today time.Time, skips []model.TaskSkip) ([]Entry, Progress) {
	done := NewCompletionSet(completions)
	due := occurrencesOn(tasks, date, NewSkipSet(skips))
	future := IsFuture(date, today)

	entries := make([]Entry, len(due))
	for i, task := range due {
		entries[i] = Entry{Task: task, Completed: !future && done.Has(task.ID, date)}
	}
	return entries, progressOf(due, done, date, today)
}
