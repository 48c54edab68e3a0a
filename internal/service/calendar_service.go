package service

import (
	"context"
	"time"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/repository"
)

// nextOccurrenceHorizon bounds how far ahead NextOccurrence looks, in days.
const nextOccurrenceHorizon = 366

// Snapshot is the full input of the calendar engine for one user.
type Snapshot struct {
	Tasks       []model.Task
	Completions []model.TaskCompletion
	Skips       []model.TaskSkip
}

// DayView is what a day list shows: the due tasks in display order and the
// day's progress.
type DayView struct {
	Date        time.Time
	Entries     []calendar.Entry
	Progress    calendar.Progress
	Completable bool
}

// GridView is the six-week calendar for a clamped week offset.
type GridView struct {
	WeekOffset       int
	MinWeekOffset    int
	CanScrollBack    bool
	CanScrollForward bool
	Cells            []calendar.Cell
}

// CalendarService loads a user's records and runs the calendar engine over
// them. Nothing is cached; every call reads a fresh snapshot.
type CalendarService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	skipRepo       *repository.SkipRepository
}

func NewCalendarService(taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, skipRepo *repository.SkipRepository) *CalendarService {
	return &CalendarService{taskRepo: taskRepo, completionRepo: completionRepo, skipRepo: skipRepo}
}

func (s *CalendarService) Snapshot(ctx context.Context, user *model.User) (Snapshot, error) {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return Snapshot{}, err
	}
	completions, err := s.completionRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return Snapshot{}, err
	}
	skips, err := s.skipRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Tasks: tasks, Completions: completions, Skips: skips}, nil
}

// Day returns the due list and progress of date as seen on today.
func (s *CalendarService) Day(ctx context.Context, user *model.User, date, today time.Time) (DayView, error) {
	snap, err := s.Snapshot(ctx, user)
	if err != nil {
		return DayView{}, err
	}
	return snap.Day(date, today), nil
}

// Grid returns the calendar window for weekOffset, clamped to the range the
// user's history allows.
func (s *CalendarService) Grid(ctx context.Context, user *model.User, today time.Time, weekOffset int) (GridView, error) {
	snap, err := s.Snapshot(ctx, user)
	if err != nil {
		return GridView{}, err
	}
	return snap.Grid(today, weekOffset), nil
}

// NextOccurrence returns the first due day of a task on or after from.
func (s *CalendarService) NextOccurrence(ctx context.Context, user *model.User, taskID string, from time.Time) (time.Time, bool, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return time.Time{}, false, err
	}
	skips, err := s.skipRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return time.Time{}, false, err
	}
	next, ok := calendar.NextOccurrence(*task, from, calendar.NewSkipSet(skips), nextOccurrenceHorizon)
	return next, ok, nil
}

func (snap Snapshot) Day(date, today time.Time) DayView {
	entries, progress := calendar.Agenda(snap.Tasks, snap.Completions, date, today, snap.Skips)
	return DayView{
		Date:        calendar.Day(date),
		Entries:     entries,
		Progress:    progress,
		Completable: calendar.Completable(date, today),
	}
}

func (snap Snapshot) Grid(today time.Time, weekOffset int) GridView {
	minOffset := calendar.MinWeekOffset(snap.Tasks, today)
	offset := calendar.ClampWeekOffset(weekOffset, minOffset)
	return GridView{
		WeekOffset:       offset,
		MinWeekOffset:    minOffset,
		CanScrollBack:    offset > minOffset,
		CanScrollForward: offset < 0,
		Cells:            calendar.Grid(snap.Tasks, snap.Completions, snap.Skips, today, offset),
	}
}
