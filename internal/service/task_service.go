package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/repository"
)

var (
	ErrTitleRequired     = errors.New("title is required")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidRepeatType = errors.New("unknown repeat type")
	ErrFutureDate        = errors.New("future occurrences cannot be completed")
	ErrNotDue            = errors.New("task is not due on this date")
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title       string
	Description string
	StartDate   string
	RepeatType  model.RepeatType
}

// TaskUpdate holds the fields that may change after creation. The start date
// is fixed once a task exists.
type TaskUpdate struct {
	Title       string
	Description string
	RepeatType  model.RepeatType
}

// TaskService wraps task-related business logic.
type TaskService struct {
	taskRepo       *repository.TaskRepository
	completionRepo *repository.CompletionRepository
	skipRepo       *repository.SkipRepository
}

func NewTaskService(taskRepo *repository.TaskRepository, completionRepo *repository.CompletionRepository, skipRepo *repository.SkipRepository) *TaskService {
	return &TaskService{taskRepo: taskRepo, completionRepo: completionRepo, skipRepo: skipRepo}
}

// CreateTask validates input and appends the task at the end of the user's list.
func (s *TaskService) CreateTask(ctx context.Context, user *model.User, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	start, err := calendar.ParseDate(input.StartDate)
	if err != nil {
		return nil, ErrInvalidDate
	}

	repeatType := input.RepeatType
	if repeatType == "" {
		repeatType = model.RepeatNone
	}
	if !repeatType.Valid() {
		return nil, ErrInvalidRepeatType
	}

	order, err := s.taskRepo.NextSortOrder(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:      user.ID,
		Title:       title,
		Description: optional(input.Description),
		StartDate:   calendar.FormatDate(start),
		RepeatType:  repeatType,
		RepeatDay:   repeatDayFor(repeatType, start),
		SortOrder:   order,
	}

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *TaskService) ListTasks(ctx context.Context, user *model.User) ([]model.Task, error) {
	return s.taskRepo.ListByUser(ctx, user.ID)
}

func (s *TaskService) GetTask(ctx context.Context, user *model.User, taskID string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, user.ID, taskID)
}

// EditTask changes title, description and recurrence. For weekly tasks the
// repeat day is always recomputed from the start date.
func (s *TaskService) EditTask(ctx context.Context, user *model.User, taskID string, update TaskUpdate) (*model.Task, error) {
	title := strings.TrimSpace(update.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if !update.RepeatType.Valid() {
		return nil, ErrInvalidRepeatType
	}

	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}

	start, err := calendar.ParseDate(task.StartDate)
	if err != nil {
		return nil, fmt.Errorf("stored start date: %w", err)
	}

	task.Title = title
	task.Description = optional(update.Description)
	task.RepeatType = update.RepeatType
	task.RepeatDay = repeatDayFor(update.RepeatType, start)

	if err := s.taskRepo.UpdateDefinition(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// EndTask removes every occurrence on or after date.
func (s *TaskService) EndTask(ctx context.Context, user *model.User, taskID string, date time.Time) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.taskRepo.SetEndDate(ctx, task, calendar.FormatDate(date)); err != nil {
		return nil, err
	}
	return task, nil
}

// DeleteTask removes a task with all of its completions and skips.
func (s *TaskService) DeleteTask(ctx context.Context, user *model.User, taskID string) error {
	return s.taskRepo.Delete(ctx, user.ID, taskID)
}

// DeleteAll wipes the user's task data and reports how many tasks were removed.
func (s *TaskService) DeleteAll(ctx context.Context, user *model.User) (int64, error) {
	return s.taskRepo.DeleteAllByUser(ctx, user.ID)
}

// SkipOccurrence suppresses a single occurrence of a task.
func (s *TaskService) SkipOccurrence(ctx context.Context, user *model.User, taskID string, date time.Time) error {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return err
	}
	if !calendar.IsDue(*task, date) {
		return ErrNotDue
	}
	return s.skipRepo.Create(ctx, task.ID, calendar.FormatDate(date))
}

// UnskipOccurrence restores a skipped occurrence. It reports whether a skip
// was actually removed.
func (s *TaskService) UnskipOccurrence(ctx context.Context, user *model.User, taskID string, date time.Time) (bool, error) {
	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return false, err
	}
	return s.skipRepo.Delete(ctx, task.ID, calendar.FormatDate(date))
}

// ToggleCompletion flips the completion mark of a task on date and reports the
// new state. Only occurrences that are due and not in the future may be toggled.
func (s *TaskService) ToggleCompletion(ctx context.Context, user *model.User, taskID string, date, today time.Time) (bool, error) {
	if !calendar.Completable(date, today) {
		return false, ErrFutureDate
	}

	task, err := s.taskRepo.FindByID(ctx, user.ID, taskID)
	if err != nil {
		return false, err
	}

	skips, err := s.skipRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return false, err
	}
	if !calendar.IsDueWithSkips(*task, date, calendar.NewSkipSet(skips)) {
		return false, ErrNotDue
	}

	return s.completionRepo.Toggle(ctx, task.ID, calendar.FormatDate(date))
}

// Reorder persists a new display order given as the full list of task IDs.
func (s *TaskService) Reorder(ctx context.Context, user *model.User, orderedIDs []string) error {
	return s.taskRepo.Reorder(ctx, user.ID, orderedIDs)
}

// Move shifts a task up (negative delta) or down within the user's list.
func (s *TaskService) Move(ctx context.Context, user *model.User, taskID string, delta int) error {
	tasks, err := s.taskRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return err
	}

	ids := make([]string, len(tasks))
	from := -1
	for i, task := range tasks {
		ids[i] = task.ID
		if task.ID == taskID {
			from = i
		}
	}
	if from < 0 {
		return fmt.Errorf("move task: %w", gorm.ErrRecordNotFound)
	}

	to := min(max(from+delta, 0), len(ids)-1)
	if to == from {
		return nil
	}
	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{id}, ids[to:]...)...)

	return s.taskRepo.Reorder(ctx, user.ID, ids)
}

func repeatDayFor(repeatType model.RepeatType, start time.Time) *int {
	if repeatType != model.RepeatWeekly {
		return nil
	}
	weekday := int(start.Weekday())
	return &weekday
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
