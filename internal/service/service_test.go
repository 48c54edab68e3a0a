package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/repository"
)

type fixture struct {
	tasks     *TaskService
	calendar  *CalendarService
	reminders *ReminderService
	user      *model.User
	other     *model.User
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	users := repository.NewUserRepository(db)
	user, err := users.UpsertFromTelegram(context.Background(), 100, "Ann", "", "ann")
	require.NoError(t, err)
	other, err := users.UpsertFromTelegram(context.Background(), 200, "Bob", "", "bob")
	require.NoError(t, err)

	taskRepo := repository.NewTaskRepository(db)
	completionRepo := repository.NewCompletionRepository(db)
	skipRepo := repository.NewSkipRepository(db)
	cal := NewCalendarService(taskRepo, completionRepo, skipRepo)

	return fixture{
		tasks:     NewTaskService(taskRepo, completionRepo, skipRepo),
		calendar:  cal,
		reminders: NewReminderService(cal),
		user:      user,
		other:     other,
	}
}

func (f fixture) create(t *testing.T, title, start string, repeat model.RepeatType) *model.Task {
	t.Helper()
	task, err := f.tasks.CreateTask(context.Background(), f.user, TaskInput{Title: title, StartDate: start, RepeatType: repeat})
	require.NoError(t, err)
	return task
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := calendar.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestTaskService_CreateTask(t *testing.T) {
	ctx := context.Background()

	t.Run("weekly takes repeat day from start date", func(t *testing.T) {
		f := newFixture(t)
		task := f.create(t, "Gym", "2024-01-03", model.RepeatWeekly)
		require.NotNil(t, task.RepeatDay)
		assert.Equal(t, int(time.Wednesday), *task.RepeatDay)
		assert.Equal(t, 0, task.SortOrder)
	})

	t.Run("appends to the end and normalizes fields", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, "first", "2024-01-03", model.RepeatDaily)

		task, err := f.tasks.CreateTask(ctx, f.user, TaskInput{Title: "  second ", Description: "   ", StartDate: "2024-01-04"})
		require.NoError(t, err)
		assert.Equal(t, "second", task.Title)
		assert.Nil(t, task.Description)
		assert.Nil(t, task.RepeatDay)
		assert.Equal(t, model.RepeatNone, task.RepeatType)
		assert.Equal(t, 1, task.SortOrder)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		tests := []struct {
			name  string
			input TaskInput
			want  error
		}{
			{name: "empty title", input: TaskInput{Title: " ", StartDate: "2024-01-01"}, want: ErrTitleRequired},
			{name: "bad date", input: TaskInput{Title: "a", StartDate: "tomorrow"}, want: ErrInvalidDate},
			{name: "bad repeat", input: TaskInput{Title: "a", StartDate: "2024-01-01", RepeatType: "monthly"}, want: ErrInvalidRepeatType},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := f.tasks.CreateTask(ctx, f.user, tt.input)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}

func TestTaskService_EditTask(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.create(t, "Read", "2024-01-06", model.RepeatDaily)

	edited, err := f.tasks.EditTask(ctx, f.user, task.ID, TaskUpdate{Title: "Read a book", Description: "20 pages", RepeatType: model.RepeatWeekly})
	require.NoError(t, err)
	require.NotNil(t, edited.RepeatDay)
	assert.Equal(t, int(time.Saturday), *edited.RepeatDay)

	got, err := f.tasks.GetTask(ctx, f.user, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Read a book", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, "20 pages", *got.Description)
	assert.Equal(t, model.RepeatWeekly, got.RepeatType)

	edited, err = f.tasks.EditTask(ctx, f.user, task.ID, TaskUpdate{Title: "Read", RepeatType: model.RepeatFortnightly})
	require.NoError(t, err)
	assert.Nil(t, edited.RepeatDay)

	_, err = f.tasks.EditTask(ctx, f.user, task.ID, TaskUpdate{Title: "", RepeatType: model.RepeatDaily})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = f.tasks.EditTask(ctx, f.other, task.ID, TaskUpdate{Title: "x", RepeatType: model.RepeatDaily})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTaskService_ToggleCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := mustDate(t, "2024-01-10")
	weekly := f.create(t, "Plants", "2024-01-01", model.RepeatWeekly)

	_, err := f.tasks.ToggleCompletion(ctx, f.user, weekly.ID, mustDate(t, "2024-01-15"), today)
	assert.ErrorIs(t, err, ErrFutureDate)

	_, err = f.tasks.ToggleCompletion(ctx, f.user, weekly.ID, mustDate(t, "2024-01-09"), today)
	assert.ErrorIs(t, err, ErrNotDue)

	done, err := f.tasks.ToggleCompletion(ctx, f.user, weekly.ID, mustDate(t, "2024-01-08"), today)
	require.NoError(t, err)
	assert.True(t, done)

	view, err := f.calendar.Day(ctx, f.user, mustDate(t, "2024-01-08"), today)
	require.NoError(t, err)
	assert.Equal(t, calendar.StatusComplete, view.Progress.Status)

	done, err = f.tasks.ToggleCompletion(ctx, f.user, weekly.ID, mustDate(t, "2024-01-08"), today)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, f.tasks.SkipOccurrence(ctx, f.user, weekly.ID, mustDate(t, "2024-01-01")))
	_, err = f.tasks.ToggleCompletion(ctx, f.user, weekly.ID, mustDate(t, "2024-01-01"), today)
	assert.ErrorIs(t, err, ErrNotDue)
}

func TestTaskService_SkipAndUnskip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := mustDate(t, "2024-01-10")
	daily := f.create(t, "Walk", "2024-01-01", model.RepeatDaily)
	f.create(t, "Call mom", "2024-01-10", model.RepeatNone)

	err := f.tasks.SkipOccurrence(ctx, f.user, daily.ID, mustDate(t, "2023-12-31"))
	assert.ErrorIs(t, err, ErrNotDue)

	require.NoError(t, f.tasks.SkipOccurrence(ctx, f.user, daily.ID, today))

	view, err := f.calendar.Day(ctx, f.user, today, today)
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "Call mom", view.Entries[0].Task.Title)

	other, err := f.calendar.Day(ctx, f.user, mustDate(t, "2024-01-09"), today)
	require.NoError(t, err)
	assert.Len(t, other.Entries, 1)

	restored, err := f.tasks.UnskipOccurrence(ctx, f.user, daily.ID, today)
	require.NoError(t, err)
	assert.True(t, restored)

	view, err = f.calendar.Day(ctx, f.user, today, today)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 2)
}

func TestTaskService_EndAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := mustDate(t, "2024-01-10")
	daily := f.create(t, "Walk", "2024-01-01", model.RepeatDaily)

	ended, err := f.tasks.EndTask(ctx, f.user, daily.ID, today)
	require.NoError(t, err)
	require.NotNil(t, ended.EndDate)
	assert.Equal(t, "2024-01-10", *ended.EndDate)

	view, err := f.calendar.Day(ctx, f.user, today, today)
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	assert.Equal(t, calendar.StatusNone, view.Progress.Status)

	view, err = f.calendar.Day(ctx, f.user, mustDate(t, "2024-01-09"), today)
	require.NoError(t, err)
	assert.Len(t, view.Entries, 1)

	require.NoError(t, f.tasks.DeleteTask(ctx, f.user, daily.ID))
	tasks, err := f.tasks.ListTasks(ctx, f.user)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTaskService_ReorderAndMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := f.create(t, "a", "2024-01-01", model.RepeatDaily)
	b := f.create(t, "b", "2024-01-01", model.RepeatDaily)
	c := f.create(t, "c", "2024-01-01", model.RepeatDaily)

	ids := func() []string {
		tasks, err := f.tasks.ListTasks(ctx, f.user)
		require.NoError(t, err)
		out := make([]string, len(tasks))
		for i, task := range tasks {
			out[i] = task.ID
		}
		return out
	}

	require.NoError(t, f.tasks.Move(ctx, f.user, c.ID, -1))
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, ids())

	require.NoError(t, f.tasks.Move(ctx, f.user, a.ID, 10))
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, ids())

	require.NoError(t, f.tasks.Reorder(ctx, f.user, []string{b.ID, a.ID, c.ID}))
	assert.Equal(t, []string{b.ID, a.ID, c.ID}, ids())

	view, err := f.calendar.Day(ctx, f.user, mustDate(t, "2024-01-02"), mustDate(t, "2024-01-02"))
	require.NoError(t, err)
	require.Len(t, view.Entries, 3)
	assert.Equal(t, "b", view.Entries[0].Task.Title)

	err = f.tasks.Move(ctx, f.user, "missing", 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTaskService_DeleteAll(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.create(t, "a", "2024-01-01", model.RepeatDaily)
	f.create(t, "b", "2024-01-01", model.RepeatNone)
	_, err := f.tasks.CreateTask(ctx, f.other, TaskInput{Title: "z", StartDate: "2024-01-01"})
	require.NoError(t, err)

	deleted, err := f.tasks.DeleteAll(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	left, err := f.tasks.ListTasks(ctx, f.other)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestCalendarService_Grid(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := mustDate(t, "2024-03-13")
	f.create(t, "old", "2024-01-03", model.RepeatDaily)

	view, err := f.calendar.Grid(ctx, f.user, today, 0)
	require.NoError(t, err)
	assert.Len(t, view.Cells, calendar.WindowDays)
	assert.Equal(t, -13, view.MinWeekOffset)
	assert.True(t, view.CanScrollBack)
	assert.False(t, view.CanScrollForward)

	view, err = f.calendar.Grid(ctx, f.user, today, 4)
	require.NoError(t, err)
	assert.Equal(t, 0, view.WeekOffset)

	view, err = f.calendar.Grid(ctx, f.user, today, -40)
	require.NoError(t, err)
	assert.Equal(t, -13, view.WeekOffset)
	assert.False(t, view.CanScrollBack)
	assert.True(t, view.CanScrollForward)
}

func TestCalendarService_NextOccurrence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.create(t, "Bins", "2024-01-01", model.RepeatFortnightly)

	next, ok, err := f.calendar.NextOccurrence(ctx, f.user, task.ID, mustDate(t, "2024-01-02"))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2024-01-15", calendar.FormatDate(next))

	_, _, err = f.calendar.NextOccurrence(ctx, f.other, task.ID, mustDate(t, "2024-01-02"))
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestReminderService_DailySummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	today := mustDate(t, "2024-01-10")
	walk := f.create(t, "Walk <dog>", "2024-01-01", model.RepeatDaily)
	f.create(t, "Dentist", "2024-01-10", model.RepeatNone)

	_, err := f.tasks.ToggleCompletion(ctx, f.user, walk.ID, today, today)
	require.NoError(t, err)

	text, err := f.reminders.DailySummary(ctx, *f.user, today)
	require.NoError(t, err)
	assert.Contains(t, text, "10.01.2024")
	assert.Contains(t, text, "✅ Walk &lt;dog&gt; <i>(каждый день)</i>")
	assert.Contains(t, text, "⬜ Dentist")
	assert.Contains(t, text, "выполнено 1 из 2 (50%)")
	assert.Contains(t, text, "Вчера: выполнено 0 из 1 (0%)")

	empty, err := f.reminders.DailySummary(ctx, *f.other, today)
	require.NoError(t, err)
	assert.Contains(t, empty, "на сегодня задач нет")
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	_, err = buildDailySpec("8:3:0")
	assert.Error(t, err)
}

func TestSchedulerService_ScheduleDaily(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	s := NewSchedulerService(loc)

	id, err := s.ScheduleDaily("07:15", func() {})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	next := s.Next(id).In(loc)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 15, next.Minute())
}
