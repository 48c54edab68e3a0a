package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-calendar/internal/model"
)

func TestWindow(t *testing.T) {
	today := mustDate(t, "2024-01-17")

	t.Run("current window", func(t *testing.T) {
		days := Window(today, 0)
		require.Len(t, days, WindowDays)
		assert.Equal(t, "2023-12-25", FormatDate(days[0]))
		assert.Equal(t, "2024-01-15", FormatDate(days[21]))
		assert.Equal(t, "2024-02-04", FormatDate(days[41]))
		for i := 1; i < len(days); i++ {
			assert.Equal(t, 1, DaysBetween(days[i-1], days[i]))
		}
	})

	t.Run("every row starts on monday", func(t *testing.T) {
		days := Window(today, -2)
		for i := 0; i < len(days); i += 7 {
			assert.Equal(t, "Monday", days[i].Weekday().String())
		}
	})

	t.Run("offset shifts by whole weeks", func(t *testing.T) {
		assert.Equal(t, "2023-12-18", FormatDate(Window(today, -1)[0]))
		assert.Equal(t, "2024-01-01", FormatDate(Window(today, 1)[0]))
	})

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, Window(today, -3), Window(today, -3))
	})
}

func TestMinWeekOffset(t *testing.T) {
	today := mustDate(t, "2024-03-13")

	assert.Equal(t, -6, MinWeekOffset(nil, today))
	assert.Equal(t, -6, MinWeekOffset([]model.Task{{StartDate: "2024-03-12"}}, today))
	assert.Equal(t, -13, MinWeekOffset([]model.Task{
		{StartDate: "2024-02-20"},
		{StartDate: "2024-01-03"},
		{StartDate: "garbage"},
	}, today))
}

func TestClampWeekOffset(t *testing.T) {
	assert.Equal(t, 0, ClampWeekOffset(2, -6))
	assert.Equal(t, -6, ClampWeekOffset(-10, -6))
	assert.Equal(t, -3, ClampWeekOffset(-3, -6))
}

func TestGrid(t *testing.T) {
	today := mustDate(t, "2024-01-17")
	tasks := []model.Task{{ID: "a", StartDate: "2024-01-15", RepeatType: model.RepeatDaily}}
	completions := []model.TaskCompletion{{TaskID: "a", CompletedDate: "2024-01-15"}}

	cells := Grid(tasks, completions, nil, today, 0)
	require.Len(t, cells, WindowDays)

	byDate := make(map[string]Cell, len(cells))
	todayCount := 0
	for _, c := range cells {
		byDate[FormatDate(c.Date)] = c
		if c.IsToday {
			todayCount++
		}
	}

	assert.Equal(t, 1, todayCount)
	assert.True(t, byDate["2024-01-17"].IsToday)
	assert.Equal(t, StatusNone, byDate["2024-01-14"].Progress.Status)
	assert.Equal(t, StatusComplete, byDate["2024-01-15"].Progress.Status)
	assert.Equal(t, StatusIncomplete, byDate["2024-01-16"].Progress.Status)
	assert.Equal(t, StatusIncomplete, byDate["2024-01-17"].Progress.Status)
	assert.Equal(t, StatusFuture, byDate["2024-01-18"].Progress.Status)

	for _, c := range Grid(tasks, completions, nil, today, -6) {
		assert.False(t, c.IsToday)
	}
}
