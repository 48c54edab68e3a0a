package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-calendar/internal/model"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func TestDay(t *testing.T) {
	t.Run("drops time of day in the source location", func(t *testing.T) {
		loc := time.FixedZone("UTC+10", 10*60*60)
		late := time.Date(2024, 1, 1, 23, 30, 0, 0, loc)
		assert.Equal(t, "2024-01-01", FormatDate(late))
		assert.True(t, Day(late).Equal(mustDate(t, "2024-01-01")))
	})

	t.Run("today in location", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 20, 0, 0, 0, time.UTC)
		loc := time.FixedZone("UTC+5", 5*60*60)
		assert.Equal(t, "2024-01-02", FormatDate(Today(now, loc)))
		assert.Equal(t, "2024-01-01", FormatDate(Today(now, nil)))
	})

	t.Run("days between across DST", func(t *testing.T) {
		assert.Equal(t, 14, DaysBetween(mustDate(t, "2024-03-20"), mustDate(t, "2024-04-03")))
		assert.Equal(t, -1, DaysBetween(mustDate(t, "2024-01-02"), mustDate(t, "2024-01-01")))
	})

	t.Run("start of week is monday", func(t *testing.T) {
		assert.Equal(t, "2024-01-15", FormatDate(StartOfWeek(mustDate(t, "2024-01-17"))))
		assert.Equal(t, "2024-01-15", FormatDate(StartOfWeek(mustDate(t, "2024-01-21"))))
		assert.Equal(t, "2024-01-15", FormatDate(StartOfWeek(mustDate(t, "2024-01-15"))))
	})

	t.Run("parse rejects garbage", func(t *testing.T) {
		_, err := ParseDate("01/02/2024")
		assert.Error(t, err)
	})
}

func TestIsDue(t *testing.T) {
	tests := []struct {
		name string
		task model.Task
		due  []string
		not  []string
	}{
		{
			name: "one-off",
			task: model.Task{ID: "a", StartDate: "2024-01-10", RepeatType: model.RepeatNone},
			due:  []string{"2024-01-10"},
			not:  []string{"2024-01-09", "2024-01-11", "2024-01-24"},
		},
		{
			name: "daily",
			task: model.Task{ID: "a", StartDate: "2024-01-10", RepeatType: model.RepeatDaily},
			due:  []string{"2024-01-10", "2024-01-11", "2025-06-30"},
			not:  []string{"2024-01-09"},
		},
		{
			name: "weekly on monday",
			task: model.Task{ID: "a", StartDate: "2024-01-01", RepeatType: model.RepeatWeekly, RepeatDay: intPtr(1)},
			due:  []string{"2024-01-01", "2024-01-08", "2024-01-15"},
			not:  []string{"2024-01-02", "2024-01-09", "2023-12-25"},
		},
		{
			name: "weekly without repeat day",
			task: model.Task{ID: "a", StartDate: "2024-01-01", RepeatType: model.RepeatWeekly},
			not:  []string{"2024-01-01", "2024-01-08"},
		},
		{
			name: "fortnightly",
			task: model.Task{ID: "a", StartDate: "2024-01-01", RepeatType: model.RepeatFortnightly},
			due:  []string{"2024-01-01", "2024-01-15", "2024-01-29"},
			not:  []string{"2024-01-08", "2024-01-14", "2023-12-18"},
		},
		{
			name: "daily with end date",
			task: model.Task{ID: "a", StartDate: "2024-01-01", EndDate: strPtr("2024-02-01"), RepeatType: model.RepeatDaily},
			due:  []string{"2024-01-31"},
			not:  []string{"2024-02-01", "2024-02-02"},
		},
		{
			name: "unknown repeat type",
			task: model.Task{ID: "a", StartDate: "2024-01-01", RepeatType: "monthly"},
			not:  []string{"2024-01-01", "2024-02-01"},
		},
		{
			name: "malformed start date",
			task: model.Task{ID: "a", StartDate: "soon", RepeatType: model.RepeatDaily},
			not:  []string{"2024-01-01"},
		},
		{
			name: "malformed end date is ignored",
			task: model.Task{ID: "a", StartDate: "2024-01-01", EndDate: strPtr("never"), RepeatType: model.RepeatDaily},
			due:  []string{"2030-01-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, d := range tt.due {
				assert.True(t, IsDue(tt.task, mustDate(t, d)), "expected due on %s", d)
			}
			for _, d := range tt.not {
				assert.False(t, IsDue(tt.task, mustDate(t, d)), "expected not due on %s", d)
			}
		})
	}
}

func TestIsDue_IgnoresTimeOfDay(t *testing.T) {
	task := model.Task{ID: "a", StartDate: "2024-01-10", RepeatType: model.RepeatNone}
	evening := time.Date(2024, 1, 10, 22, 15, 0, 0, time.FixedZone("UTC-8", -8*60*60))
	assert.True(t, IsDue(task, evening))
}

func TestRecurrenceProperties(t *testing.T) {
	first := mustDate(t, "2024-01-01")
	days := make([]time.Time, 200)
	for i := range days {
		days[i] = AddDays(first, i)
	}

	dueDates := func(task model.Task) []time.Time {
		var out []time.Time
		for _, d := range days {
			if IsDue(task, d) {
				out = append(out, d)
			}
		}
		return out
	}

	t.Run("one-off is due exactly once", func(t *testing.T) {
		task := model.Task{ID: "a", StartDate: "2024-02-14", RepeatType: model.RepeatNone}
		got := dueDates(task)
		require.Len(t, got, 1)
		assert.Equal(t, "2024-02-14", FormatDate(got[0]))
	})

	t.Run("daily is due every day from start", func(t *testing.T) {
		task := model.Task{ID: "a", StartDate: "2024-02-14", RepeatType: model.RepeatDaily}
		start := mustDate(t, "2024-02-14")
		for _, d := range days {
			assert.Equal(t, !d.Before(start), IsDue(task, d), FormatDate(d))
		}
	})

	t.Run("weekly matches the start weekday", func(t *testing.T) {
		start := mustDate(t, "2024-01-04")
		task := model.Task{ID: "a", StartDate: "2024-01-04", RepeatType: model.RepeatWeekly, RepeatDay: intPtr(int(start.Weekday()))}
		for _, d := range dueDates(task) {
			assert.Equal(t, start.Weekday(), d.Weekday())
			assert.False(t, d.Before(start))
		}
		assert.Len(t, dueDates(task), 29)
	})

	t.Run("fortnightly gaps are fourteen days", func(t *testing.T) {
		task := model.Task{ID: "a", StartDate: "2024-01-03", RepeatType: model.RepeatFortnightly}
		got := dueDates(task)
		require.NotEmpty(t, got)
		assert.Equal(t, "2024-01-03", FormatDate(got[0]))
		for i := 1; i < len(got); i++ {
			assert.Equal(t, 14, DaysBetween(got[i-1], got[i]))
		}
	})

	t.Run("end date truncates any rule", func(t *testing.T) {
		end := mustDate(t, "2024-03-01")
		for _, rt := range []model.RepeatType{model.RepeatDaily, model.RepeatWeekly, model.RepeatFortnightly} {
			task := model.Task{ID: "a", StartDate: "2024-01-01", EndDate: strPtr("2024-03-01"), RepeatType: rt, RepeatDay: intPtr(1)}
			for _, d := range dueDates(task) {
				assert.True(t, d.Before(end), "%s due on %s", rt, FormatDate(d))
			}
		}
	})
}

func TestOccurrencesOn(t *testing.T) {
	tasks := []model.Task{
		{ID: "b", StartDate: "2024-01-01", RepeatType: model.RepeatDaily, SortOrder: 0},
		{ID: "a", StartDate: "2024-01-01", RepeatType: model.RepeatWeekly, RepeatDay: intPtr(1), SortOrder: 1},
		{ID: "c", StartDate: "2024-01-08", RepeatType: model.RepeatNone, SortOrder: 2},
	}

	t.Run("preserves input order", func(t *testing.T) {
		got := OccurrencesOn(tasks, mustDate(t, "2024-01-08"), nil)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"b", "a", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("skip removes only that occurrence", func(t *testing.T) {
		skips := []model.TaskSkip{{TaskID: "a", SkippedDate: "2024-01-08"}}

		got := OccurrencesOn(tasks, mustDate(t, "2024-01-08"), skips)
		require.Len(t, got, 2)
		assert.Equal(t, "b", got[0].ID)
		assert.Equal(t, "c", got[1].ID)

		next := OccurrencesOn(tasks, mustDate(t, "2024-01-15"), skips)
		require.Len(t, next, 2)
		assert.Equal(t, "a", next[1].ID)
	})

	t.Run("skip wins over every rule", func(t *testing.T) {
		skips := []model.TaskSkip{
			{TaskID: "b", SkippedDate: "2024-01-08"},
			{TaskID: "a", SkippedDate: "2024-01-08"},
			{TaskID: "c", SkippedDate: "2024-01-08"},
		}
		assert.Empty(t, OccurrencesOn(tasks, mustDate(t, "2024-01-08"), skips))
	})
}

func TestNextOccurrence(t *testing.T) {
	weekly := model.Task{ID: "w", StartDate: "2024-01-01", RepeatType: model.RepeatWeekly, RepeatDay: intPtr(1)}

	t.Run("finds the next matching day", func(t *testing.T) {
		got, ok := NextOccurrence(weekly, mustDate(t, "2024-01-02"), nil, 30)
		require.True(t, ok)
		assert.Equal(t, "2024-01-08", FormatDate(got))
	})

	t.Run("jumps to start date", func(t *testing.T) {
		got, ok := NextOccurrence(weekly, mustDate(t, "2023-11-01"), nil, 365)
		require.True(t, ok)
		assert.Equal(t, "2024-01-01", FormatDate(got))
	})

	t.Run("honours skips", func(t *testing.T) {
		skips := NewSkipSet([]model.TaskSkip{{TaskID: "w", SkippedDate: "2024-01-08"}})
		got, ok := NextOccurrence(weekly, mustDate(t, "2024-01-02"), skips, 30)
		require.True(t, ok)
		assert.Equal(t, "2024-01-15", FormatDate(got))
	})

	t.Run("stops at end date", func(t *testing.T) {
		task := model.Task{ID: "d", StartDate: "2024-01-01", EndDate: strPtr("2024-01-05"), RepeatType: model.RepeatDaily}
		_, ok := NextOccurrence(task, mustDate(t, "2024-01-05"), nil, 30)
		assert.False(t, ok)
	})

	t.Run("one-off in the past", func(t *testing.T) {
		task := model.Task{ID: "o", StartDate: "2024-01-01", RepeatType: model.RepeatNone}
		_, ok := NextOccurrence(task, mustDate(t, "2024-01-02"), nil, 30)
		assert.False(t, ok)
	})

	t.Run("beyond horizon", func(t *testing.T) {
		task := model.Task{ID: "f", StartDate: "2024-01-01", RepeatType: model.RepeatFortnightly}
		_, ok := NextOccurrence(task, mustDate(t, "2024-01-02"), nil, 7)
		assert.False(t, ok)
	})
}
