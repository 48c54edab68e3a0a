package service

import (
	"context"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	calendarSvc *CalendarService
}

func NewReminderService(calendarSvc *CalendarService) *ReminderService {
	return &ReminderService{calendarSvc: calendarSvc}
}

// DailySummary lists today's tasks with their marks and reminds about an
// unfinished yesterday.
func (s *ReminderService) DailySummary(ctx context.Context, user model.User, today time.Time) (string, error) {
	snap, err := s.calendarSvc.Snapshot(ctx, &user)
	if err != nil {
		return "", err
	}

	day := snap.Day(today, today)
	yesterday := snap.Day(calendar.AddDays(today, -1), today)

	var builder strings.Builder
	builder.WriteString("📋 <b>Задачи на сегодня</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", today.Format("02.01.2006")))

	if len(day.Entries) == 0 {
		builder.WriteString("— на сегодня задач нет\n")
	} else {
		for _, entry := range day.Entries {
			builder.WriteString(FormatEntry(entry))
		}
		builder.WriteString(fmt.Sprintf("\n%s %s\n", StatusIcon(day.Progress.Status), FormatProgress(day.Progress)))
	}

	switch yesterday.Progress.Status {
	case calendar.StatusIncomplete, calendar.StatusPartial:
		builder.WriteString(fmt.Sprintf("\n⚠️ Вчера: %s\n", FormatProgress(yesterday.Progress)))
	}

	return strings.TrimSpace(builder.String()), nil
}

// FormatEntry renders one due task as an HTML line.
func FormatEntry(entry calendar.Entry) string {
	var sb strings.Builder
	mark := "⬜"
	if entry.Completed {
		mark = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s", mark, html.EscapeString(strings.TrimSpace(entry.Task.Title))))
	if entry.Task.IsRepeating() {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", RepeatLabel(entry.Task.RepeatType)))
	}
	if entry.Task.Description != nil && *entry.Task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(*entry.Task.Description))))
	}
	sb.WriteByte('\n')
	return sb.String()
}

// FormatProgress renders "выполнено X из Y (Z%)".
func FormatProgress(p calendar.Progress) string {
	if p.Total == 0 {
		return "задач нет"
	}
	if p.Status == calendar.StatusFuture {
		return fmt.Sprintf("запланировано задач: %d", p.Total)
	}
	percent := int(math.Round(p.Progress * 100))
	return fmt.Sprintf("выполнено %d из %d (%d%%)", p.Completed, p.Total, percent)
}

// StatusIcon maps a day status to the emoji used in calendar cells.
func StatusIcon(status calendar.Status) string {
	switch status {
	case calendar.StatusComplete:
		return "🟩"
	case calendar.StatusPartial:
		return "🟨"
	case calendar.StatusIncomplete:
		return "🟥"
	case calendar.StatusFuture:
		return "🟦"
	default:
		return "⬜"
	}
}

// RepeatLabel is the user-facing name of a recurrence rule.
func RepeatLabel(repeatType model.RepeatType) string {
	switch repeatType {
	case model.RepeatDaily:
		return "каждый день"
	case model.RepeatWeekly:
		return "каждую неделю"
	case model.RepeatFortnightly:
		return "раз в две недели"
	case model.RepeatNone:
		return "один раз"
	default:
		return string(repeatType)
	}
}
