package bot

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/service"
)

var weekdayNames = [...]string{
	time.Sunday:    "Воскресенье",
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
}

var weekdayShort = [...]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

const legend = "🟩 всё сделано · 🟨 частично · 🟥 не сделано · 🟦 впереди · ⬜ нет задач"

func renderDay(view service.DayView, today time.Time) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 <b>%s, %s</b>", weekdayNames[view.Date.Weekday()], formatDate(view.Date)))
	if view.Date.Equal(today) {
		sb.WriteString(" · сегодня")
	}
	sb.WriteString("\n")

	if len(view.Entries) == 0 {
		sb.WriteString("\n— задач нет\n")
	} else {
		sb.WriteString(fmt.Sprintf("%s %s\n\n", service.StatusIcon(view.Progress.Status), service.FormatProgress(view.Progress)))
		for _, entry := range view.Entries {
			sb.WriteString(service.FormatEntry(entry))
		}
		if !view.Completable {
			sb.WriteString("\n<i>Этот день ещё впереди: отметить выполнение пока нельзя.</i>\n")
		}
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, entry := range view.Entries {
		var row []tgbotapi.InlineKeyboardButton
		if view.Completable {
			mark := "⬜"
			if entry.Completed {
				mark = "✅"
			}
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%s %s", mark, shortTitle(entry.Task.Title, 24)),
				taskDateCallback(cbToggle, entry.Task.ID, view.Date),
			))
		} else {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗓 %s", shortTitle(entry.Task.Title, 24)),
				cbNoop,
			))
		}
		if entry.Task.IsRepeating() {
			row = append(row,
				tgbotapi.NewInlineKeyboardButtonData("⏭", taskDateCallback(cbSkip, entry.Task.ID, view.Date)),
				tgbotapi.NewInlineKeyboardButtonData("⏹", taskDateCallback(cbEnd, entry.Task.ID, view.Date)),
			)
		}
		rows = append(rows, row)
	}

	nav := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("◀️", dayCallback(calendar.AddDays(view.Date, -1))),
	}
	if !view.Date.Equal(today) {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Сегодня", dayCallback(today)))
	}
	nav = append(nav,
		tgbotapi.NewInlineKeyboardButtonData("▶️", dayCallback(calendar.AddDays(view.Date, 1))),
		tgbotapi.NewInlineKeyboardButtonData("🗓", gridCallback(0)),
	)
	rows = append(rows, nav)

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(sb.String()), &markup
}

func renderGrid(view service.GridView) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("🗓 <b>Календарь</b>\n")
	if len(view.Cells) > 0 {
		first, last := view.Cells[0].Date, view.Cells[len(view.Cells)-1].Date
		sb.WriteString(fmt.Sprintf("%s – %s\n", formatDate(first), formatDate(last)))
	}
	sb.WriteString("\n")
	sb.WriteString(legend)
	sb.WriteString("\nНажми на день, чтобы открыть его задачи.")

	header := make([]tgbotapi.InlineKeyboardButton, len(weekdayShort))
	for i, name := range weekdayShort {
		header[i] = tgbotapi.NewInlineKeyboardButtonData(name, cbNoop)
	}
	rows := [][]tgbotapi.InlineKeyboardButton{header}

	for start := 0; start < len(view.Cells); start += 7 {
		end := min(start+7, len(view.Cells))
		row := make([]tgbotapi.InlineKeyboardButton, 0, 7)
		for _, cell := range view.Cells[start:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(cellLabel(cell), dayCallback(cell.Date)))
		}
		rows = append(rows, row)
	}

	var nav []tgbotapi.InlineKeyboardButton
	if view.CanScrollBack {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("◀️ Раньше", gridCallback(view.WeekOffset-1)))
	}
	if view.WeekOffset != 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Сейчас", gridCallback(0)))
	}
	if view.CanScrollForward {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Позже ▶️", gridCallback(view.WeekOffset+1)))
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return sb.String(), &markup
}

// cellLabel shows the day of month with its status icon; today is bracketed.
func cellLabel(cell calendar.Cell) string {
	label := fmt.Sprintf("%d", cell.Date.Day())
	if cell.Progress.Status != calendar.StatusNone {
		label = service.StatusIcon(cell.Progress.Status) + label
	}
	if cell.IsToday {
		label = "[" + label + "]"
	}
	return label
}

// renderTaskList lists every task in display order. It returns a nil markup
// when there is nothing to act on.
func renderTaskList(tasks []model.Task) (string, *tgbotapi.InlineKeyboardMarkup) {
	if len(tasks) == 0 {
		return "У тебя пока нет задач. Добавь первую через /newtask.", nil
	}

	var sb strings.Builder
	sb.WriteString("📋 <b>Все задачи</b>\n")
	sb.WriteString("Стрелки меняют порядок, 🗑 удаляет задачу.\n\n")

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tasks))
	for i, task := range tasks {
		sb.WriteString(fmt.Sprintf("<b>%d.</b> %s\n", i+1, escape(task.Title)))
		sb.WriteString(fmt.Sprintf("   🔁 %s · с %s", service.RepeatLabel(task.RepeatType), formatDateString(task.StartDate)))
		if task.EndDate != nil {
			sb.WriteString(fmt.Sprintf(" · до %s", formatDateString(*task.EndDate)))
		}
		sb.WriteString("\n")
		if task.Description != nil && *task.Description != "" {
			sb.WriteString(fmt.Sprintf("   📝 %s\n", escape(*task.Description)))
		}

		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬆️", taskCallback(cbUp, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("⬇️", taskCallback(cbDown, task.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(task.Title, 20), taskCallback(cbDelete, task.ID)),
		))
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return strings.TrimSpace(sb.String()), &markup
}

func renderTaskSaved(task model.Task) string {
	var sb strings.Builder
	sb.WriteString("✅ <b>Задача сохранена</b>\n")
	sb.WriteString(fmt.Sprintf("• <b>Название:</b> %s\n", escape(task.Title)))
	if task.Description != nil && *task.Description != "" {
		sb.WriteString(fmt.Sprintf("• <b>Описание:</b> %s\n", escape(*task.Description)))
	}
	sb.WriteString(fmt.Sprintf("• <b>Начало:</b> %s\n", formatDateString(task.StartDate)))
	sb.WriteString(fmt.Sprintf("• <b>Повтор:</b> %s", service.RepeatLabel(task.RepeatType)))
	if task.RepeatType == model.RepeatWeekly || task.RepeatType == model.RepeatFortnightly {
		if start, err := calendar.ParseDate(task.StartDate); err == nil {
			sb.WriteString(fmt.Sprintf(" (%s)", strings.ToLower(weekdayNames[start.Weekday()])))
		}
	}
	return sb.String()
}

func formatDate(d time.Time) string {
	return d.Format("02.01.2006")
}

// formatDateString reformats a stored YYYY-MM-DD date, leaving bad input as is.
func formatDateString(raw string) string {
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return escape(raw)
	}
	return formatDate(d)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}
