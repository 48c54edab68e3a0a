package bot

import (
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/service"
)

const (
	btnSkip           = "⏭️ Пропустить"
	btnYesterday      = "Вчера"
	btnToday          = "Сегодня"
	btnTomorrow       = "Завтра"
	btnConfirm        = "✅ Подтвердить"
	btnCancel         = "↩️ Отмена"
	btnCancelDialog   = "⏪ Отменить ввод"
	menuLabelToday    = "📅 Сегодня"
	menuLabelCalendar = "🗓 Календарь"
	menuLabelNewTask  = "➕ Новая задача"
	menuLabelTasks    = "📋 Задачи"
	menuLabelHelp     = "ℹ️ Помощь"
)

var repeatChoices = []model.RepeatType{
	model.RepeatNone,
	model.RepeatDaily,
	model.RepeatWeekly,
	model.RepeatFortnightly,
}

var errUnknownDate = errors.New("unrecognised date")

// parseUserDate accepts YYYY-MM-DD, DD.MM.YYYY and the words today/tomorrow.
func parseUserDate(text string, today time.Time) (time.Time, error) {
	value := strings.TrimSpace(strings.ToLower(text))
	switch value {
	case strings.ToLower(btnToday), "today":
		return today, nil
	case strings.ToLower(btnTomorrow), "tomorrow":
		return calendar.AddDays(today, 1), nil
	case strings.ToLower(btnYesterday), "yesterday":
		return calendar.AddDays(today, -1), nil
	}
	if d, err := calendar.ParseDate(value); err == nil {
		return d, nil
	}
	if d, err := time.Parse("02.01.2006", value); err == nil {
		return calendar.Day(d), nil
	}
	return time.Time{}, errUnknownDate
}

// parseRepeatChoice maps a keyboard label or a raw rule name to a RepeatType.
func parseRepeatChoice(text string) (model.RepeatType, bool) {
	value := strings.TrimSpace(strings.ToLower(text))
	for _, choice := range repeatChoices {
		if value == string(choice) || value == service.RepeatLabel(choice) {
			return choice, true
		}
	}
	return "", false
}

func repeatButtonLabel(repeatType model.RepeatType) string {
	label := []rune(service.RepeatLabel(repeatType))
	return strings.ToUpper(string(label[:1])) + string(label[1:])
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelToday),
			tgbotapi.NewKeyboardButton(menuLabelCalendar),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNewTask),
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func startDateKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnYesterday),
			tgbotapi.NewKeyboardButton(btnToday),
			tgbotapi.NewKeyboardButton(btnTomorrow),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func repeatKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(repeatButtonLabel(model.RepeatNone)),
			tgbotapi.NewKeyboardButton(repeatButtonLabel(model.RepeatDaily)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(repeatButtonLabel(model.RepeatWeekly)),
			tgbotapi.NewKeyboardButton(repeatButtonLabel(model.RepeatFortnightly)),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена" || value == "нет"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
