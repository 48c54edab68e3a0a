package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/gorm"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/service"
)

// Callback data is "<action>[:<task id>][:<date>|<offset>]" and must stay
// within Telegram's 64 byte limit.
const (
	cbToggle = "tg"
	cbSkip   = "sk"
	cbUnskip = "us"
	cbEnd    = "en"
	cbDelete = "dl"
	cbUp     = "up"
	cbDown   = "dn"
	cbDay    = "dy"
	cbGrid   = "cl"
	cbNoop   = "nop"
)

var errMalformedCallback = errors.New("malformed callback data")

type callbackData struct {
	action string
	taskID string
	date   time.Time
	offset int
}

func taskDateCallback(action, taskID string, date time.Time) string {
	return action + ":" + taskID + ":" + calendar.FormatDate(date)
}

func taskCallback(action, taskID string) string {
	return action + ":" + taskID
}

func dayCallback(date time.Time) string {
	return cbDay + ":" + calendar.FormatDate(date)
}

func gridCallback(offset int) string {
	return cbGrid + ":" + strconv.Itoa(offset)
}

func parseCallback(data string) (callbackData, error) {
	parts := strings.Split(data, ":")
	cb := callbackData{action: parts[0]}

	switch cb.action {
	case cbToggle, cbSkip, cbUnskip, cbEnd:
		if len(parts) != 3 || parts[1] == "" {
			return cb, errMalformedCallback
		}
		date, err := calendar.ParseDate(parts[2])
		if err != nil {
			return cb, errMalformedCallback
		}
		cb.taskID, cb.date = parts[1], date
	case cbDelete, cbUp, cbDown:
		if len(parts) != 2 || parts[1] == "" {
			return cb, errMalformedCallback
		}
		cb.taskID = parts[1]
	case cbDay:
		if len(parts) != 2 {
			return cb, errMalformedCallback
		}
		date, err := calendar.ParseDate(parts[1])
		if err != nil {
			return cb, errMalformedCallback
		}
		cb.date = date
	case cbGrid:
		if len(parts) != 2 {
			return cb, errMalformedCallback
		}
		offset, err := strconv.Atoi(parts[1])
		if err != nil {
			return cb, errMalformedCallback
		}
		cb.offset = offset
	case cbNoop:
	default:
		return cb, errMalformedCallback
	}
	return cb, nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}

	data, err := parseCallback(cb.Data)
	if err != nil {
		b.ack(cb, "")
		b.log.Warn().Str("data", cb.Data).Msg("unknown callback")
		return nil
	}
	if data.action == cbNoop {
		b.ack(cb, "")
		return nil
	}

	b.log.Debug().
		Int64("telegram_id", cb.From.ID).
		Str("action", data.action).
		Str("task_id", data.taskID).
		Msg("callback")

	user, err := b.ensureUser(ctx, cb.From)
	if err != nil {
		b.ack(cb, "")
		return err
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	today := b.today()

	switch data.action {
	case cbToggle:
		completed, err := b.taskSvc.ToggleCompletion(ctx, user, data.taskID, data.date, today)
		if err != nil {
			b.ack(cb, callbackNotice(err))
			return ignoreExpected(err)
		}
		notice := "Отметка снята"
		if completed {
			notice = "Выполнено ✅"
		}
		b.ack(cb, notice)
		return b.refreshDay(ctx, chatID, messageID, user, data.date, today)
	case cbSkip:
		if err := b.taskSvc.SkipOccurrence(ctx, user, data.taskID, data.date); err != nil {
			b.ack(cb, callbackNotice(err))
			return ignoreExpected(err)
		}
		b.ack(cb, "Пропущено ⏭")
		if err := b.refreshDay(ctx, chatID, messageID, user, data.date, today); err != nil {
			return err
		}
		return b.sendUndoSkip(ctx, chatID, user, data.taskID, data.date)
	case cbUnskip:
		removed, err := b.taskSvc.UnskipOccurrence(ctx, user, data.taskID, data.date)
		if err != nil {
			b.ack(cb, callbackNotice(err))
			return ignoreExpected(err)
		}
		if !removed {
			b.ack(cb, "Пропуска уже нет")
		} else {
			b.ack(cb, "Повтор возвращён")
		}
		return b.refreshDay(ctx, chatID, messageID, user, data.date, today)
	case cbEnd:
		b.ack(cb, "")
		return b.askEndConfirmation(ctx, chatID, cb.From.ID, user, data.taskID, data.date)
	case cbDelete:
		b.ack(cb, "")
		return b.askDeleteConfirmation(ctx, chatID, cb.From.ID, user, data.taskID)
	case cbUp, cbDown:
		delta := -1
		if data.action == cbDown {
			delta = 1
		}
		if err := b.taskSvc.Move(ctx, user, data.taskID, delta); err != nil {
			b.ack(cb, callbackNotice(err))
			return ignoreExpected(err)
		}
		b.ack(cb, "")
		return b.refreshTaskList(ctx, chatID, messageID, user)
	case cbDay:
		b.ack(cb, "")
		return b.refreshDay(ctx, chatID, messageID, user, data.date, today)
	case cbGrid:
		b.ack(cb, "")
		view, err := b.calendarSvc.Grid(ctx, user, today, data.offset)
		if err != nil {
			return err
		}
		text, markup := renderGrid(view)
		return b.editView(chatID, messageID, text, markup)
	default:
		b.ack(cb, "")
		return nil
	}
}

func (b *Bot) refreshDay(ctx context.Context, chatID int64, messageID int, user *model.User, date, today time.Time) error {
	view, err := b.calendarSvc.Day(ctx, user, date, today)
	if err != nil {
		return err
	}
	text, markup := renderDay(view, today)
	return b.editView(chatID, messageID, text, markup)
}

func (b *Bot) refreshTaskList(ctx context.Context, chatID int64, messageID int, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user)
	if err != nil {
		return err
	}
	text, markup := renderTaskList(tasks)
	return b.editView(chatID, messageID, text, markup)
}

func (b *Bot) sendUndoSkip(ctx context.Context, chatID int64, user *model.User, taskID string, date time.Time) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return ignoreExpected(err)
	}
	text := fmt.Sprintf("⏭ «%s» пропущена %s.", escape(task.Title), formatDate(date))
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("↩️ Вернуть", taskDateCallback(cbUnskip, taskID, date)),
	))
	return b.sendWithReplyMarkup(chatID, text, markup)
}

func (b *Bot) askEndConfirmation(ctx context.Context, chatID, telegramID int64, user *model.User, taskID string, date time.Time) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, taskErrorText(err))
	}

	text := fmt.Sprintf("Завершить задачу «%s»? Начиная с %s она больше не будет появляться, прошлые отметки сохранятся.", escape(task.Title), formatDate(date))
	b.clearConversation(telegramID)
	b.setConfirmation(telegramID, confirmationRequest{action: actionEnd, taskID: task.ID, date: date})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, telegramID int64, user *model.User, taskID string) error {
	task, err := b.taskSvc.GetTask(ctx, user, taskID)
	if err != nil {
		return b.sendText(chatID, taskErrorText(err))
	}

	text := fmt.Sprintf("Удалить задачу «%s» вместе со всеми отметками?", escape(task.Title))
	b.clearConversation(telegramID)
	b.setConfirmation(telegramID, confirmationRequest{action: actionDelete, taskID: task.ID})
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

// callbackNotice is the plain-text popup shown for a rejected action.
func callbackNotice(err error) string {
	switch {
	case isNotFound(err):
		return "Задача не найдена"
	case errors.Is(err, service.ErrFutureDate):
		return "Будущие дни отмечать нельзя"
	case errors.Is(err, service.ErrNotDue):
		return "На этот день задача не запланирована"
	default:
		return "Что-то пошло не так"
	}
}

// ignoreExpected drops errors already reported to the user.
func ignoreExpected(err error) error {
	if isNotFound(err) || errors.Is(err, service.ErrFutureDate) || errors.Is(err, service.ErrNotDue) {
		return nil
	}
	return err
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
