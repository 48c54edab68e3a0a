package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"task-calendar/internal/calendar"
	"task-calendar/internal/model"
	"task-calendar/internal/service"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён. Можно начать заново.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		b.log.Info().
			Int64("telegram_id", msg.From.ID).
			Str("command", msg.Command()).
			Str("args", msg.CommandArguments()).
			Msg("command")
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Набери /newtask, чтобы добавить задачу, или /help для списка команд.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "today":
		return b.handleDay(ctx, msg, "")
	case "day":
		return b.handleDay(ctx, msg, msg.CommandArguments())
	case "calendar":
		return b.handleCalendar(ctx, msg)
	case "tasks":
		return b.handleListTasks(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "wipe":
		return b.askWipeConfirmation(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	name := user.DisplayName()
	if name == "" {
		name = "друг"
	}

	text := fmt.Sprintf(
		"👋 Привет, %s!\n<b>Я календарь задач: отмечай выполненное и следи за прогрессом по дням.</b>\n\n%s",
		escape(name),
		commandList,
	)
	return b.sendText(msg.Chat.ID, text)
}

const commandList = "Команды:\n" +
	"• /today — задачи на сегодня\n" +
	"• /day &lt;ГГГГ-ММ-ДД&gt; — задачи на выбранный день\n" +
	"• /calendar [смещение] — календарь на 6 недель (смещение в неделях, например -2)\n" +
	"• /tasks — все задачи, порядок и удаление\n" +
	"• /newtask — добавить задачу пошагово\n" +
	"• /report — ежедневная сводка прямо сейчас\n" +
	"• /wipe — удалить все задачи и отметки\n" +
	"• /cancel — отменить текущий ввод"

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Подсказки</b>\n" + commandList + "\n\n" +
		"В карточке дня кнопка с названием отмечает задачу, ⏭ пропускает один повтор, ⏹ завершает повторяющуюся задачу с этого дня.\n" +
		"Будущие дни можно смотреть, но отмечать в них нельзя."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleDay(ctx context.Context, msg *tgbotapi.Message, arg string) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	today := b.today()
	date := today
	if arg = strings.TrimSpace(arg); arg != "" {
		date, err = parseUserDate(arg, today)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или <code>30.11.2025</code>.")
		}
	}
	return b.sendDay(ctx, msg.Chat.ID, user, date, today)
}

func (b *Bot) sendDay(ctx context.Context, chatID int64, user *model.User, date, today time.Time) error {
	view, err := b.calendarSvc.Day(ctx, user, date, today)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	text, markup := renderDay(view, today)
	return b.sendView(chatID, text, markup)
}

func (b *Bot) handleCalendar(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	offset := 0
	if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
		offset, err = strconv.Atoi(arg)
		if err != nil {
			return b.sendText(msg.Chat.ID, "Смещение должно быть числом недель, например /calendar -2")
		}
	}

	view, err := b.calendarSvc.Grid(ctx, user, b.today(), offset)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось построить календарь: %s", escape(err.Error())))
	}
	text, markup := renderGrid(view)
	return b.sendView(msg.Chat.ID, text, markup)
}

func (b *Bot) handleListTasks(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListTasks(ctx, user)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось получить задачи: %s", escape(err.Error())))
	}
	text, markup := renderTaskList(tasks)
	return b.sendView(chatID, text, markup)
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	text, err := b.reminderSvc.DailySummary(ctx, *user, b.today())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сформировать отчёт: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Создаём новую задачу.\n<b>Шаг 1:</b> как её назвать?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Название не может быть пустым. Как назвать задачу?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ <b>Шаг 2:</b> добавь короткое описание (или нажми «Пропустить»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageStartDate
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 <b>Шаг 3:</b> с какого дня начать? Формат <code>2025-11-30</code> или <code>30.11.2025</code>.", startDateKeyboard())
	case stageStartDate:
		today := b.today()
		start := today
		if !isSkipInput(text) {
			parsed, err := parseUserDate(text, today)
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Не могу распознать дату. Используй формат <code>2025-11-30</code> или нажми «Сегодня».", startDateKeyboard())
			}
			start = parsed
		}
		state.input.StartDate = calendar.FormatDate(start)
		state.stage = stageRepeat
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 <b>Шаг 4:</b> как часто повторять?", repeatKeyboard())
	case stageRepeat:
		repeatType, ok := parseRepeatChoice(text)
		if !ok {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Выбери вариант на клавиатуре.", repeatKeyboard())
		}
		state.input.RepeatType = repeatType
		err := b.finishTaskCreation(ctx, msg.From, state.input, msg.Chat.ID)
		b.clearConversation(msg.From.ID)
		return err
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Диалог сброшен. Попробуй ещё раз через /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, from *tgbotapi.User, input service.TaskInput, chatID int64) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	task, err := b.taskSvc.CreateTask(ctx, user, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
	}

	b.log.Info().
		Str("task_id", task.ID).
		Uint("user_id", user.ID).
		Str("repeat", string(task.RepeatType)).
		Msg("task created")

	if err := b.sendTextWithRemove(chatID, renderTaskSaved(*task)); err != nil {
		return err
	}
	return b.sendDay(ctx, chatID, user, b.today(), b.today())
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelToday):
		return true, b.handleDay(ctx, msg, "")
	case strings.ToLower(menuLabelCalendar):
		return true, b.handleCalendar(ctx, msg)
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.handleListTasks(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) askWipeConfirmation(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.clearConversation(msg.From.ID)
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionWipe})
	return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Удалить <b>все</b> задачи вместе с отметками и пропусками? Это нельзя отменить.", confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.runConfirmed(ctx, msg.Chat.ID, msg.From, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, confirmationPrompt(req.action), confirmKeyboard())
	}
}

func (b *Bot) runConfirmed(ctx context.Context, chatID int64, from *tgbotapi.User, req confirmationRequest) error {
	user, err := b.ensureUser(ctx, from)
	if err != nil {
		return err
	}

	switch req.action {
	case actionWipe:
		deleted, err := b.taskSvc.DeleteAll(ctx, user)
		if err != nil {
			return b.sendTextWithRemove(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		b.log.Info().Uint("user_id", user.ID).Int64("deleted", deleted).Msg("task data wiped")
		return b.sendTextWithRemove(chatID, fmt.Sprintf("🧹 Удалено задач: %d. Можно начинать с чистого листа.", deleted))
	case actionDelete:
		task, err := b.taskSvc.GetTask(ctx, user, req.taskID)
		if err != nil {
			return b.sendTextWithRemove(chatID, taskErrorText(err))
		}
		if err := b.taskSvc.DeleteTask(ctx, user, req.taskID); err != nil {
			return b.sendTextWithRemove(chatID, taskErrorText(err))
		}
		b.log.Info().Str("task_id", task.ID).Uint("user_id", user.ID).Msg("task deleted")
		if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 Задача «%s» удалена.", escape(task.Title))); err != nil {
			return err
		}
		return b.sendTaskList(ctx, chatID, user)
	case actionEnd:
		task, err := b.taskSvc.EndTask(ctx, user, req.taskID, req.date)
		if err != nil {
			return b.sendTextWithRemove(chatID, taskErrorText(err))
		}
		b.log.Info().Str("task_id", task.ID).Str("end_date", calendar.FormatDate(req.date)).Msg("task ended")
		if err := b.sendTextWithRemove(chatID, fmt.Sprintf("⏹ Задача «%s» больше не повторяется с %s.", escape(task.Title), formatDate(req.date))); err != nil {
			return err
		}
		return b.sendDay(ctx, chatID, user, req.date, b.today())
	default:
		return nil
	}
}

func confirmationPrompt(action confirmationAction) string {
	switch action {
	case actionDelete:
		return "Подтверди или отмени удаление задачи."
	case actionEnd:
		return "Подтверди или отмени завершение задачи."
	default:
		return "Подтверди или отмени удаление всех задач."
	}
}

func taskErrorText(err error) string {
	switch {
	case isNotFound(err):
		return "Задача не найдена или уже удалена."
	case errors.Is(err, service.ErrFutureDate):
		return "Будущие дни отмечать нельзя."
	case errors.Is(err, service.ErrNotDue):
		return "На этот день задача не запланирована."
	default:
		return fmt.Sprintf("Ошибка: %s", escape(err.Error()))
	}
}
