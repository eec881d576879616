package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"daily-tracker/internal/apperr"
	"daily-tracker/internal/model"
	"daily-tracker/internal/repository"
	"daily-tracker/internal/service"
)

const (
	cbDonePrefix = "done:"
	maxButtons   = 10
)

const (
	menuLabelWakeUp  = "🌅 Woke up"
	menuLabelWork    = "💼 Start work"
	menuLabelWorkEnd = "🏁 End work"
	menuLabelSleep   = "🌙 Going to sleep"
	menuLabelTasks   = "📋 Tasks"
	menuLabelScore   = "📈 Score"
)

// Bot aggregates Telegram API with services.
type Bot struct {
	api          *tgbotapi.BotAPI
	userRepo     *repository.UserRepository
	taskSvc      *service.TaskService
	logSvc       *service.LogService
	recurringSvc *service.RecurringService
	reportSvc    *service.ReportService
	log          *zap.Logger
}

func New(
	token string,
	userRepo *repository.UserRepository,
	taskSvc *service.TaskService,
	logSvc *service.LogService,
	recurringSvc *service.RecurringService,
	reportSvc *service.ReportService,
	log *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.Named("bot")
	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:          api,
		userRepo:     userRepo,
		taskSvc:      taskSvc,
		logSvc:       logSvc,
		recurringSvc: recurringSvc,
		reportSvc:    reportSvc,
		log:          log,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Warn("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Warn("handle message", zap.Error(err))
			}
		}
	}

	return nil
}

// Notify sends a report to a chat; used by the evening job.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) error {
	return b.sendText(chatID, text)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.log.Debug("command", zap.Int64("from", msg.From.ID), zap.String("command", msg.Command()), zap.String("args", msg.CommandArguments()))
		return b.handleCommand(ctx, msg, msg.Command(), msg.CommandArguments())
	}

	if command, ok := menuCommand(msg.Text); ok {
		return b.handleCommand(ctx, msg, command, "")
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /help for the list of commands.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, command, args string) error {
	user, err := b.ensureUser(ctx, msg)
	if err != nil {
		return err
	}

	switch command {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.sendText(msg.Chat.ID, helpText)
	case "wakeup":
		return b.handleWakeUp(ctx, msg.Chat.ID, user)
	case "sleep":
		return b.handleEvent(ctx, msg.Chat.ID, user, b.logSvc.LogSleep, "🌙 Sleep logged. Good night!")
	case "workstart":
		return b.handleEvent(ctx, msg.Chat.ID, user, b.logSvc.LogWorkStart, "💼 Work start logged.")
	case "workend":
		return b.handleEvent(ctx, msg.Chat.ID, user, b.logSvc.LogWorkEnd, "🏁 Work end logged.")
	case "process":
		return b.handleProcess(ctx, msg.Chat.ID, user)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID, user)
	case "done":
		return b.handleDone(ctx, msg.Chat.ID, user, args)
	case "score":
		return b.handleScore(ctx, msg.Chat.ID, user)
	case "stats":
		return b.handleStats(ctx, msg.Chat.ID, user, args)
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

const helpText = "ℹ️ <b>Commands</b>\n" +
	"• /wakeup — log wake-up and prepare today's recurring items\n" +
	"• /workstart, /workend — log your work hours\n" +
	"• /sleep — log going to sleep\n" +
	"• /process — prepare today's recurring items now\n" +
	"• /tasks — open tasks with quick complete buttons\n" +
	"• /done &lt;id&gt; — complete a task\n" +
	"• /score — today's report and score\n" +
	"• /stats [days] — metrics for the last days (30 by default)"

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep track of your day: tasks, routines and how it went.</b>\n\n%s",
		html.EscapeString(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleWakeUp(ctx context.Context, chatID int64, user *model.User) error {
	if _, err := b.logSvc.LogWakeUp(ctx, user.ID); err != nil {
		return b.sendError(chatID, err)
	}
	text := "🌅 Good morning! Wake-up logged."
	if err := b.recurringSvc.ProcessRecurringTasks(ctx, user.ID); err != nil {
		b.log.Warn("process after wake-up", zap.String("user_id", user.ID), zap.Error(err))
		text += "\nRecurring items could not be prepared, try /process later."
	} else {
		text += "\nToday's recurring items are on your board."
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleEvent(ctx context.Context, chatID int64, user *model.User, record func(context.Context, string) (*model.DailyLog, error), done string) error {
	if _, err := record(ctx, user.ID); err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, done)
}

func (b *Bot) handleProcess(ctx context.Context, chatID int64, user *model.User) error {
	if err := b.recurringSvc.ProcessRecurringTasks(ctx, user.ID); err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, "♻️ Recurring items for today are ready.")
}

func (b *Bot) handleDone(ctx context.Context, chatID int64, user *model.User, args string) error {
	taskID := strings.TrimSpace(args)
	if taskID == "" {
		return b.sendText(chatID, "Give me the task id: /done &lt;id&gt;")
	}
	return b.completeTask(ctx, chatID, user, taskID)
}

func (b *Bot) handleScore(ctx context.Context, chatID int64, user *model.User) error {
	text, err := b.reportSvc.DailySummary(ctx, user.ID, time.Now())
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleStats(ctx context.Context, chatID int64, user *model.User, args string) error {
	days, err := parseDays(args)
	if err != nil {
		return b.sendText(chatID, "Days must be a positive number, for example /stats 7")
	}
	text, err := b.reportSvc.StatsSummary(ctx, user.ID, days)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	tasks, err := b.taskSvc.ListOpen(ctx, user.ID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	if len(tasks) == 0 {
		return b.sendText(chatID, "No open tasks. Nice!")
	}

	now := time.Now()
	var builder strings.Builder
	builder.WriteString("📋 <b>Open tasks</b>\n")
	builder.WriteString("Tap a button to complete a task.\n\n")

	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, task := range tasks {
		if task.IsRecurring {
			continue
		}
		builder.WriteString(service.FormatTask(task, now))
		if len(buttons) < maxButtons {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("✅ "+shortTitle(task.Title, 28), cbDonePrefix+task.ID),
			))
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	if len(buttons) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("callback ack", zap.Error(err))
	}
	if !strings.HasPrefix(cb.Data, cbDonePrefix) {
		return nil
	}

	user, err := b.userRepo.UpsertFromTelegram(ctx, cb.From.ID, cb.Message.Chat.ID, cb.From.FirstName, cb.From.LastName, cb.From.UserName)
	if err != nil {
		return err
	}
	return b.completeTask(ctx, cb.Message.Chat.ID, user, strings.TrimPrefix(cb.Data, cbDonePrefix))
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, taskID string) error {
	task, err := b.taskSvc.CompleteTask(ctx, user.ID, taskID)
	if err != nil {
		return b.sendError(chatID, err)
	}
	return b.sendText(chatID, fmt.Sprintf("✅ «%s» completed.", html.EscapeString(normalizeTitle(task.Title))))
}

func (b *Bot) ensureUser(ctx context.Context, msg *tgbotapi.Message) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.Chat.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
}

// sendError shows business errors as they are and hides everything else.
func (b *Bot) sendError(chatID int64, err error) error {
	var def apperr.Definition
	if errors.As(err, &def) {
		return b.sendText(chatID, "⚠️ "+html.EscapeString(def.Message))
	}
	b.log.Error("command failed", zap.Int64("chat_id", chatID), zap.Error(err))
	return b.sendText(chatID, "⚠️ Something went wrong, please try again later.")
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelWakeUp),
			tgbotapi.NewKeyboardButton(menuLabelSleep),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelWork),
			tgbotapi.NewKeyboardButton(menuLabelWorkEnd),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelScore),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

func menuCommand(text string) (string, bool) {
	switch strings.TrimSpace(text) {
	case menuLabelWakeUp:
		return "wakeup", true
	case menuLabelSleep:
		return "sleep", true
	case menuLabelWork:
		return "workstart", true
	case menuLabelWorkEnd:
		return "workend", true
	case menuLabelTasks:
		return "tasks", true
	case menuLabelScore:
		return "score", true
	default:
		return "", false
	}
}

// parseDays reads the optional /stats argument; 0 means the default window.
func parseDays(args string) (int, error) {
	args = strings.TrimSpace(args)
	if args == "" {
		return 0, nil
	}
	days, err := strconv.Atoi(args)
	if err != nil || days <= 0 {
		return 0, fmt.Errorf("invalid days %q", args)
	}
	return days, nil
}

func shortTitle(title string, maxLen int) string {
	title = normalizeTitle(title)
	runes := []rune(title)
	if len(runes) <= maxLen {
		return title
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
