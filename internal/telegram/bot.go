package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"household-meal-planner/internal/app"
	"household-meal-planner/internal/config"
	"household-meal-planner/internal/metrics"
	"household-meal-planner/internal/planner"
	"household-meal-planner/internal/ratelimit"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const requestTimeout = 2 * time.Minute

// sender is the part of *tgbotapi.BotAPI the bot talks to.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// UsageReporter reads stored completion usage. *metrics.Store satisfies it.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot answers chat commands with plans from the application service.
type Bot struct {
	api      sender
	service  *app.Service
	usage    UsageReporter
	allowed  map[int64]bool
	cuisines []string
	dataDir  string
	logger   *zap.Logger
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, service *app.Service, usage UsageReporter, cuisines []string, dataDir string, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("authorized on telegram", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("webhook set", zap.String("description", resp.Description))

	return newBot(api, service, usage, cfg.TelegramAllowedUserIDs, cuisines, dataDir, logger), nil
}

func newBot(api sender, service *app.Service, usage UsageReporter, allowedIDs []int64, cuisines []string, dataDir string, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := make(map[int64]bool, len(allowedIDs))
	for _, id := range allowedIDs {
		allowed[id] = true
	}
	return &Bot{
		api:      api,
		service:  service,
		usage:    usage,
		allowed:  allowed,
		cuisines: cuisines,
		dataDir:  dataDir,
		logger:   logger.Named("telegram"),
	}
}

// HandleWebhook accepts an update from Telegram. Messages are processed in
// the background so Telegram gets its 200 right away.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("error parsing update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.allowed[msg.From.ID] {
		b.logger.Warn("unauthorized access attempt",
			zap.Int64("user_id", msg.From.ID),
			zap.String("username", msg.From.UserName),
		)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		b.processMessage(ctx, msg)
	}()
}

func identity(userID int64) string {
	return "tg_" + strconv.FormatInt(userID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText(planner.Rules, b.cuisines))
	case "metrics":
		b.handleMetricsCommand(ctx, msg.Chat.ID)
	case "shopping":
		b.handleShopping(ctx, msg)
	case "modify":
		b.handleModify(ctx, msg)
	case "plan":
		b.handlePlannerRequest(ctx, msg, msg.CommandArguments())
	case "":
		b.handlePlannerRequest(ctx, msg, msg.Text)
	default:
		b.reply(msg.Chat.ID, "🤔 Unknown command. Try /help")
	}
}

func (b *Bot) handlePlannerRequest(ctx context.Context, msg *tgbotapi.Message, text string) {
	sent, err := b.sendMarkdown(tgbotapi.NewMessage(msg.Chat.ID, "🧑‍🍳 *Thinking...* \n(Putting your meal plan together)"))
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return
	}

	req := ParseRequest(text, b.cuisines)
	b.logger.Info("generating plan",
		zap.Int64("user_id", msg.From.ID),
		zap.Int("days", req.DayCount()),
		zap.Strings("restrictions", req.Restrictions),
	)

	res, err := b.service.GeneratePlan(ctx, identity(msg.From.ID), req)
	if err != nil {
		b.edit(msg.Chat.ID, sent.MessageID, errorText(err))
		return
	}

	b.edit(msg.Chat.ID, sent.MessageID, formatPlanMarkdown(res.Plan, fallbackNote(res.FallbackReason)))
	b.reply(msg.Chat.ID, formatShoppingList(planner.ShoppingList(res.Plan)))
}

func (b *Bot) handleModify(ctx context.Context, msg *tgbotapi.Message) {
	rule, parameter := parseModify(msg.CommandArguments())
	if rule == "" {
		b.reply(msg.Chat.ID, helpText(planner.Rules, b.cuisines))
		return
	}

	id := identity(msg.From.ID)
	latest, err := b.service.LatestPlan(ctx, id)
	if err != nil {
		b.reply(msg.Chat.ID, errorText(err))
		return
	}

	mod, err := b.service.ModifyPlan(ctx, id, latest.Plan.ID, planner.Rule(rule), parameter)
	if err != nil {
		b.reply(msg.Chat.ID, errorText(err))
		return
	}
	b.reply(msg.Chat.ID, formatPlanMarkdown(mod.Plan, ""))
}

func (b *Bot) handleShopping(ctx context.Context, msg *tgbotapi.Message) {
	latest, err := b.service.LatestPlan(ctx, identity(msg.From.ID))
	if err != nil {
		b.reply(msg.Chat.ID, errorText(err))
		return
	}
	b.reply(msg.Chat.ID, formatShoppingList(planner.ShoppingList(latest.Plan)))
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	if b.usage == nil {
		b.reply(chatID, "❌ Metrics are not available.")
		return
	}
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}

	health := metrics.GetSysHealth(b.dataDir)

	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s\n", health.DataDiskSize))

	b.reply(chatID, sb.String())
}

func errorText(err error) string {
	var exceeded *ratelimit.ExceededError
	switch {
	case errors.As(err, &exceeded):
		return fmt.Sprintf("⏳ *Slow down:* try again in %ds.", exceeded.RetryAfterSeconds())
	case errors.Is(err, planner.ErrPlanNotFound):
		return "🗓️ You have no plan yet. Send /plan first."
	case errors.Is(err, planner.ErrUnrecognizedRule):
		return "🤔 Unknown rule. Try /help"
	}
	safeErr := strings.ReplaceAll(err.Error(), "`", "'")
	return fmt.Sprintf("❌ *Error:*\n```\n%v\n```", safeErr)
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.sendMarkdown(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// sendMarkdown sends msg as Markdown, resending it as plain text when
// Telegram rejects the formatting.
func (b *Bot) sendMarkdown(msg tgbotapi.MessageConfig) (tgbotapi.Message, error) {
	msg.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(msg)
	if err == nil {
		return sent, nil
	}
	b.logger.Warn("markdown rejected, sending plain text", zap.Int64("chat_id", msg.ChatID), zap.Error(err))
	msg.ParseMode = ""
	return b.api.Send(msg)
}

func (b *Bot) edit(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(edit); err == nil {
		return
	}
	edit.ParseMode = ""
	if _, err := b.api.Send(edit); err != nil {
		b.logger.Error("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
