package telegram

import (
	"context"
	"net/url"
	"strings"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const qrParamPrefix = "qr_"

type Handler struct {
	users     ports.UserUseCases
	webAppURL string
	log       *zap.Logger
}

func NewHandler(users ports.UserUseCases, webAppURL string, log *zap.Logger) *Handler {
	if log == nil {
		panic("logger is nil")
	}
	if users == nil {
		log.Fatal("user service is nil")
	}
	return &Handler{
		users:     users,
		webAppURL: webAppURL,
		log:       log,
	}
}

// Options returns the bot options every update passes through.
func (h *Handler) Options() []bot.Option {
	return []bot.Option{
		bot.WithMiddlewares(Recover(h.log), Logging(h.log)),
		bot.WithDefaultHandler(func(context.Context, *bot.Bot, *models.Update) {}),
	}
}

func (h *Handler) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
}

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	params := h.start(ctx, update)
	if params == nil {
		return
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.log.Error("bot: failed to reply to start", zap.Error(err))
	}
}

// start records the user and builds the reply. A qr_ start parameter comes
// from a scanned poster and sends the user straight to the reward screen.
func (h *Handler) start(ctx context.Context, update *models.Update) *bot.SendMessageParams {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return nil
	}
	command, param := splitCommand(msg.Text)
	if command != "/start" {
		return nil
	}

	from := msg.From
	ref := entities.PlatformRef{Platform: entities.PlatformTelegram, ID: from.ID}
	profile := entities.Profile{
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.Username,
	}
	if _, err := h.users.TouchFromBot(ctx, ref, profile); err != nil {
		h.log.Error("bot: failed to save user", zap.Int64("telegram_id", from.ID), zap.Error(err))
	}

	h.log.Info("bot: start", zap.Int64("telegram_id", from.ID), zap.String("param", param))
	if strings.HasPrefix(param, qrParamPrefix) {
		return &bot.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        "QR-код найден! Открой приложение:",
			ReplyMarkup: webAppKeyboard("Получить награду", h.startParamURL(param)),
		}
	}
	return &bot.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        "Привет, " + from.FirstName + "! Добро пожаловать в Город Спорта!",
		ReplyMarkup: webAppKeyboard("Начать", h.webAppURL),
	}
}

func (h *Handler) startParamURL(param string) string {
	return h.webAppURL + "?tgWebAppStartParam=" + url.QueryEscape(param)
}

func webAppKeyboard(text, link string) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			{Text: text, WebApp: &models.WebAppInfo{URL: link}},
		}},
	}
}

// splitCommand separates "/start@gsbot qr_day1" into "/start" and "qr_day1".
func splitCommand(text string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	command, _, _ := strings.Cut(fields[0], "@")
	if len(fields) == 1 {
		return command, ""
	}
	return command, fields[1]
}
