package telegram

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

func Recover(log *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			defer func() {
				if r := recover(); r != nil {
					log.Error("bot: panic recovered in handler",
						zap.Any("panic", r),
						zap.ByteString("stack", debug.Stack()),
					)
				}
			}()
			next(ctx, b, update)
		}
	}
}

func Logging(log *zap.Logger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			next(ctx, b, update)

			var chatID, userID int64
			if update.Message != nil {
				chatID = update.Message.Chat.ID
				if update.Message.From != nil {
					userID = update.Message.From.ID
				}
			}
			log.Debug("bot: update processed",
				zap.Int64("update_id", update.ID),
				zap.Int64("chat_id", chatID),
				zap.Int64("user_id", userID),
				zap.Duration("duration", time.Since(start)),
			)
		}
	}
}
