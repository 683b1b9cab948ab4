package notify

import (
	"context"
	"errors"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender is the part of *bot.Bot the notifier needs.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramNotifier struct {
	sender MessageSender
	log    *zap.Logger
}

var _ ports.Notifier = (*TelegramNotifier)(nil)

func NewTelegramNotifier(sender MessageSender, log *zap.Logger) (*TelegramNotifier, error) {
	if sender == nil {
		return nil, errors.New("telegram sender is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &TelegramNotifier{sender: sender, log: log}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, user *entities.User, text string) error {
	if user == nil || user.TelegramID == nil {
		return ErrUnreachable
	}
	return n.Send(ctx, *user.TelegramID, text)
}

// Send posts text to an arbitrary chat, used for admin digests too.
func (n *TelegramNotifier) Send(ctx context.Context, chatID int64, text string) error {
	_, err := n.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	n.log.Debug("notify: telegram message sent", zap.Int64("chat_id", chatID))
	return nil
}
