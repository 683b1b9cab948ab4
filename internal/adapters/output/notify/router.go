package notify

import (
	"context"
	"errors"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"
)

// ErrUnreachable means the user has no id on any configured platform.
var ErrUnreachable = errors.New("user is not reachable on any platform")

// Router delivers through Telegram when the user has a telegram id and
// falls back to VK otherwise. Either sink may be nil when not configured.
type Router struct {
	telegram ports.Notifier
	vk       ports.Notifier
}

var _ ports.Notifier = (*Router)(nil)

func NewRouter(telegram, vk ports.Notifier) *Router {
	return &Router{telegram: telegram, vk: vk}
}

func (r *Router) Notify(ctx context.Context, user *entities.User, text string) error {
	if user == nil {
		return ErrUnreachable
	}
	if user.TelegramID != nil && r.telegram != nil {
		return r.telegram.Notify(ctx, user, text)
	}
	if user.VKID != nil && r.vk != nil {
		return r.vk.Notify(ctx, user, text)
	}
	return ErrUnreachable
}
