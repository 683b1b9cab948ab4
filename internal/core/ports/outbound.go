package ports

import (
	"context"
	"io"

	"gorod-sporta/internal/core/domain/entities"
)

// Notifier delivers a plain text message to a user on the platform they
// are reachable on.
type Notifier interface {
	Notify(ctx context.Context, user *entities.User, text string) error
}

// PhotoStorage persists an uploaded photo and returns its public URL.
type PhotoStorage interface {
	Save(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}

// ChatSender posts a message to a chat by id, such as the moderators' group.
type ChatSender interface {
	Send(ctx context.Context, chatID int64, text string) error
}
