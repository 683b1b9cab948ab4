package service

import (
	"context"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

// notifyDispatcher sends messages after the surrounding transaction has
// committed. Delivery errors are logged and never reach the caller.
type notifyDispatcher struct {
	notifier ports.Notifier
	timeout  time.Duration
	run      func(func())
	log      *zap.Logger
}

func newNotifyDispatcher(notifier ports.Notifier, log *zap.Logger) *notifyDispatcher {
	return &notifyDispatcher{
		notifier: notifier,
		timeout:  notifyTimeout,
		run:      func(fn func()) { go fn() },
		log:      log,
	}
}

func (d *notifyDispatcher) send(user entities.User, text string) {
	if d.notifier == nil {
		return
	}
	d.run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.notifier.Notify(ctx, &user, text); err != nil {
			d.log.Warn("notify: delivery failed", zap.Int64("user_id", user.ID), zap.Error(err))
			return
		}
		d.log.Debug("notify: delivered", zap.Int64("user_id", user.ID))
	})
}
