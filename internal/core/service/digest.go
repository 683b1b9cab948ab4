package service

import (
	"context"
	"errors"
	"fmt"

	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

// ReviewDigest reminds moderators about photo reviews waiting for a decision.
type ReviewDigest struct {
	uow    ports.UnitOfWorkManager
	sender ports.ChatSender
	chatID int64
	log    *zap.Logger
}

func NewReviewDigest(uow ports.UnitOfWorkManager, sender ports.ChatSender, chatID int64, log *zap.Logger) (*ReviewDigest, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if sender == nil {
		return nil, errors.New("chat sender is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if chatID == 0 {
		return nil, errors.New("admin chat id is required")
	}
	return &ReviewDigest{uow: uow, sender: sender, chatID: chatID, log: log}, nil
}

func (d *ReviewDigest) Run(ctx context.Context) error {
	var pending int64
	err := d.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		pending, err = uow.Repositories().Reviews.CountPending(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("count pending reviews: %w", err)
	}
	if pending == 0 {
		return nil
	}

	text := fmt.Sprintf("На модерации %d %s. Проверьте раздел «Отзывы» в админке.", pending, reviewsWord(pending))
	if err := d.sender.Send(ctx, d.chatID, text); err != nil {
		return fmt.Errorf("send review digest: %w", err)
	}
	d.log.Info("usecase: review digest sent", zap.Int64("pending", pending))
	return nil
}

func reviewsWord(n int64) string {
	switch {
	case n%100 >= 11 && n%100 <= 14:
		return "отзывов"
	case n%10 == 1:
		return "отзыв"
	case n%10 >= 2 && n%10 <= 4:
		return "отзыва"
	default:
		return "отзывов"
	}
}
