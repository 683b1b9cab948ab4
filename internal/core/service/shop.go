package service

import (
	"context"
	"errors"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

type ShopService struct {
	uow ports.UnitOfWorkManager
	now func() time.Time
	log *zap.Logger
}

func NewShopService(uow ports.UnitOfWorkManager, log *zap.Logger) (*ShopService, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &ShopService{
		uow: uow,
		now: time.Now,
		log: log,
	}, nil
}

func (s *ShopService) ListItems(ctx context.Context) ([]entities.ShopItem, error) {
	var items []entities.ShopItem
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		items, err = uow.Repositories().Shop.ListActive(ctx)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: list shop items failed", zap.Error(err))
		return nil, err
	}
	return items, nil
}

// Purchase debits the item price and records the purchase. The debit is
// conditional on the balance, so concurrent purchases cannot overdraw.
func (s *ShopService) Purchase(ctx context.Context, ref entities.PlatformRef, itemID int64) (*entities.PurchaseResult, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	s.log.Info("usecase: purchase", zap.Int64("platform_id", ref.ID), zap.Int64("item_id", itemID))
	var result *entities.PurchaseResult
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()

		user, err := repos.Users.GetByPlatform(ctx, ref)
		if err != nil {
			return err
		}
		item, err := repos.Shop.GetActiveItem(ctx, itemID)
		if err != nil {
			return err
		}
		coins, err := repos.Users.Debit(ctx, user.ID, item.Price)
		if err != nil {
			return err
		}

		purchase := &entities.Purchase{
			UserID:      user.ID,
			ItemID:      item.ID,
			PricePaid:   item.Price,
			PurchasedAt: s.now(),
		}
		if err := repos.Shop.CreatePurchase(ctx, purchase); err != nil {
			return err
		}
		result = &entities.PurchaseResult{Coins: coins, Purchase: purchase.ID}
		return nil
	})
	if err != nil {
		s.log.Warn("usecase: purchase failed", zap.Int64("item_id", itemID), zap.Error(err))
		return nil, err
	}

	s.log.Info("usecase: purchase done", zap.Int64("item_id", itemID), zap.Int64("coins", result.Coins))
	return result, nil
}
