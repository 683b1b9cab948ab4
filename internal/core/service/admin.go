package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

const (
	activeUserWindow    = 7 * 24 * time.Hour
	latestPurchaseLimit = 100
)

// AdminService backs the admin panel. Reads are open to every role, the
// handler layer gates writes.
type AdminService struct {
	uow ports.UnitOfWorkManager
	now func() time.Time
	log *zap.Logger
}

func NewAdminService(uow ports.UnitOfWorkManager, log *zap.Logger) (*AdminService, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &AdminService{
		uow: uow,
		now: time.Now,
		log: log,
	}, nil
}

func (s *AdminService) Stats(ctx context.Context) (*entities.Stats, error) {
	var stats *entities.Stats
	err := s.read(ctx, "stats", func(repos ports.Repositories) error {
		var err error
		stats, err = repos.Stats.Collect(ctx, s.now().Add(-activeUserWindow))
		return err
	})
	return stats, err
}

func (s *AdminService) ListUsers(ctx context.Context) ([]entities.UserSummary, error) {
	var users []entities.UserSummary
	err := s.read(ctx, "list users", func(repos ports.Repositories) error {
		var err error
		users, err = repos.Users.List(ctx)
		return err
	})
	return users, err
}

func (s *AdminService) GetUser(ctx context.Context, id int64) (*entities.UserDetails, error) {
	var details *entities.UserDetails
	err := s.read(ctx, "get user", func(repos ports.Repositories) error {
		user, err := repos.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		tasks, err := repos.Ledger.ListByUser(ctx, id)
		if err != nil {
			return err
		}
		purchases, err := repos.Shop.ListPurchasesByUser(ctx, id)
		if err != nil {
			return err
		}
		adjustments, err := repos.Adjustments.ListByUser(ctx, id)
		if err != nil {
			return err
		}
		details = &entities.UserDetails{
			User:        *user,
			Tasks:       tasks,
			Purchases:   purchases,
			Adjustments: adjustments,
		}
		return nil
	})
	return details, err
}

func (s *AdminService) UserTasks(ctx context.Context, id int64) ([]entities.CompletedTask, error) {
	var tasks []entities.CompletedTask
	err := s.read(ctx, "user tasks", func(repos ports.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		tasks, err = repos.Ledger.ListByUser(ctx, id)
		return err
	})
	return tasks, err
}

func (s *AdminService) UserPurchases(ctx context.Context, id int64) ([]entities.PurchaseView, error) {
	var purchases []entities.PurchaseView
	err := s.read(ctx, "user purchases", func(repos ports.Repositories) error {
		if _, err := repos.Users.GetByID(ctx, id); err != nil {
			return err
		}
		var err error
		purchases, err = repos.Shop.ListPurchasesByUser(ctx, id)
		return err
	})
	return purchases, err
}

// UpdateBalance sets absolute coin and xp values and logs the delta against
// the locked row, so a concurrent credit is either counted or waits.
func (s *AdminService) UpdateBalance(ctx context.Context, id int64, update entities.BalanceUpdate) (*entities.User, error) {
	if update.Coins == nil && update.XP == nil {
		return nil, exceptions.ErrInvalidInput
	}
	if (update.Coins != nil && *update.Coins < 0) || (update.XP != nil && *update.XP < 0) {
		return nil, exceptions.ErrInvalidInput
	}

	s.log.Info("usecase: update balance", zap.Int64("user_id", id), zap.String("actor", update.Actor))
	var user *entities.User
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()
		current, err := repos.Users.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		coins, xp := current.Coins, current.XP
		if update.Coins != nil {
			coins = *update.Coins
		}
		if update.XP != nil {
			xp = *update.XP
		}

		user, err = repos.Users.SetBalance(ctx, id, coins, xp)
		if err != nil {
			return err
		}
		return repos.Adjustments.Record(ctx, &entities.BalanceAdjustment{
			UserID:     id,
			CoinsDelta: coins - current.Coins,
			XPDelta:    xp - current.XP,
			Reason:     strings.TrimSpace(update.Reason),
			Actor:      update.Actor,
			CreatedAt:  s.now(),
		})
	})
	if err != nil {
		s.log.Warn("usecase: update balance failed", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	s.log.Info("usecase: delete user", zap.Int64("user_id", id))
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		return uow.Repositories().Users.Delete(ctx, id)
	})
	if err != nil {
		s.log.Warn("usecase: delete user failed", zap.Int64("user_id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *AdminService) ListTasks(ctx context.Context) ([]entities.TaskStats, error) {
	var tasks []entities.TaskStats
	err := s.read(ctx, "list tasks", func(repos ports.Repositories) error {
		var err error
		tasks, err = repos.Tasks.ListStats(ctx)
		return err
	})
	return tasks, err
}

func (s *AdminService) UpdateTask(ctx context.Context, id int64, update entities.TaskUpdate) (*entities.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}

	s.log.Info("usecase: update task", zap.Int64("task_id", id), zap.String("verification_type", string(update.VerificationType)))
	var task *entities.Task
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		task, err = uow.Repositories().Tasks.Update(ctx, id, update)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: update task failed", zap.Int64("task_id", id), zap.Error(err))
		return nil, err
	}
	return task, nil
}

func (s *AdminService) ListPrizes(ctx context.Context) ([]entities.ShopItemStats, error) {
	var items []entities.ShopItemStats
	err := s.read(ctx, "list prizes", func(repos ports.Repositories) error {
		var err error
		items, err = repos.Shop.ListStats(ctx)
		return err
	})
	return items, err
}

func (s *AdminService) UpdatePrize(ctx context.Context, item *entities.ShopItem) error {
	if err := item.Validate(); err != nil {
		return err
	}

	s.log.Info("usecase: update prize", zap.Int64("item_id", item.ID))
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		return uow.Repositories().Shop.UpdateItem(ctx, item)
	})
	if err != nil {
		s.log.Warn("usecase: update prize failed", zap.Int64("item_id", item.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *AdminService) ListPurchases(ctx context.Context) ([]entities.PurchaseView, error) {
	var purchases []entities.PurchaseView
	err := s.read(ctx, "list purchases", func(repos ports.Repositories) error {
		var err error
		purchases, err = repos.Shop.ListPurchases(ctx, latestPurchaseLimit)
		return err
	})
	return purchases, err
}

func (s *AdminService) ListReferrals(ctx context.Context) ([]entities.ReferralView, error) {
	var referrals []entities.ReferralView
	err := s.read(ctx, "list referrals", func(repos ports.Repositories) error {
		var err error
		referrals, err = repos.Referrals.List(ctx)
		return err
	})
	return referrals, err
}

func (s *AdminService) ListStaffCodes(ctx context.Context) ([]entities.StaffCode, error) {
	var codes []entities.StaffCode
	err := s.read(ctx, "list staff codes", func(repos ports.Repositories) error {
		var err error
		codes, err = repos.StaffCodes.List(ctx)
		return err
	})
	return codes, err
}

func (s *AdminService) CreateStaffCode(ctx context.Context, code *entities.StaffCode) error {
	if err := code.Validate(); err != nil {
		return err
	}

	s.log.Info("usecase: create staff code", zap.Int("usage_limit", code.UsageLimit))
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		return uow.Repositories().StaffCodes.Create(ctx, code)
	})
	if err != nil {
		s.log.Warn("usecase: create staff code failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *AdminService) read(ctx context.Context, op string, fn func(repos ports.Repositories) error) error {
	s.log.Debug("usecase: admin " + op)
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		return fn(uow.Repositories())
	})
	if err != nil {
		s.log.Warn("usecase: admin "+op+" failed", zap.Error(err))
		return err
	}
	return nil
}
