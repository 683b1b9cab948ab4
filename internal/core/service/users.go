package service

import (
	"context"
	"errors"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

type UserService struct {
	uow              ports.UnitOfWorkManager
	leaderboardLimit int
	log              *zap.Logger
}

func NewUserService(uow ports.UnitOfWorkManager, leaderboardLimit int, log *zap.Logger) (*UserService, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	if leaderboardLimit <= 0 || leaderboardLimit > MaxLeaderboardLimit {
		leaderboardLimit = DefaultLeaderboardLimit
	}
	return &UserService{
		uow:              uow,
		leaderboardLimit: leaderboardLimit,
		log:              log,
	}, nil
}

// Register saves the Mini App registration form. The phone joins accounts
// across platforms: when another account already owns it, the platform id is
// linked onto that account instead of creating a second one.
func (s *UserService) Register(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error) {
	if err := ref.Validate(); err != nil {
		s.log.Warn("usecase: register validation failed", zap.Error(err))
		return nil, err
	}
	profile = profile.Normalize()

	s.log.Info("usecase: register", zap.String("platform", string(ref.Platform)), zap.Int64("platform_id", ref.ID))
	var user *entities.User
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()

		if profile.Phone != "" {
			owner, err := repos.Users.GetByPhone(ctx, profile.Phone)
			switch {
			case err == nil:
				user, err = s.link(ctx, repos, owner, ref, profile)
				return err
			case !errors.Is(err, exceptions.ErrUserNotFound):
				return err
			}
		}

		var err error
		user, err = repos.Users.UpsertByPlatform(ctx, ref, profile)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: register failed", zap.Error(err))
		return nil, err
	}

	s.log.Info("usecase: register done", zap.Int64("user_id", user.ID))
	return user, nil
}

// link attaches ref to the phone owner. A bare account created for the same
// platform id (by the bot, before registration) is folded into the owner; one
// with any activity of its own is left alone and the phone stays taken.
func (s *UserService) link(ctx context.Context, repos ports.Repositories, owner *entities.User, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error) {
	if !owner.CanLink(ref) {
		return nil, exceptions.ErrPhoneTaken
	}

	holder, err := repos.Users.GetByPlatform(ctx, ref)
	switch {
	case err == nil && holder.ID != owner.ID:
		if _, err := repos.Users.GetForUpdate(ctx, holder.ID); err != nil {
			return nil, err
		}
		active, err := repos.Users.HasActivity(ctx, holder.ID)
		if err != nil {
			return nil, err
		}
		if active {
			s.log.Warn("usecase: register kept active account", zap.Int64("holder_id", holder.ID), zap.Int64("user_id", owner.ID))
			return nil, exceptions.ErrPhoneTaken
		}
		if err := repos.Users.Delete(ctx, holder.ID); err != nil {
			return nil, err
		}
		s.log.Info("usecase: register merged stub account", zap.Int64("stub_id", holder.ID), zap.Int64("user_id", owner.ID))
	case err != nil && !errors.Is(err, exceptions.ErrUserNotFound):
		return nil, err
	}

	return repos.Users.LinkPlatform(ctx, owner.ID, ref, profile)
}

// TouchFromBot creates or refreshes the account behind a chat start command.
func (s *UserService) TouchFromBot(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	profile = profile.Normalize()
	profile.Phone = ""
	profile.MembershipType = ""

	var user *entities.User
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		user, err = uow.Repositories().Users.UpsertByPlatform(ctx, ref, profile)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: touch from bot failed", zap.Int64("platform_id", ref.ID), zap.Error(err))
		return nil, err
	}
	s.log.Debug("usecase: touch from bot done", zap.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, ref entities.PlatformRef) (*entities.User, []entities.TaskProgress, error) {
	if err := ref.Validate(); err != nil {
		return nil, nil, err
	}

	s.log.Debug("usecase: get profile", zap.String("platform", string(ref.Platform)), zap.Int64("platform_id", ref.ID))
	var (
		user  *entities.User
		tasks []entities.TaskProgress
	)
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()
		var err error
		user, err = repos.Users.GetByPlatform(ctx, ref)
		if err != nil {
			return err
		}
		tasks, err = repos.Tasks.ListForUser(ctx, user.ID)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: get profile failed", zap.Error(err))
		return nil, nil, err
	}
	return user, tasks, nil
}

// Leaderboard returns the top users by xp. Out of range limits fall back to
// the configured default.
func (s *UserService) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = s.leaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}

	var entries []entities.LeaderboardEntry
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		entries, err = uow.Repositories().Users.Leaderboard(ctx, limit)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: leaderboard failed", zap.Error(err))
		return nil, err
	}
	return entries, nil
}
