package service

import (
	"context"
	"errors"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"

	"go.uber.org/zap"
)

type CompletionService struct {
	uow       ports.UnitOfWorkManager
	verifiers map[entities.VerificationType]verifyFunc
	now       func() time.Time
	log       *zap.Logger
}

func NewCompletionService(uow ports.UnitOfWorkManager, log *zap.Logger) (*CompletionService, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &CompletionService{
		uow:       uow,
		verifiers: defaultVerifiers(),
		now:       time.Now,
		log:       log,
	}, nil
}

// CompleteTask verifies a submission and credits the task reward. The lookup,
// the verification side effects, the ledger write and the credit share one
// transaction, so a failed step leaves nothing behind.
func (s *CompletionService) CompleteTask(ctx context.Context, sub entities.Submission) (*entities.CompletionResult, error) {
	if err := sub.User.Validate(); err != nil {
		s.log.Warn("usecase: complete task validation failed", zap.Error(err))
		return nil, err
	}

	s.log.Info("usecase: complete task",
		zap.String("platform", string(sub.User.Platform)),
		zap.Int64("platform_id", sub.User.ID),
		zap.Int("task_day", sub.TaskDay),
		zap.String("kind", string(sub.Kind)),
	)

	var result *entities.CompletionResult
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()

		user, err := repos.Users.GetByPlatform(ctx, sub.User)
		if err != nil {
			return err
		}
		task, err := repos.Tasks.GetByDay(ctx, sub.TaskDay)
		if err != nil {
			return err
		}

		completed, err := repos.Ledger.IsCompleted(ctx, user.ID, task.ID)
		if err != nil {
			return err
		}
		if completed {
			return exceptions.ErrAlreadyCompleted
		}

		verify, ok := s.verifiers[task.VerificationType]
		if !ok {
			return exceptions.ErrNotSupported
		}
		blob, err := verify(ctx, repos, verification{user: user, task: task, payload: sub.Payload})
		if err != nil {
			return err
		}

		coins, err := recordCompletion(ctx, repos, user.ID, task, sub.VerifiedBy(task), blob, s.now())
		if err != nil {
			return err
		}
		result = &entities.CompletionResult{Reward: task.CoinsReward, Coins: coins}
		return nil
	})
	if err != nil {
		s.log.Warn("usecase: complete task failed", zap.Int("task_day", sub.TaskDay), zap.Error(err))
		return nil, err
	}

	s.log.Info("usecase: complete task done",
		zap.Int("task_day", sub.TaskDay),
		zap.Int64("reward", result.Reward),
		zap.Int64("coins", result.Coins),
	)
	return result, nil
}

// recordCompletion writes the ledger row and credits the reward.
func recordCompletion(
	ctx context.Context,
	repos ports.Repositories,
	userID int64,
	task *entities.Task,
	verifiedBy string,
	blob []byte,
	at time.Time,
) (int64, error) {
	completion := &entities.Completion{
		UserID:      userID,
		TaskID:      task.ID,
		Status:      entities.CompletionStatusCompleted,
		CompletedAt: &at,
		VerifiedBy:  verifiedBy,
		Result:      blob,
	}
	if err := repos.Ledger.Complete(ctx, completion); err != nil {
		return 0, err
	}
	return repos.Users.Credit(ctx, userID, task.CoinsReward)
}
