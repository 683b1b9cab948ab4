package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/core/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const reviewVerifiedBy = string(entities.VerificationReview)

type ReviewService struct {
	uow     ports.UnitOfWorkManager
	storage ports.PhotoStorage
	notify  *notifyDispatcher
	newKey  func(ext string) string
	now     func() time.Time
	log     *zap.Logger
}

func NewReviewService(
	uow ports.UnitOfWorkManager,
	storage ports.PhotoStorage,
	notifier ports.Notifier,
	log *zap.Logger,
) (*ReviewService, error) {
	if uow == nil {
		return nil, errors.New("unit of work manager is nil")
	}
	if storage == nil {
		return nil, errors.New("photo storage is nil")
	}
	if log == nil {
		return nil, errors.New("logger is nil")
	}
	return &ReviewService{
		uow:     uow,
		storage: storage,
		notify:  newNotifyDispatcher(notifier, log),
		newKey:  func(ext string) string { return "reviews/" + uuid.NewString() + ext },
		now:     time.Now,
		log:     log,
	}, nil
}

// Submit stores the photo and queues a pending review. Eligibility is checked
// before the upload and again inside the insert transaction.
func (s *ReviewService) Submit(ctx context.Context, ref entities.PlatformRef, taskDay int, photo entities.Photo) (*entities.Review, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := photo.Validate(); err != nil {
		s.log.Warn("usecase: submit review rejected photo", zap.String("content_type", photo.ContentType), zap.Int64("size", photo.Size))
		return nil, err
	}

	s.log.Info("usecase: submit review", zap.String("platform", string(ref.Platform)), zap.Int64("platform_id", ref.ID), zap.Int("task_day", taskDay))
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		_, _, err := s.eligible(ctx, uow.Repositories(), ref, taskDay)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: submit review failed", zap.Error(err))
		return nil, err
	}

	url, err := s.storage.Save(ctx, s.newKey(photo.Ext()), photo.ContentType, photo.Body, photo.Size)
	if err != nil {
		s.log.Error("usecase: submit review upload failed", zap.Error(err))
		return nil, fmt.Errorf("store photo: %w", err)
	}

	var review *entities.Review
	err = s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()
		user, task, err := s.eligible(ctx, repos, ref, taskDay)
		if err != nil {
			return err
		}
		review = &entities.Review{
			UserID:      user.ID,
			TaskID:      task.ID,
			PhotoURL:    url,
			Status:      entities.ReviewStatusPending,
			SubmittedAt: s.now(),
		}
		return repos.Reviews.Create(ctx, review)
	})
	if err != nil {
		s.log.Warn("usecase: submit review failed", zap.String("photo_url", url), zap.Error(err))
		return nil, err
	}

	s.log.Info("usecase: submit review done", zap.Int64("review_id", review.ID))
	return review, nil
}

func (s *ReviewService) eligible(ctx context.Context, repos ports.Repositories, ref entities.PlatformRef, taskDay int) (*entities.User, *entities.Task, error) {
	user, err := repos.Users.GetByPlatform(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	task, err := repos.Tasks.GetByDay(ctx, taskDay)
	if err != nil {
		return nil, nil, err
	}
	if task.VerificationType != entities.VerificationReview {
		return nil, nil, exceptions.ErrNotSupported
	}
	completed, err := repos.Ledger.IsCompleted(ctx, user.ID, task.ID)
	if err != nil {
		return nil, nil, err
	}
	if completed {
		return nil, nil, exceptions.ErrAlreadyCompleted
	}
	active, err := repos.Reviews.HasActive(ctx, user.ID, task.ID)
	if err != nil {
		return nil, nil, err
	}
	if active {
		return nil, nil, exceptions.ErrReviewAlreadySubmitted
	}
	return user, task, nil
}

// Approve completes the task for the author and credits the reward once.
// A task completed some other way is not credited again.
func (s *ReviewService) Approve(ctx context.Context, reviewID int64, reviewer string) (*entities.ReviewDecision, error) {
	s.log.Info("usecase: approve review", zap.Int64("review_id", reviewID), zap.String("reviewer", reviewer))

	var (
		decision *entities.ReviewDecision
		user     *entities.User
		task     *entities.Task
	)
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()
		review, err := s.lockPending(ctx, repos, reviewID)
		if err != nil {
			return err
		}
		task, err = repos.Tasks.GetByID(ctx, review.TaskID)
		if err != nil {
			return err
		}

		now := s.now()
		decision = &entities.ReviewDecision{}
		completed, err := repos.Ledger.IsCompleted(ctx, review.UserID, task.ID)
		if err != nil {
			return err
		}
		if !completed {
			if _, err := recordCompletion(ctx, repos, review.UserID, task, reviewVerifiedBy, nil, now); err != nil {
				return err
			}
			decision.Credited = true
			decision.Reward = task.CoinsReward
		}

		review.Status = entities.ReviewStatusApproved
		review.ReviewedBy = &reviewer
		review.ReviewedAt = &now
		if err := repos.Reviews.Decide(ctx, review); err != nil {
			return err
		}

		user, err = repos.Users.GetByID(ctx, review.UserID)
		if err != nil {
			return err
		}
		decision.Review = *review
		decision.Coins = user.Coins
		return nil
	})
	if err != nil {
		s.log.Warn("usecase: approve review failed", zap.Int64("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	s.notify.send(*user, approvedMessage(task, decision))
	s.log.Info("usecase: approve review done", zap.Int64("review_id", reviewID), zap.Bool("credited", decision.Credited))
	return decision, nil
}

func (s *ReviewService) Reject(ctx context.Context, reviewID int64, reviewer, comment string) (*entities.ReviewDecision, error) {
	s.log.Info("usecase: reject review", zap.Int64("review_id", reviewID), zap.String("reviewer", reviewer))

	comment = strings.TrimSpace(comment)
	var (
		decision *entities.ReviewDecision
		user     *entities.User
		task     *entities.Task
	)
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		repos := uow.Repositories()
		review, err := s.lockPending(ctx, repos, reviewID)
		if err != nil {
			return err
		}
		task, err = repos.Tasks.GetByID(ctx, review.TaskID)
		if err != nil {
			return err
		}

		now := s.now()
		review.Status = entities.ReviewStatusRejected
		review.ReviewedBy = &reviewer
		review.ReviewedAt = &now
		if comment != "" {
			review.AdminComment = &comment
		}
		if err := repos.Reviews.Decide(ctx, review); err != nil {
			return err
		}

		user, err = repos.Users.GetByID(ctx, review.UserID)
		if err != nil {
			return err
		}
		decision = &entities.ReviewDecision{Review: *review, Coins: user.Coins}
		return nil
	})
	if err != nil {
		s.log.Warn("usecase: reject review failed", zap.Int64("review_id", reviewID), zap.Error(err))
		return nil, err
	}

	s.notify.send(*user, rejectedMessage(task, comment))
	s.log.Info("usecase: reject review done", zap.Int64("review_id", reviewID))
	return decision, nil
}

func (s *ReviewService) lockPending(ctx context.Context, repos ports.Repositories, reviewID int64) (*entities.Review, error) {
	review, err := repos.Reviews.GetForUpdate(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Status != entities.ReviewStatusPending {
		return nil, exceptions.ErrReviewNotPending
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, status *entities.ReviewStatus) ([]entities.ReviewView, error) {
	if status != nil && !status.Valid() {
		return nil, exceptions.ErrInvalidInput
	}
	var reviews []entities.ReviewView
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		reviews, err = uow.Repositories().Reviews.List(ctx, status)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: list reviews failed", zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

func (s *ReviewService) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.uow.Do(ctx, func(uow ports.UnitOfWork) error {
		var err error
		count, err = uow.Repositories().Reviews.CountPending(ctx)
		return err
	})
	if err != nil {
		s.log.Warn("usecase: count pending reviews failed", zap.Error(err))
		return 0, err
	}
	return count, nil
}

func approvedMessage(task *entities.Task, decision *entities.ReviewDecision) string {
	if !decision.Credited {
		return fmt.Sprintf("✅ Ваш отзыв к заданию «%s» одобрен!", task.Title)
	}
	return fmt.Sprintf("✅ Ваш отзыв к заданию «%s» одобрен! Начислено %d спортиков.", task.Title, decision.Reward)
}

func rejectedMessage(task *entities.Task, comment string) string {
	text := fmt.Sprintf("❌ Ваш отзыв к заданию «%s» отклонён.", task.Title)
	if comment != "" {
		text += "\nПричина: " + comment
	}
	return text + "\nВы можете отправить новое фото."
}
