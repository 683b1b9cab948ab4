package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/infrastructure/db"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const reviewColumns = `r.id, r.user_id, r.task_id, r.photo_url, r.status, r.admin_comment, r.reviewed_by, r.submitted_at, r.reviewed_at`

type ReviewRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewReviewRepository(db db.Querier, log *zap.Logger) *ReviewRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &ReviewRepository{
		db:  db,
		log: log,
	}
}

func reviewDest(review *entities.Review, status *string) []any {
	return []any{
		&review.ID,
		&review.UserID,
		&review.TaskID,
		&review.PhotoURL,
		status,
		&review.AdminComment,
		&review.ReviewedBy,
		&review.SubmittedAt,
		&review.ReviewedAt,
	}
}

func (r *ReviewRepository) HasActive(ctx context.Context, userID, taskID int64) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM reviews WHERE user_id = $1 AND task_id = $2 AND status IN ('pending', 'approved')
	)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, taskID).Scan(&exists); err != nil {
		r.log.Error("failed to check active review", zap.Error(err))
		return false, fmt.Errorf("check active review: %w", err)
	}
	return exists, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review *entities.Review) error {
	query := `INSERT INTO reviews (user_id, task_id, photo_url, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := r.db.QueryRow(
		ctx,
		query,
		review.UserID,
		review.TaskID,
		review.PhotoURL,
		string(review.Status),
		review.SubmittedAt,
	).Scan(&review.ID); err != nil {
		if isUniqueViolation(err) {
			return exceptions.ErrReviewAlreadySubmitted
		}
		r.log.Error("failed to create review", zap.Error(err))
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// GetForUpdate locks the submission until the transaction ends, so two
// moderators cannot decide the same review.
func (r *ReviewRepository) GetForUpdate(ctx context.Context, id int64) (*entities.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews r WHERE r.id = $1 FOR UPDATE`

	var (
		review entities.Review
		status string
	)
	if err := r.db.QueryRow(ctx, query, id).Scan(reviewDest(&review, &status)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrReviewNotFound
		}
		r.log.Error("failed to lock review", zap.Error(err))
		return nil, fmt.Errorf("lock review: %w", err)
	}
	review.Status = entities.ReviewStatus(status)
	return &review, nil
}

func (r *ReviewRepository) Decide(ctx context.Context, review *entities.Review) error {
	query := `UPDATE reviews SET status = $2, admin_comment = $3, reviewed_by = $4, reviewed_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(
		ctx,
		query,
		review.ID,
		string(review.Status),
		review.AdminComment,
		review.ReviewedBy,
		review.ReviewedAt,
	)
	if err != nil {
		r.log.Error("failed to update review", zap.Error(err))
		return fmt.Errorf("update review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return exceptions.ErrReviewNotFound
	}
	return nil
}

func (r *ReviewRepository) List(ctx context.Context, status *entities.ReviewStatus) ([]entities.ReviewView, error) {
	query := `SELECT ` + reviewColumns + `,
			u.first_name, u.last_name, u.telegram_id, u.vk_id,
			t.day_number, t.title, t.coins_reward
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		JOIN tasks t ON t.id = r.task_id
		WHERE $1::text IS NULL OR r.status = $1
		ORDER BY r.submitted_at DESC, r.id DESC`

	var filter *string
	if status != nil {
		s := string(*status)
		filter = &s
	}

	rows, err := r.db.Query(ctx, query, filter)
	if err != nil {
		r.log.Error("failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]entities.ReviewView, 0)
	for rows.Next() {
		var (
			view   entities.ReviewView
			status string
		)
		dest := append(reviewDest(&view.Review, &status),
			&view.FirstName, &view.LastName, &view.TelegramID, &view.VKID,
			&view.DayNumber, &view.TaskTitle, &view.CoinsReward,
		)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("failed to scan review row", zap.Error(err))
			return nil, err
		}
		view.Status = entities.ReviewStatus(status)
		reviews = append(reviews, view)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate review rows", zap.Error(err))
		return nil, err
	}
	return reviews, nil
}

func (r *ReviewRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE status = 'pending'`).Scan(&count); err != nil {
		r.log.Error("failed to count pending reviews", zap.Error(err))
		return 0, fmt.Errorf("count pending reviews: %w", err)
	}
	return count, nil
}
