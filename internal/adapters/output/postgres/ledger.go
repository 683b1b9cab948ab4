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

type LedgerRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewLedgerRepository(db db.Querier, log *zap.Logger) *LedgerRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &LedgerRepository{
		db:  db,
		log: log,
	}
}

func (r *LedgerRepository) IsCompleted(ctx context.Context, userID, taskID int64) (bool, error) {
	query := `SELECT EXISTS(
		SELECT 1 FROM user_tasks WHERE user_id = $1 AND task_id = $2 AND status = 'completed'
	)`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, taskID).Scan(&exists); err != nil {
		r.log.Error("failed to check completion", zap.Error(err))
		return false, fmt.Errorf("check completion: %w", err)
	}
	return exists, nil
}

// Complete upserts the (user, task) row. The conflict branch only fires for a
// row that is not completed yet, so a concurrent winner leaves this call with
// no row and ErrAlreadyCompleted.
func (r *LedgerRepository) Complete(ctx context.Context, completion *entities.Completion) error {
	query := `INSERT INTO user_tasks (user_id, task_id, status, completed_at, verified_by, result)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, task_id) DO UPDATE SET
			status = EXCLUDED.status,
			completed_at = EXCLUDED.completed_at,
			verified_by = EXCLUDED.verified_by,
			result = EXCLUDED.result
		WHERE user_tasks.status <> 'completed'
		RETURNING id`

	if err := r.db.QueryRow(
		ctx,
		query,
		completion.UserID,
		completion.TaskID,
		completion.Status,
		completion.CompletedAt,
		completion.VerifiedBy,
		jsonParam(completion.Result),
	).Scan(&completion.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return exceptions.ErrAlreadyCompleted
		}
		r.log.Error("failed to record completion", zap.Error(err))
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}

func (r *LedgerRepository) ListByUser(ctx context.Context, userID int64) ([]entities.CompletedTask, error) {
	query := `SELECT ` + taskColumns + `, ut.status, ut.completed_at, ut.verified_by
		FROM user_tasks ut
		JOIN tasks t ON t.id = ut.task_id
		WHERE ut.user_id = $1
		ORDER BY ut.completed_at DESC NULLS LAST`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list completions", zap.Error(err))
		return nil, fmt.Errorf("list completions: %w", err)
	}
	defer rows.Close()

	completed := make([]entities.CompletedTask, 0)
	for rows.Next() {
		var c entities.CompletedTask
		dest, done := taskDest(&c.Task)
		dest = append(dest, &c.Status, &c.CompletedAt, &c.VerifiedBy)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("failed to scan completion row", zap.Error(err))
			return nil, err
		}
		done()
		completed = append(completed, c)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate completion rows", zap.Error(err))
		return nil, err
	}
	return completed, nil
}
