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

const taskColumns = `t.id, t.day_number, t.title, t.description, t.coins_reward, t.verification_type, t.verification_data`

type TaskRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewTaskRepository(db db.Querier, log *zap.Logger) *TaskRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &TaskRepository{
		db:  db,
		log: log,
	}
}

// taskDest returns scan targets for taskColumns; call the returned func
// after Scan to copy the typed fields over.
func taskDest(task *entities.Task) ([]any, func()) {
	var verificationType string
	dest := []any{
		&task.ID,
		&task.DayNumber,
		&task.Title,
		&task.Description,
		&task.CoinsReward,
		&verificationType,
		&task.VerificationData,
	}
	return dest, func() { task.VerificationType = entities.VerificationType(verificationType) }
}

func (r *TaskRepository) getOne(ctx context.Context, op, query string, args ...any) (*entities.Task, error) {
	task := entities.Task{}
	dest, done := taskDest(&task)
	if err := r.db.QueryRow(ctx, query, args...).Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrTaskNotFound
		}
		r.log.Error("failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	done()
	return &task, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*entities.Task, error) {
	return r.getOne(ctx, "get task", `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id)
}

func (r *TaskRepository) GetByDay(ctx context.Context, day int) (*entities.Task, error) {
	return r.getOne(ctx, "get task by day", `SELECT `+taskColumns+` FROM tasks t WHERE t.day_number = $1`, day)
}

func (r *TaskRepository) List(ctx context.Context) ([]*entities.Task, error) {
	rows, err := r.db.Query(ctx, `SELECT `+taskColumns+` FROM tasks t ORDER BY t.day_number`)
	if err != nil {
		r.log.Error("failed to list tasks", zap.Error(err))
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entities.Task, 0)
	for rows.Next() {
		task := entities.Task{}
		dest, done := taskDest(&task)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("failed to scan task row", zap.Error(err))
			return nil, err
		}
		done()
		tasks = append(tasks, &task)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate task rows", zap.Error(err))
		return nil, err
	}

	return tasks, nil
}

// ListForUser annotates the catalog with the user's ledger status and the
// status of their latest review submission.
func (r *TaskRepository) ListForUser(ctx context.Context, userID int64) ([]entities.TaskProgress, error) {
	query := `SELECT ` + taskColumns + `, ut.status, ut.completed_at, rv.status
		FROM tasks t
		LEFT JOIN user_tasks ut ON ut.task_id = t.id AND ut.user_id = $1
		LEFT JOIN LATERAL (
			SELECT status FROM reviews
			WHERE user_id = $1 AND task_id = t.id
			ORDER BY submitted_at DESC, id DESC
			LIMIT 1
		) rv ON TRUE
		ORDER BY t.day_number`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list tasks for user", zap.Error(err))
		return nil, fmt.Errorf("list tasks for user: %w", err)
	}
	defer rows.Close()

	tasks := make([]entities.TaskProgress, 0)
	for rows.Next() {
		var (
			progress     entities.TaskProgress
			reviewStatus *string
		)
		dest, done := taskDest(&progress.Task)
		dest = append(dest, &progress.Status, &progress.CompletedAt, &reviewStatus)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("failed to scan task progress row", zap.Error(err))
			return nil, err
		}
		done()
		if reviewStatus != nil {
			status := entities.ReviewStatus(*reviewStatus)
			progress.ReviewStatus = &status
		}
		tasks = append(tasks, progress)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate task progress rows", zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

func (r *TaskRepository) ListStats(ctx context.Context) ([]entities.TaskStats, error) {
	query := `SELECT ` + taskColumns + `,
			(SELECT COUNT(*) FROM user_tasks ut WHERE ut.task_id = t.id AND ut.status = 'completed')
		FROM tasks t
		ORDER BY t.day_number`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list task stats", zap.Error(err))
		return nil, fmt.Errorf("list task stats: %w", err)
	}
	defer rows.Close()

	stats := make([]entities.TaskStats, 0)
	for rows.Next() {
		var s entities.TaskStats
		dest, done := taskDest(&s.Task)
		dest = append(dest, &s.CompletionCount)
		if err := rows.Scan(dest...); err != nil {
			r.log.Error("failed to scan task stats row", zap.Error(err))
			return nil, err
		}
		done()
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate task stats rows", zap.Error(err))
		return nil, err
	}
	return stats, nil
}

func (r *TaskRepository) Update(ctx context.Context, id int64, update entities.TaskUpdate) (*entities.Task, error) {
	data := update.VerificationData
	if data == nil {
		data = map[string]any{}
	}
	query := `UPDATE tasks t SET
			title = $2,
			description = $3,
			coins_reward = $4,
			verification_type = $5,
			verification_data = $6
		WHERE t.id = $1
		RETURNING ` + taskColumns

	return r.getOne(
		ctx,
		"update task",
		query,
		id,
		update.Title,
		update.Description,
		update.CoinsReward,
		string(update.VerificationType),
		data,
	)
}
