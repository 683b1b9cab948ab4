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

type StaffCodeRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewStaffCodeRepository(db db.Querier, log *zap.Logger) *StaffCodeRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &StaffCodeRepository{
		db:  db,
		log: log,
	}
}

// redeemAttempts bounds re-runs after a lost race. A fresh statement sees the
// winner's commit and can fall through to the next matching code.
const redeemAttempts = 2

// Redeem locks one matching code with uses left and bumps its counter. A
// day-scoped code is preferred over a global one. Under concurrency the
// loser re-reads the locked row after the winner commits; if the winner took
// the last use, the statement returns no row and is run again.
func (r *StaffCodeRepository) Redeem(ctx context.Context, code string, taskDay int) error {
	query := `UPDATE staff_codes SET used_count = used_count + 1
		WHERE id = (
			SELECT id FROM staff_codes
			WHERE LOWER(code) = LOWER($1)
				AND (task_day = $2 OR task_day IS NULL)
				AND used_count < usage_limit
			ORDER BY task_day NULLS LAST, id
			LIMIT 1
			FOR UPDATE
		)
		AND used_count < usage_limit
		RETURNING id`

	var id int64
	for attempt := 1; ; attempt++ {
		err := r.db.QueryRow(ctx, query, code, taskDay).Scan(&id)
		if err == nil {
			break
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			r.log.Error("failed to redeem staff code", zap.Error(err))
			return fmt.Errorf("redeem staff code: %w", err)
		}
		if attempt == redeemAttempts {
			return exceptions.ErrInvalidCode
		}
	}
	r.log.Debug("staff code redeemed", zap.Int64("code_id", id), zap.Int("task_day", taskDay))
	return nil
}

func (r *StaffCodeRepository) List(ctx context.Context) ([]entities.StaffCode, error) {
	query := `SELECT id, code, task_day, usage_limit, used_count, created_at
		FROM staff_codes
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list staff codes", zap.Error(err))
		return nil, fmt.Errorf("list staff codes: %w", err)
	}
	defer rows.Close()

	codes := make([]entities.StaffCode, 0)
	for rows.Next() {
		var c entities.StaffCode
		if err := rows.Scan(&c.ID, &c.Code, &c.TaskDay, &c.UsageLimit, &c.UsedCount, &c.CreatedAt); err != nil {
			r.log.Error("failed to scan staff code row", zap.Error(err))
			return nil, err
		}
		codes = append(codes, c)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate staff code rows", zap.Error(err))
		return nil, err
	}
	return codes, nil
}

func (r *StaffCodeRepository) Create(ctx context.Context, code *entities.StaffCode) error {
	query := `INSERT INTO staff_codes (code, task_day, usage_limit)
		VALUES ($1, $2, $3)
		RETURNING id, used_count, created_at`

	if err := r.db.QueryRow(ctx, query, code.Code, code.TaskDay, code.UsageLimit).
		Scan(&code.ID, &code.UsedCount, &code.CreatedAt); err != nil {
		r.log.Error("failed to create staff code", zap.Error(err))
		return fmt.Errorf("create staff code: %w", err)
	}
	return nil
}
