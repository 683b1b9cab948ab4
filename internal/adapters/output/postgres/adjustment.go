package postgres

import (
	"context"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/infrastructure/db"

	"go.uber.org/zap"
)

// AdjustmentRepository is the audit log of manual balance changes.
type AdjustmentRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewAdjustmentRepository(db db.Querier, log *zap.Logger) *AdjustmentRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &AdjustmentRepository{
		db:  db,
		log: log,
	}
}

func (r *AdjustmentRepository) Record(ctx context.Context, adjustment *entities.BalanceAdjustment) error {
	query := `INSERT INTO balance_adjustments (user_id, coins_delta, xp_delta, reason, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id, created_at`

	createdAt := &adjustment.CreatedAt
	if adjustment.CreatedAt.IsZero() {
		createdAt = nil
	}

	if err := r.db.QueryRow(
		ctx,
		query,
		adjustment.UserID,
		adjustment.CoinsDelta,
		adjustment.XPDelta,
		adjustment.Reason,
		adjustment.Actor,
		createdAt,
	).Scan(&adjustment.ID, &adjustment.CreatedAt); err != nil {
		r.log.Error("failed to record balance adjustment", zap.Error(err))
		return fmt.Errorf("record balance adjustment: %w", err)
	}
	return nil
}

func (r *AdjustmentRepository) ListByUser(ctx context.Context, userID int64) ([]entities.BalanceAdjustment, error) {
	query := `SELECT id, user_id, coins_delta, xp_delta, reason, actor, created_at
		FROM balance_adjustments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list balance adjustments", zap.Error(err))
		return nil, fmt.Errorf("list balance adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := make([]entities.BalanceAdjustment, 0)
	for rows.Next() {
		var a entities.BalanceAdjustment
		if err := rows.Scan(&a.ID, &a.UserID, &a.CoinsDelta, &a.XPDelta, &a.Reason, &a.Actor, &a.CreatedAt); err != nil {
			r.log.Error("failed to scan balance adjustment row", zap.Error(err))
			return nil, err
		}
		adjustments = append(adjustments, a)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate balance adjustment rows", zap.Error(err))
		return nil, err
	}
	return adjustments, nil
}
