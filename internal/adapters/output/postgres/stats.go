package postgres

import (
	"context"
	"fmt"
	"time"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/infrastructure/db"

	"go.uber.org/zap"
)

type StatsRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewStatsRepository(db db.Querier, log *zap.Logger) *StatsRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &StatsRepository{
		db:  db,
		log: log,
	}
}

func (r *StatsRepository) Collect(ctx context.Context, activeSince time.Time) (*entities.Stats, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM users WHERE last_activity_at >= $1),
		(SELECT COUNT(*) FROM tasks),
		(SELECT COUNT(*) FROM user_tasks WHERE status = 'completed'),
		(SELECT COUNT(*) FROM shop_items),
		(SELECT COUNT(*) FROM purchases),
		(SELECT COALESCE(SUM(price_paid), 0)::bigint FROM purchases),
		(SELECT COUNT(*) FROM reviews WHERE status = 'pending')`

	stats := &entities.Stats{}
	if err := r.db.QueryRow(ctx, query, activeSince).Scan(
		&stats.Users.Total,
		&stats.Users.Active,
		&stats.Tasks.Total,
		&stats.Tasks.Completed,
		&stats.Prizes.Total,
		&stats.Prizes.Purchased,
		&stats.Prizes.CoinsSpent,
		&stats.Reviews.Pending,
	); err != nil {
		r.log.Error("failed to collect stats", zap.Error(err))
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	return stats, nil
}
