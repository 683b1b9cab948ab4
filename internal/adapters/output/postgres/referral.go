package postgres

import (
	"context"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/infrastructure/db"

	"go.uber.org/zap"
)

type ReferralRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewReferralRepository(db db.Querier, log *zap.Logger) *ReferralRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &ReferralRepository{
		db:  db,
		log: log,
	}
}

func (r *ReferralRepository) Create(ctx context.Context, referral *entities.Referral) error {
	query := `INSERT INTO referrals (user_id, friend_name, friend_phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := r.db.QueryRow(ctx, query, referral.UserID, referral.FriendName, referral.FriendPhone).
		Scan(&referral.ID, &referral.CreatedAt); err != nil {
		r.log.Error("failed to create referral", zap.Error(err))
		return fmt.Errorf("create referral: %w", err)
	}
	return nil
}

func (r *ReferralRepository) List(ctx context.Context) ([]entities.ReferralView, error) {
	query := `SELECT rf.id, rf.user_id, rf.friend_name, rf.friend_phone, rf.created_at,
			u.first_name, u.last_name, u.telegram_id, u.vk_id
		FROM referrals rf
		JOIN users u ON u.id = rf.user_id
		ORDER BY rf.created_at DESC, rf.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list referrals", zap.Error(err))
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	defer rows.Close()

	referrals := make([]entities.ReferralView, 0)
	for rows.Next() {
		var v entities.ReferralView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.FriendName, &v.FriendPhone, &v.CreatedAt,
			&v.FirstName, &v.LastName, &v.TelegramID, &v.VKID,
		); err != nil {
			r.log.Error("failed to scan referral row", zap.Error(err))
			return nil, err
		}
		referrals = append(referrals, v)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate referral rows", zap.Error(err))
		return nil, err
	}
	return referrals, nil
}
