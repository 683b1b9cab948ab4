package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"
	"gorod-sporta/internal/infrastructure/db"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const userColumns = `u.id, u.telegram_id, u.vk_id, u.first_name, u.last_name, u.username, u.phone,
	u.membership_type, u.coins, u.xp, u.survey_data, u.last_activity_at, u.created_at`

type UserRepository struct {
	db  db.Querier
	log *zap.Logger
}

func NewUserRepository(db db.Querier, log *zap.Logger) *UserRepository {
	if db == nil {
		log.Fatal("database querier is nil")
	}
	if log == nil {
		log.Fatal("logger is nil")
	}
	return &UserRepository{
		db:  db,
		log: log,
	}
}

func scanUser(row scanner) (*entities.User, error) {
	var (
		user   entities.User
		survey []byte
	)
	if err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.VKID,
		&user.FirstName,
		&user.LastName,
		&user.Username,
		&user.Phone,
		&user.MembershipType,
		&user.Coins,
		&user.XP,
		&survey,
		&user.LastActivityAt,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.SurveyData = survey
	return &user, nil
}

// platformColumn maps a platform to its id column. The result is used in
// query text, so only the fixed column names may come out of it.
func platformColumn(p entities.Platform) (string, error) {
	switch p {
	case entities.PlatformTelegram:
		return "telegram_id", nil
	case entities.PlatformVK:
		return "vk_id", nil
	default:
		return "", exceptions.ErrInvalidPlatformRef
	}
}

func (r *UserRepository) getOne(ctx context.Context, op, query string, args ...any) (*entities.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrUserNotFound
		}
		r.log.Error("failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1`
	return r.getOne(ctx, "get user", query, id)
}

// GetForUpdate also blocks ledger, review and purchase inserts for the user,
// since their foreign keys take a share lock on the same row.
func (r *UserRepository) GetForUpdate(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.id = $1 FOR UPDATE`
	return r.getOne(ctx, "lock user", query, id)
}

func (r *UserRepository) GetByPlatform(ctx context.Context, ref entities.PlatformRef) (*entities.User, error) {
	column, err := platformColumn(ref.Platform)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.` + column + ` = $1`
	return r.getOne(ctx, "get user by platform", query, ref.ID)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users u WHERE u.phone = $1`
	return r.getOne(ctx, "get user by phone", query, phone)
}

func (r *UserRepository) UpsertByPlatform(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error) {
	column, err := platformColumn(ref.Platform)
	if err != nil {
		return nil, err
	}
	query := `INSERT INTO users AS u (` + column + `, first_name, last_name, username, phone, membership_type, last_activity_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (` + column + `) DO UPDATE SET
			first_name = COALESCE(NULLIF(EXCLUDED.first_name, ''), u.first_name),
			last_name = COALESCE(NULLIF(EXCLUDED.last_name, ''), u.last_name),
			username = COALESCE(NULLIF(EXCLUDED.username, ''), u.username),
			phone = COALESCE(EXCLUDED.phone, u.phone),
			membership_type = COALESCE(NULLIF(EXCLUDED.membership_type, ''), u.membership_type),
			last_activity_at = now()
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(
		ctx,
		query,
		ref.ID,
		profile.FirstName,
		profile.LastName,
		profile.Username,
		nullIfEmpty(profile.Phone),
		profile.MembershipType,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, exceptions.ErrPhoneTaken
		}
		r.log.Error("failed to upsert user", zap.Error(err))
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) LinkPlatform(ctx context.Context, userID int64, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error) {
	column, err := platformColumn(ref.Platform)
	if err != nil {
		return nil, err
	}
	query := `UPDATE users u SET
			` + column + ` = $2,
			first_name = COALESCE(NULLIF($3, ''), u.first_name),
			last_name = COALESCE(NULLIF($4, ''), u.last_name),
			username = COALESCE(NULLIF($5, ''), u.username),
			phone = COALESCE($6, u.phone),
			membership_type = COALESCE(NULLIF($7, ''), u.membership_type),
			last_activity_at = now()
		WHERE u.id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRow(
		ctx,
		query,
		userID,
		ref.ID,
		profile.FirstName,
		profile.LastName,
		profile.Username,
		nullIfEmpty(profile.Phone),
		profile.MembershipType,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, exceptions.ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, exceptions.ErrPhoneTaken
		}
		r.log.Error("failed to link platform", zap.Error(err))
		return nil, fmt.Errorf("link platform: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to delete user", zap.Error(err))
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return exceptions.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) HasActivity(ctx context.Context, userID int64) (bool, error) {
	query := `SELECT
		EXISTS (SELECT 1 FROM users WHERE id = $1 AND (coins > 0 OR xp > 0 OR survey_data IS NOT NULL))
		OR EXISTS (SELECT 1 FROM user_tasks WHERE user_id = $1)
		OR EXISTS (SELECT 1 FROM reviews WHERE user_id = $1)
		OR EXISTS (SELECT 1 FROM referrals WHERE user_id = $1)
		OR EXISTS (SELECT 1 FROM purchases WHERE user_id = $1)
		OR EXISTS (SELECT 1 FROM balance_adjustments WHERE user_id = $1)`

	var active bool
	if err := r.db.QueryRow(ctx, query, userID).Scan(&active); err != nil {
		r.log.Error("failed to check user activity", zap.Error(err))
		return false, fmt.Errorf("check user activity: %w", err)
	}
	return active, nil
}

func (r *UserRepository) Credit(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `UPDATE users SET coins = coins + $2, xp = xp + $2, last_activity_at = now()
		WHERE id = $1
		RETURNING coins`

	var coins int64
	if err := r.db.QueryRow(ctx, query, userID, amount).Scan(&coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, exceptions.ErrUserNotFound
		}
		r.log.Error("failed to credit user", zap.Error(err))
		return 0, fmt.Errorf("credit user: %w", err)
	}
	return coins, nil
}

func (r *UserRepository) Debit(ctx context.Context, userID int64, amount int64) (int64, error) {
	query := `UPDATE users SET coins = coins - $2, last_activity_at = now()
		WHERE id = $1 AND coins >= $2
		RETURNING coins`

	var coins int64
	if err := r.db.QueryRow(ctx, query, userID, amount).Scan(&coins); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, exceptions.ErrInsufficientBalance
		}
		r.log.Error("failed to debit user", zap.Error(err))
		return 0, fmt.Errorf("debit user: %w", err)
	}
	return coins, nil
}

func (r *UserRepository) SetBalance(ctx context.Context, userID int64, coins, xp int64) (*entities.User, error) {
	query := `UPDATE users u SET coins = $2, xp = $3 WHERE u.id = $1 RETURNING ` + userColumns
	return r.getOne(ctx, "set balance", query, userID, coins, xp)
}

func (r *UserRepository) SaveSurvey(ctx context.Context, userID int64, answers json.RawMessage) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET survey_data = $2, last_activity_at = now() WHERE id = $1`, userID, jsonParam(answers))
	if err != nil {
		r.log.Error("failed to save survey", zap.Error(err))
		return fmt.Errorf("save survey: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return exceptions.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]entities.UserSummary, error) {
	query := `SELECT ` + userColumns + `,
			(SELECT COUNT(*) FROM user_tasks ut WHERE ut.user_id = u.id AND ut.status = 'completed')
		FROM users u
		ORDER BY u.created_at DESC, u.id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to list users", zap.Error(err))
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.UserSummary, 0)
	for rows.Next() {
		var (
			summary entities.UserSummary
			survey  []byte
		)
		u := &summary.User
		if err := rows.Scan(
			&u.ID, &u.TelegramID, &u.VKID, &u.FirstName, &u.LastName, &u.Username, &u.Phone,
			&u.MembershipType, &u.Coins, &u.XP, &survey, &u.LastActivityAt, &u.CreatedAt,
			&summary.CompletedTasks,
		); err != nil {
			r.log.Error("failed to scan user row", zap.Error(err))
			return nil, err
		}
		u.SurveyData = survey
		users = append(users, summary)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate user rows", zap.Error(err))
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error) {
	query := `SELECT id, telegram_id, vk_id, first_name, coins, xp
		FROM users
		ORDER BY xp DESC, id ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("failed to load leaderboard", zap.Error(err))
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]entities.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e entities.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TelegramID, &e.VKID, &e.FirstName, &e.Coins, &e.XP); err != nil {
			r.log.Error("failed to scan leaderboard row", zap.Error(err))
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		r.log.Error("failed to iterate leaderboard rows", zap.Error(err))
		return nil, err
	}
	return entries, nil
}
