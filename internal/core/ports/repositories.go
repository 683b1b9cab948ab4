package ports

import (
	"context"
	"encoding/json"
	"time"

	"gorod-sporta/internal/core/domain/entities"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	// GetForUpdate locks the account row until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*entities.User, error)
	GetByPlatform(ctx context.Context, ref entities.PlatformRef) (*entities.User, error)
	GetByPhone(ctx context.Context, phone string) (*entities.User, error)
	// UpsertByPlatform creates the platform-scoped user or refreshes its
	// profile. Empty profile fields keep their stored values.
	UpsertByPlatform(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error)
	LinkPlatform(ctx context.Context, userID int64, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error)
	Delete(ctx context.Context, id int64) error
	// HasActivity reports whether the account holds anything worth keeping:
	// a balance, survey answers, or any completion, review, referral,
	// purchase or adjustment row.
	HasActivity(ctx context.Context, userID int64) (bool, error)
	Credit(ctx context.Context, userID int64, amount int64) (int64, error)
	Debit(ctx context.Context, userID int64, amount int64) (int64, error)
	SetBalance(ctx context.Context, userID int64, coins, xp int64) (*entities.User, error)
	SaveSurvey(ctx context.Context, userID int64, answers json.RawMessage) error
	List(ctx context.Context) ([]entities.UserSummary, error)
	Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)
}

type TaskRepository interface {
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	GetByDay(ctx context.Context, day int) (*entities.Task, error)
	List(ctx context.Context) ([]*entities.Task, error)
	ListForUser(ctx context.Context, userID int64) ([]entities.TaskProgress, error)
	ListStats(ctx context.Context) ([]entities.TaskStats, error)
	Update(ctx context.Context, id int64, update entities.TaskUpdate) (*entities.Task, error)
}

// LedgerRepository stores completion records, at most one per (user, task).
type LedgerRepository interface {
	IsCompleted(ctx context.Context, userID, taskID int64) (bool, error)
	// Complete marks the pair completed and returns ErrAlreadyCompleted when
	// another writer got there first.
	Complete(ctx context.Context, completion *entities.Completion) error
	ListByUser(ctx context.Context, userID int64) ([]entities.CompletedTask, error)
}

type StaffCodeRepository interface {
	// Redeem consumes one use of a code valid for taskDay and returns
	// ErrInvalidCode when no such code has uses left.
	Redeem(ctx context.Context, code string, taskDay int) error
	List(ctx context.Context) ([]entities.StaffCode, error)
	Create(ctx context.Context, code *entities.StaffCode) error
}

type ReviewRepository interface {
	HasActive(ctx context.Context, userID, taskID int64) (bool, error)
	Create(ctx context.Context, review *entities.Review) error
	GetForUpdate(ctx context.Context, id int64) (*entities.Review, error)
	Decide(ctx context.Context, review *entities.Review) error
	List(ctx context.Context, status *entities.ReviewStatus) ([]entities.ReviewView, error)
	CountPending(ctx context.Context) (int64, error)
}

type ReferralRepository interface {
	Create(ctx context.Context, referral *entities.Referral) error
	List(ctx context.Context) ([]entities.ReferralView, error)
}

type ShopRepository interface {
	ListActive(ctx context.Context) ([]entities.ShopItem, error)
	ListStats(ctx context.Context) ([]entities.ShopItemStats, error)
	GetActiveItem(ctx context.Context, id int64) (*entities.ShopItem, error)
	UpdateItem(ctx context.Context, item *entities.ShopItem) error
	CreatePurchase(ctx context.Context, purchase *entities.Purchase) error
	ListPurchases(ctx context.Context, limit int) ([]entities.PurchaseView, error)
	ListPurchasesByUser(ctx context.Context, userID int64) ([]entities.PurchaseView, error)
}

type AdjustmentRepository interface {
	Record(ctx context.Context, adjustment *entities.BalanceAdjustment) error
	ListByUser(ctx context.Context, userID int64) ([]entities.BalanceAdjustment, error)
}

type StatsRepository interface {
	Collect(ctx context.Context, activeSince time.Time) (*entities.Stats, error)
}
