package ports

import (
	"context"

	"gorod-sporta/internal/core/domain/entities"
)

type CompletionUseCases interface {
	CompleteTask(ctx context.Context, submission entities.Submission) (*entities.CompletionResult, error)
}

type UserUseCases interface {
	Register(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error)
	TouchFromBot(ctx context.Context, ref entities.PlatformRef, profile entities.Profile) (*entities.User, error)
	GetProfile(ctx context.Context, ref entities.PlatformRef) (*entities.User, []entities.TaskProgress, error)
	Leaderboard(ctx context.Context, limit int) ([]entities.LeaderboardEntry, error)
}

type ShopUseCases interface {
	ListItems(ctx context.Context) ([]entities.ShopItem, error)
	Purchase(ctx context.Context, ref entities.PlatformRef, itemID int64) (*entities.PurchaseResult, error)
}

type ReviewUseCases interface {
	Submit(ctx context.Context, ref entities.PlatformRef, taskDay int, photo entities.Photo) (*entities.Review, error)
	Approve(ctx context.Context, reviewID int64, reviewer string) (*entities.ReviewDecision, error)
	Reject(ctx context.Context, reviewID int64, reviewer, comment string) (*entities.ReviewDecision, error)
	List(ctx context.Context, status *entities.ReviewStatus) ([]entities.ReviewView, error)
	CountPending(ctx context.Context) (int64, error)
}

type AdminUseCases interface {
	Stats(ctx context.Context) (*entities.Stats, error)
	ListUsers(ctx context.Context) ([]entities.UserSummary, error)
	GetUser(ctx context.Context, id int64) (*entities.UserDetails, error)
	UserTasks(ctx context.Context, id int64) ([]entities.CompletedTask, error)
	UserPurchases(ctx context.Context, id int64) ([]entities.PurchaseView, error)
	UpdateBalance(ctx context.Context, id int64, update entities.BalanceUpdate) (*entities.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ListTasks(ctx context.Context) ([]entities.TaskStats, error)
	UpdateTask(ctx context.Context, id int64, update entities.TaskUpdate) (*entities.Task, error)
	ListPrizes(ctx context.Context) ([]entities.ShopItemStats, error)
	UpdatePrize(ctx context.Context, item *entities.ShopItem) error
	ListPurchases(ctx context.Context) ([]entities.PurchaseView, error)
	ListReferrals(ctx context.Context) ([]entities.ReferralView, error)
	ListStaffCodes(ctx context.Context) ([]entities.StaffCode, error)
	CreateStaffCode(ctx context.Context, code *entities.StaffCode) error
}

type AdminAuthenticator interface {
	Login(ctx context.Context, password string) (string, *entities.AdminIdentity, error)
	Authenticate(ctx context.Context, token string) (*entities.AdminIdentity, error)
}
