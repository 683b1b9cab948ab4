package ports

import "context"

type Repositories struct {
	Users       UserRepository
	Tasks       TaskRepository
	Ledger      LedgerRepository
	StaffCodes  StaffCodeRepository
	Reviews     ReviewRepository
	Referrals   ReferralRepository
	Shop        ShopRepository
	Adjustments AdjustmentRepository
	Stats       StatsRepository
}

type UnitOfWork interface {
	Repositories() Repositories
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UnitOfWorkManager interface {
	Begin(ctx context.Context) (UnitOfWork, error)
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error
}
