package postgres

import (
	"gorod-sporta/internal/core/ports"
	"gorod-sporta/internal/infrastructure/db"

	"go.uber.org/zap"
)

// NewRepositories binds every repository to q, which is either the pool or
// an open transaction.
func NewRepositories(q db.Querier, log *zap.Logger) ports.Repositories {
	return ports.Repositories{
		Users:       NewUserRepository(q, log),
		Tasks:       NewTaskRepository(q, log),
		Ledger:      NewLedgerRepository(q, log),
		StaffCodes:  NewStaffCodeRepository(q, log),
		Reviews:     NewReviewRepository(q, log),
		Referrals:   NewReferralRepository(q, log),
		Shop:        NewShopRepository(q, log),
		Adjustments: NewAdjustmentRepository(q, log),
		Stats:       NewStatsRepository(q, log),
	}
}
