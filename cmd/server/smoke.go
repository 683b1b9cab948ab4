package main

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorod-sporta/internal/adapters/output/postgres"
	"gorod-sporta/internal/core/domain/entities"
	"gorod-sporta/internal/core/domain/exceptions"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// errSmokeRollback ends the smoke transaction so nothing it wrote survives.
var errSmokeRollback = errors.New("smoke test rollback")

// runRepoSmokeTest walks the repositories through one registration,
// completion and purchase inside a transaction that is always rolled back.
func runRepoSmokeTest(ctx context.Context, log *zap.Logger, pool *pgxpool.Pool) {
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if err := smokeSteps(ctx, log, tx); err != nil {
			return err
		}
		return errSmokeRollback
	})
	if err != nil && !errors.Is(err, errSmokeRollback) {
		log.Error("smoke test: failed", zap.Error(err))
		return
	}
	log.Info("smoke test: passed")
}

func smokeSteps(ctx context.Context, log *zap.Logger, tx pgx.Tx) error {
	repos := postgres.NewRepositories(tx, log)
	fixture := uuid.New()

	ref := entities.PlatformRef{Platform: entities.PlatformTelegram, ID: time.Now().UnixNano()}
	log.Info("smoke test: creating user", zap.Int64("telegram_id", ref.ID))
	user, err := repos.Users.UpsertByPlatform(ctx, ref, entities.Profile{
		FirstName: "Smoke",
		Username:  "smoke-" + fixture.String(),
	})
	if err != nil {
		return err
	}

	if _, err := repos.Users.GetByPlatform(ctx, ref); err != nil {
		return err
	}

	log.Info("smoke test: loading catalog")
	tasks, err := repos.Tasks.List(ctx)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		log.Warn("smoke test: task catalog is empty, skipping completion")
		return nil
	}
	task := tasks[0]

	log.Info("smoke test: completing task", zap.Int("day", task.DayNumber))
	now := time.Now()
	result, _ := json.Marshal(map[string]string{"fixture": fixture.String()})
	completion := &entities.Completion{
		UserID:      user.ID,
		TaskID:      task.ID,
		Status:      entities.CompletionStatusCompleted,
		CompletedAt: &now,
		VerifiedBy:  "smoke",
		Result:      result,
	}
	if err := repos.Ledger.Complete(ctx, completion); err != nil {
		return err
	}
	if err := repos.Ledger.Complete(ctx, completion); !errors.Is(err, exceptions.ErrAlreadyCompleted) {
		log.Error("smoke test: second completion was not rejected", zap.Error(err))
		return errors.New("ledger accepted a duplicate completion")
	}

	coins, err := repos.Users.Credit(ctx, user.ID, task.CoinsReward)
	if err != nil {
		return err
	}
	log.Info("smoke test: reward credited", zap.Int64("coins", coins))

	items, err := repos.Shop.ListActive(ctx)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Price > coins {
			continue
		}
		if _, err := repos.Users.Debit(ctx, user.ID, item.Price); err != nil {
			return err
		}
		if err := repos.Shop.CreatePurchase(ctx, &entities.Purchase{
			UserID:      user.ID,
			ItemID:      item.ID,
			PricePaid:   item.Price,
			PurchasedAt: now,
		}); err != nil {
			return err
		}
		log.Info("smoke test: item purchased", zap.Int64("item_id", item.ID))
		break
	}

	if _, err := repos.Stats.Collect(ctx, now.Add(-time.Hour)); err != nil {
		return err
	}
	return nil
}
