package app

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"strings"

	gorodsporta "gorod-sporta"
	httpadapter "gorod-sporta/internal/adapters/input/http"
	"gorod-sporta/internal/adapters/input/telegram"
	"gorod-sporta/internal/adapters/output/notify"
	"gorod-sporta/internal/adapters/output/postgres"
	"gorod-sporta/internal/adapters/output/storage"
	"gorod-sporta/internal/config"
	"gorod-sporta/internal/core/ports"
	"gorod-sporta/internal/core/service"
	dbinfra "gorod-sporta/internal/infrastructure/db"
	"gorod-sporta/internal/infrastructure/health"
	"gorod-sporta/internal/infrastructure/scheduler"
	"gorod-sporta/internal/logger"

	"github.com/go-telegram/bot"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const defaultWebhookPath = "/webhook"

type App struct {
	Config    *config.Config
	Log       *zap.Logger
	Pool      *pgxpool.Pool
	HTTP      *fiber.App
	Bot       *bot.Bot
	Health    *health.Server
	Scheduler *scheduler.Scheduler
	close     func()
}

func Init(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}

	log, err := logger.Init(cfg.Logger.Env, cfg.Logger.Level)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	a := &App{Config: cfg, Log: log}
	closers := []func(){func() { _ = log.Sync() }}
	a.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(msg string, err error) (*App, error) {
		log.Error(msg, zap.Error(err))
		a.Close()
		return nil, err
	}

	pool, err := dbinfra.ConnectToDB(ctx, cfg.GetDSN(), dbinfra.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	}, log)
	if err != nil {
		return fail("failed to connect to db", err)
	}
	a.Pool = pool
	closers = append(closers, pool.Close)

	migrationsFS, err := fs.Sub(gorodsporta.MigrationsFS, "migrations")
	if err != nil {
		return fail("failed to load embedded migrations", err)
	}
	if err := dbinfra.RunMigrations(cfg.GetDSN(), migrationsFS, log); err != nil {
		return fail("failed to run migrations", err)
	}

	repoFactory := func(q dbinfra.Querier) ports.Repositories {
		return postgres.NewRepositories(q, log)
	}
	uow := dbinfra.NewUnitOfWorkManager(pool, log, repoFactory)

	photos, uploadsDir, err := newPhotoStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fail("failed to init photo storage", err)
	}

	userService, err := service.NewUserService(uow, cfg.LeaderboardLimit, log)
	if err != nil {
		return fail("failed to init user service", err)
	}

	var (
		tgNotifier *notify.TelegramNotifier
		notifier   ports.Notifier
		tgSink     ports.Notifier
		vkSink     ports.Notifier
		webhook    *httpadapter.Webhook
	)
	if cfg.Bot.Token != "" {
		handler := telegram.NewHandler(userService, cfg.Bot.WebAppURL, log)
		opts := handler.Options()
		if cfg.Bot.Mode == config.BotModeWebhook && cfg.Bot.WebhookSecret != "" {
			opts = append(opts, bot.WithWebhookSecretToken(cfg.Bot.WebhookSecret))
		}
		b, err := bot.New(cfg.Bot.Token, opts...)
		if err != nil {
			return fail("failed to create telegram bot", err)
		}
		handler.Register(b)
		a.Bot = b

		tgNotifier, err = notify.NewTelegramNotifier(b, log)
		if err != nil {
			return fail("failed to init telegram notifier", err)
		}
		tgSink = tgNotifier

		if cfg.Bot.Mode == config.BotModeWebhook {
			webhook = &httpadapter.Webhook{Path: webhookPath(cfg.Bot.WebhookURL), Handler: b.WebhookHandler()}
		}
	} else {
		log.Warn("bot: BOT_TOKEN is empty, telegram bot disabled")
	}
	if cfg.VK.Token != "" {
		vk, err := notify.NewVKNotifier(notify.VKOptions{
			Token:      cfg.VK.Token,
			APIVersion: cfg.VK.APIVersion,
			APIURL:     cfg.VK.APIURL,
		}, log)
		if err != nil {
			return fail("failed to init vk notifier", err)
		}
		vkSink = vk
	}
	if tgSink != nil || vkSink != nil {
		notifier = notify.NewRouter(tgSink, vkSink)
	}

	completionService, err := service.NewCompletionService(uow, log)
	if err != nil {
		return fail("failed to init completion service", err)
	}
	shopService, err := service.NewShopService(uow, log)
	if err != nil {
		return fail("failed to init shop service", err)
	}
	reviewService, err := service.NewReviewService(uow, photos, notifier, log)
	if err != nil {
		return fail("failed to init review service", err)
	}
	adminService, err := service.NewAdminService(uow, log)
	if err != nil {
		return fail("failed to init admin service", err)
	}
	credentials, err := cfg.Admin.Parse()
	if err != nil {
		return fail("failed to parse admin credentials", err)
	}
	adminAuth, err := service.NewAdminAuth(credentials, log)
	if err != nil {
		return fail("failed to init admin auth", err)
	}

	server := httpadapter.NewServer(httpadapter.Deps{
		Completion: completionService,
		Users:      userService,
		Shop:       shopService,
		Reviews:    reviewService,
		Admin:      adminService,
		Auth:       adminAuth,
	}, log)
	a.HTTP = server.App(httpadapter.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		BodyLimit:      cfg.HTTP.BodyLimitMB << 20,
		UploadsDir:     uploadsDir,
		UploadsPath:    cfg.Storage.PublicBaseURL,
		Webhook:        webhook,
	})

	healthServer, err := health.NewServer(cfg.GRPC.Port, pool, log)
	if err != nil {
		return fail("failed to init grpc health server", err)
	}
	a.Health = healthServer
	closers = append(closers, healthServer.Stop)

	sched, err := scheduler.New(log)
	if err != nil {
		return fail("failed to init scheduler", err)
	}
	a.Scheduler = sched
	closers = append(closers, func() {
		if err := sched.Shutdown(); err != nil {
			log.Warn("scheduler: shutdown failed", zap.Error(err))
		}
	})
	if err := sched.Every("db-health", cfg.Scheduler.HealthInterval, healthServer.Probe); err != nil {
		return fail("failed to schedule health probe", err)
	}
	if cfg.Scheduler.AdminChatID != 0 && tgNotifier != nil {
		digest, err := service.NewReviewDigest(uow, tgNotifier, cfg.Scheduler.AdminChatID, log)
		if err != nil {
			return fail("failed to init review digest", err)
		}
		if err := sched.Every("review-digest", cfg.Scheduler.DigestInterval, digest.Run); err != nil {
			return fail("failed to schedule review digest", err)
		}
	} else {
		log.Info("scheduler: review digest disabled")
	}

	return a, nil
}

// RunBot receives Telegram updates until ctx is done. In webhook mode the
// updates arrive through the HTTP server.
func (a *App) RunBot(ctx context.Context) {
	if a.Bot == nil {
		return
	}
	if a.Config.Bot.Mode == config.BotModeWebhook {
		if _, err := a.Bot.SetWebhook(ctx, &bot.SetWebhookParams{
			URL:         a.Config.Bot.WebhookURL,
			SecretToken: a.Config.Bot.WebhookSecret,
		}); err != nil {
			a.Log.Error("bot: failed to set webhook", zap.Error(err))
			return
		}
		a.Log.Info("bot: webhook mode", zap.String("url", a.Config.Bot.WebhookURL))
		a.Bot.StartWebhook(ctx)
		return
	}
	if _, err := a.Bot.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		a.Log.Warn("bot: failed to delete webhook", zap.Error(err))
	}
	a.Log.Info("bot: polling mode")
	a.Bot.Start(ctx)
}

func (a *App) Close() {
	if a == nil || a.close == nil {
		return
	}
	a.close()
}

func newPhotoStorage(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (ports.PhotoStorage, string, error) {
	if cfg.Driver == config.StorageDriverS3 {
		st, err := storage.NewS3Storage(ctx, storage.S3Options{
			Bucket:        cfg.Bucket,
			Endpoint:      cfg.Endpoint,
			Region:        cfg.Region,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		}, log)
		return st, "", err
	}
	st, err := storage.NewLocalStorage(cfg.LocalDir, cfg.PublicBaseURL, log)
	if err != nil {
		return nil, "", err
	}
	// only a root-relative public URL can be served by this process
	if !strings.HasPrefix(cfg.PublicBaseURL, "/") {
		return st, "", nil
	}
	return st, st.Dir(), nil
}

func webhookPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return defaultWebhookPath
	}
	return u.Path
}
