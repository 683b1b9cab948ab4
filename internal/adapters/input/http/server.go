package http

import (
	"errors"
	nethttp "net/http"
	"strings"

	"gorod-sporta/internal/core/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

type Deps struct {
	Completion ports.CompletionUseCases
	Users      ports.UserUseCases
	Shop       ports.ShopUseCases
	Reviews    ports.ReviewUseCases
	Admin      ports.AdminUseCases
	Auth       ports.AdminAuthenticator
}

type Options struct {
	AllowedOrigins []string
	BodyLimit      int
	// UploadsDir is served at UploadsPath when photos are kept on disk.
	UploadsDir  string
	UploadsPath string
	Webhook     *Webhook
}

// Webhook mounts the chat bot update endpoint on the same listener.
type Webhook struct {
	Path    string
	Handler nethttp.Handler
}

type Server struct {
	completion ports.CompletionUseCases
	users      ports.UserUseCases
	shop       ports.ShopUseCases
	reviews    ports.ReviewUseCases
	admin      ports.AdminUseCases
	auth       ports.AdminAuthenticator
	log        *zap.Logger
}

func NewServer(deps Deps, log *zap.Logger) *Server {
	if log == nil {
		panic("logger is nil")
	}
	switch {
	case deps.Completion == nil:
		log.Fatal("completion service is nil")
	case deps.Users == nil:
		log.Fatal("user service is nil")
	case deps.Shop == nil:
		log.Fatal("shop service is nil")
	case deps.Reviews == nil:
		log.Fatal("review service is nil")
	case deps.Admin == nil:
		log.Fatal("admin service is nil")
	case deps.Auth == nil:
		log.Fatal("admin authenticator is nil")
	}
	return &Server{
		completion: deps.Completion,
		users:      deps.Users,
		shop:       deps.Shop,
		reviews:    deps.Reviews,
		admin:      deps.Admin,
		auth:       deps.Auth,
		log:        log,
	}
}

// App builds the fiber application with every route registered.
func (s *Server) App(opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             opts.BodyLimit,
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	origins := strings.Join(opts.AllowedOrigins, ",")
	if origins == "" {
		origins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(accessLog(s.log))

	if opts.UploadsDir != "" {
		app.Static(opts.UploadsPath, opts.UploadsDir)
	}
	if opts.Webhook != nil {
		app.Post(opts.Webhook.Path, adaptor.HTTPHandler(opts.Webhook.Handler))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	api.Get("/user/:platformId", s.getUser)
	api.Post("/complete-task", s.completeTask)
	api.Post("/survey", s.submitSurvey)
	api.Post("/register", s.register)
	api.Get("/shop", s.listShop)
	api.Post("/purchase", s.purchase)
	api.Get("/leaderboard", s.leaderboard)
	api.Post("/upload-review", s.uploadReview)

	admin := app.Group("/admin/api")
	admin.Post("/login", s.adminLogin)
	admin.Use(s.requireAdmin)
	admin.Get("/stats", s.stats)
	admin.Get("/users", s.listUsers)
	admin.Get("/users/:id", s.getUserDetails)
	admin.Get("/users/:id/tasks", s.userTasks)
	admin.Get("/users/:id/purchases", s.userPurchases)
	admin.Post("/users/:id/update", requireWrite, s.updateBalance)
	admin.Delete("/users/:id", requireWrite, s.deleteUser)
	admin.Get("/tasks", s.listTasks)
	admin.Put("/tasks/:id", requireWrite, s.updateTask)
	admin.Get("/prizes", s.listPrizes)
	admin.Put("/prizes/:id", requireWrite, s.updatePrize)
	admin.Get("/purchases", s.listPurchases)
	admin.Get("/referrals", s.listReferrals)
	admin.Get("/reviews", s.listReviews)
	admin.Get("/reviews/count", s.countReviews)
	admin.Post("/reviews/:id/approve", requireWrite, s.approveReview)
	admin.Post("/reviews/:id/reject", requireWrite, s.rejectReview)
	admin.Get("/staff-codes", s.listStaffCodes)
	admin.Post("/staff-codes", requireWrite, s.createStaffCode)

	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("http: unhandled error", zap.String("path", c.Path()), zap.Error(err))
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
