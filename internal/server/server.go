// Package server wires the HTTP API: route registration, middleware stack,
// and the handlers that translate requests into service calls.
package server

import (
	"time"

	"tweetapp/internal/cache"
	"tweetapp/internal/config"
	"tweetapp/internal/mailer"
	"tweetapp/internal/middleware"
	"tweetapp/internal/repository"
	"tweetapp/internal/service"
	"tweetapp/internal/session"
	"tweetapp/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Server holds the application's wired dependencies and the Fiber app.
type Server struct {
	App    *fiber.App
	Config *config.Config

	db        *gorm.DB
	userRepo  repository.UserRepository
	tweetRepo repository.TweetRepository

	registration *service.RegistrationService
	auth         *service.AuthService
	tweets       *service.TweetService
	users        *service.UserService
	media        *service.MediaService
}

// Deps bundles the injectable infrastructure. Tests substitute in-memory
// storage, a fake mailer, and a miniredis-backed session store here.
type Deps struct {
	Sessions *session.Store
	Mail     mailer.Mailer
	Store    storage.Storage
}

// NewServer builds a fully wired server from configuration, a database
// handle, and the shared infrastructure created in main.
func NewServer(cfg *config.Config, db *gorm.DB, deps Deps) *Server {
	middleware.InitMiddleware(cfg)
	userRepo := repository.NewUserRepository(db)
	tweetRepo := repository.NewTweetRepository(db)

	otpTTL := time.Duration(cfg.OTPTTLSeconds) * time.Second

	s := &Server{
		Config:       cfg,
		db:           db,
		userRepo:     userRepo,
		tweetRepo:    tweetRepo,
		registration: service.NewRegistrationService(userRepo, deps.Sessions, deps.Mail, otpTTL),
		auth:         service.NewAuthService(userRepo, deps.Sessions, deps.Mail, otpTTL),
		tweets:       service.NewTweetService(tweetRepo, deps.Store),
		users:        service.NewUserService(userRepo, deps.Store),
		media:        service.NewMediaService(deps.Store, cfg.MediaBaseURL, cfg.MediaMaxUploadSizeMB<<20),
	}

	s.App = fiber.New(fiber.Config{
		AppName:      "TweetApp",
		BodyLimit:    s.media.MaxBytes() + 1<<20,
		ErrorHandler: fiberErrorHandler,
	})
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func fiberErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) setupMiddleware() {
	s.App.Use(recover.New())
	s.App.Use(requestid.New())
	s.App.Use(middleware.ContextMiddleware())
	s.App.Use(middleware.TracingMiddleware())
	s.App.Use(helmet.New())
	s.App.Use(middleware.StructuredLogger())
	s.App.Use(cors.New(cors.Config{
		AllowOrigins: s.Config.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	if s.Config.Env != "test" {
		s.App.Use(limiter.New(limiter.Config{
			Max:        300,
			Expiration: 1 * time.Minute,
		}))
	}

	prom := middleware.InitMetrics("tweetapp")
	prom.RegisterAt(s.App, "/metrics")
	s.App.Use(middleware.MetricsMiddleware(prom))
}

func (s *Server) setupRoutes() {
	s.App.Get("/health", s.handleLiveness)
	s.App.Get("/health/live", s.handleLiveness)
	s.App.Get("/health/ready", s.handleReadiness)
	s.App.Get("/monitor", monitor.New())

	api := s.App.Group("/api/v1")

	rdb := cache.GetClient()
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(rdb, 5, time.Minute, "register"), s.handleRegister)
	auth.Post("/register/verify", middleware.RateLimit(rdb, 10, time.Minute, "verify"), s.handleVerifyEmail)
	auth.Post("/register/resend", middleware.RateLimit(rdb, 3, time.Minute, "resend"), s.handleResendOTP)
	auth.Post("/login", middleware.RateLimit(rdb, 10, time.Minute, "login"), s.handleLogin)
	auth.Post("/logout", middleware.AuthRequired, s.handleLogout)
	auth.Post("/password-reset", middleware.RateLimit(rdb, 3, time.Minute, "pwreset"), s.handleRequestPasswordReset)
	auth.Post("/password-reset/confirm", middleware.RateLimit(rdb, 10, time.Minute, "pwreset_confirm"), s.handleConfirmPasswordReset)

	tweets := api.Group("/tweets")
	tweets.Get("/", middleware.AuthRequired, s.handleListTweets)
	tweets.Get("/search", middleware.AuthRequired, middleware.RateLimit(rdb, 30, time.Minute, "search"), s.handleSearchTweets)
	tweets.Post("/", middleware.AuthRequired, s.handleCreateTweet)
	tweets.Get("/:id", middleware.AuthRequired, s.handleGetTweet)
	tweets.Put("/:id", middleware.AuthRequired, s.handleUpdateTweet)
	tweets.Delete("/:id", middleware.AuthRequired, s.handleDeleteTweet)
	tweets.Post("/:id/like", middleware.AuthRequired, s.handleToggleLike)

	users := api.Group("/users")
	users.Get("/:id", middleware.AuthRequired, s.handleGetUser)
	users.Get("/:id/tweets", middleware.AuthRequired, s.handleListUserTweets)

	profile := api.Group("/profile", middleware.AuthRequired)
	profile.Get("/", s.handleGetProfile)
	profile.Put("/", s.handleUpdateProfile)

	media := api.Group("/media")
	media.Post("/", middleware.AuthRequired, s.handleUploadMedia)

	s.App.Get("/media/*", s.handleServeMedia)
}

func (s *Server) handleLiveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// handleReadiness reports whether the backing stores are reachable. Redis
// being down degrades (caching and sessions) but the database being down
// makes the service not ready.
func (s *Server) handleReadiness(c *fiber.Ctx) error {
	checks := fiber.Map{"database": "ok", "redis": "ok"}
	status := fiber.StatusOK

	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		checks["database"] = "unreachable"
		status = fiber.StatusServiceUnavailable
	}
	if rdb := cache.GetClient(); rdb == nil {
		checks["redis"] = "not configured"
	} else if err := rdb.Ping(c.UserContext()).Err(); err != nil {
		checks["redis"] = "unreachable"
	}

	return c.Status(status).JSON(checks)
}

// Listen starts serving on the configured port.
func (s *Server) Listen() error {
	return s.App.Listen(":" + s.Config.Port)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown() error {
	return s.App.Shutdown()
}
