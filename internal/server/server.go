// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	_ "splitboard/docs" // swagger docs
	"splitboard/internal/config"
	"splitboard/internal/judge"
	"splitboard/internal/middleware"
	"splitboard/internal/models"
	"splitboard/internal/notifications"
	"splitboard/internal/ratelimit"
	"splitboard/internal/repository"
	"splitboard/internal/service"
	"splitboard/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// wireableHub is implemented by every WebSocket hub that can be wired to
// Redis pub/sub and gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context, n *notifications.Notifier) error
	Shutdown(ctx context.Context) error
}

// limiters groups the admission policies applied to mutating routes.
type limiters struct {
	comments ratelimit.Limiter
	uploads  ratelimit.Limiter
	auth     ratelimit.Limiter
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	ingestor *storage.Ingestor
	notifier *notifications.Notifier
	feedHub  *notifications.FeedHub
	hubs     []wireableHub
	limits   limiters

	splitService       *service.SplitService
	commentService     *service.CommentService
	userService        *service.UserService
	leaderboardService *service.LeaderboardService
	authService        *service.AuthService
}

// Option customizes a Server built by NewServerWithDeps.
type Option func(*options)

type options struct {
	judgeClient judge.Client
	limiter     func(ratelimit.Policy) ratelimit.Limiter
}

// WithJudgeClient replaces the judge client derived from configuration.
func WithJudgeClient(c judge.Client) Option {
	return func(o *options) { o.judgeClient = c }
}

// WithLimiterFactory replaces how per-route admission limiters are built.
func WithLimiterFactory(f func(ratelimit.Policy) ratelimit.Limiter) Option {
	return func(o *options) { o.limiter = f }
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, opts ...Option) (*Server, error) {
	o := options{}
	if cfg.AnthropicAPIKey != "" {
		o.judgeClient = judge.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.JudgeModel)
	}
	o.limiter = func(p ratelimit.Policy) ratelimit.Limiter {
		if !cfg.RateLimitEnabled {
			return ratelimit.Unlimited{}
		}
		return ratelimit.New(redisClient, p)
	}
	for _, opt := range opts {
		opt(&o)
	}

	middleware.InitMiddleware(cfg)

	userRepo := repository.NewUserRepository(db)
	splitRepo := repository.NewSplitRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("splitboard-api"),
		ingestor:       storage.NewIngestor(cfg),
		notifier:       notifications.NewNotifier(redisClient),
		feedHub:        notifications.NewFeedHub(),
		limits: limiters{
			comments: o.limiter(ratelimit.Comments),
			uploads:  o.limiter(ratelimit.Uploads),
			auth:     o.limiter(ratelimit.Auth),
		},
	}
	s.hubs = []wireableHub{s.feedHub}

	scorer := judge.NewScorer(o.judgeClient, cfg.JudgeTimeout(), middleware.Logger)
	s.splitService = service.NewSplitService(db, splitRepo, userRepo, s.ingestor, scorer, s.notifier, redisClient)
	s.commentService = service.NewCommentService(commentRepo, splitRepo, s.notifier)
	s.userService = service.NewUserService(userRepo, splitRepo)
	s.leaderboardService = service.NewLeaderboardService(splitRepo, redisClient, cfg.LeaderboardCacheTTL())
	s.authService = service.NewAuthService(userRepo, cfg.JWTSecret)

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Uploaded images are fetched cross-origin by the web client.
	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so rejected requests still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	if s.config.RateLimitEnabled {
		app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Method() == fiber.MethodOptions
			},
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return models.RespondWithError(c, fiber.StatusTooManyRequests,
					models.NewRateLimitedError("Too many requests, please try again later."))
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/health", s.ReadinessCheck)
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{Title: "Splitboard Metrics"}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	authLimit := middleware.RateLimit(s.limits.auth, middleware.ByIP, "Too many attempts. Please try again later.")
	auth.Post("/register", authLimit, s.Register)
	auth.Post("/login", authLimit, s.Login)
	auth.Get("/me", middleware.AuthRequired, s.Me)

	splits := api.Group("/splits")
	splits.Get("/", s.ListSplits)
	splits.Post("/upload", middleware.AuthRequired,
		middleware.RateLimit(s.limits.uploads, middleware.ByUser, "Upload limit reached. Please try again later."),
		s.UploadSplit)
	splits.Get("/:id", middleware.OptionalAuth, s.GetSplit)

	api.Get("/leaderboard", middleware.OptionalAuth, s.GetLeaderboard)
	api.Get("/users/:username", s.GetUserProfile)

	comments := api.Group("/comments", middleware.AuthRequired)
	comments.Post("/",
		middleware.RateLimit(s.limits.comments, middleware.ByUser, "Too many comments. Please try again later."),
		s.CreateComment)
	comments.Delete("/:id", s.DeleteComment)

	api.Get("/uploads/:filename", s.ServeUpload)
	app.Get("/uploads/:filename", s.ServeUpload)

	api.Get("/ws/feed", middleware.OptionalAuth, s.FeedUpgrade, s.FeedWebSocket())
}

// App builds a fiber app with middleware and routes installed.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "Splitboard API",
		BodyLimit: int(s.ingestor.MaxUploadSizeBytes()) + 1<<20,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err.Error())
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.App()

	if s.redis != nil {
		for _, h := range s.hubs {
			if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
				log.Printf("failed to start %s wiring: %v", h.Name(), err)
			}
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
