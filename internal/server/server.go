// Package server contains the HTTP handlers and route wiring for the
// application.
package server

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"photogram/internal/config"
	"photogram/internal/database"
	"photogram/internal/logging"
	"photogram/internal/middleware"
	"photogram/internal/models"
	"photogram/internal/repository"
	"photogram/internal/service"
	"photogram/internal/session"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config   *config.Config
	db       *gorm.DB
	redis    *redis.Client
	sessions *session.Store
	channels *logging.Channels
	audit    *logging.AuditLogger

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	followRepo  repository.FollowRepository

	authService    *service.AuthService
	postService    *service.PostService
	commentService *service.CommentService
	followService  *service.FollowService
	feedService    *service.FeedService

	prom *fiberprometheus.FiberPrometheus
}

// The request-metrics middleware registers its collectors on the global
// Prometheus registry, so it is created once per process and shared by
// every Server instance.
var (
	promOnce sync.Once
	promInst *fiberprometheus.FiberPrometheus
)

func promMiddleware() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promInst = fiberprometheus.NewWithDefaultRegistry("photogram")
	})
	return promInst
}

// NewServer creates a server instance, connecting the database and Redis.
func NewServer(cfg *config.Config, channels *logging.Channels) (*Server, error) {
	db, err := database.Connect(cfg, channels)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient, err := session.Connect(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("session store connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, channels, db, redisClient), nil
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, channels *logging.Channels, db *gorm.DB, redisClient *redis.Client) *Server {
	if channels == nil {
		channels = logging.Default
	}
	audit := logging.NewAuditLogger(channels)
	sessions := session.NewStore(redisClient, time.Duration(cfg.SessionTTLHours)*time.Hour)

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	followRepo := repository.NewFollowRepository(db)

	return &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		sessions:       sessions,
		channels:       channels,
		audit:          audit,
		userRepo:       userRepo,
		postRepo:       postRepo,
		commentRepo:    commentRepo,
		followRepo:     followRepo,
		authService:    service.NewAuthService(userRepo, audit),
		postService:    service.NewPostService(postRepo, audit),
		commentService: service.NewCommentService(commentRepo, postRepo, audit),
		followService:  service.NewFollowService(followRepo, userRepo, audit),
		feedService:    service.NewFeedService(postRepo, commentRepo, followRepo, userRepo),
		prom:           promMiddleware(),
	}
}

// App builds the Fiber application with the error boundary, middleware
// stack and route surface configured.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Photogram",
		ErrorHandler: s.errorHandler,
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler is the outermost error boundary. Application errors map to
// their status codes; anything unexpected is logged with full context and
// converted to a generic response that leaks no internal detail.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		if status := appErr.HTTPStatus(); status != fiber.StatusInternalServerError {
			return models.RespondWithError(c, status, appErr)
		}
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	s.audit.UnhandledError(c.UserContext(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal Server Error",
	})
}

// SetupMiddleware configures the global middleware stack for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery feeds the error boundary.
	app.Use(recover.New())

	// Correlation ID plus request start/end records.
	app.Use(middleware.RequestContext(s.channels))

	// Security headers
	app.Use(helmet.New())

	// Prometheus request metrics
	app.Use(s.prom.Middleware)

	// Resolve the session user for every route.
	app.Use(middleware.ResolveUser(s.sessions, s.userRepo, s.audit))

	// Global rate limiting (100 requests per minute per IP), disabled in tests.
	if s.config.Env != "test" {
		app.Use(limiter.New(limiter.Config{
			Max:        100,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				var userID uint
				if user, ok := middleware.CurrentUser(c); ok {
					userID = user.ID
				}
				s.audit.SuspiciousActivity(c.UserContext(), "rate_limit_exceeded",
					"Request rate limit exceeded for "+c.IP(), userID)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
					"error": "Too many requests, please try again later.",
				})
			},
		}))
	}
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	s.prom.RegisterAt(app, "/metrics")

	// Public routes
	app.Get("/", s.Index)
	app.Get("/login", s.LoginPage)
	app.Post("/login", s.Login)
	app.Get("/register", s.RegisterPage)
	app.Post("/register", s.Register)
	app.Get("/logout", s.Logout)

	// Authenticated routes
	authed := app.Group("", middleware.LoginRequired(s.sessions, s.config.IsProduction()))
	authed.Get("/home", s.Home)
	authed.Get("/follow/:userId", s.Follow)
	authed.Get("/unfollow/:userId", s.Unfollow)
	authed.Get("/toggle_like/:postId", s.ToggleLike)
	authed.Post("/add_comment/:postId", s.AddComment)
	authed.Post("/create_post", s.CreatePost)

	// Owner-gated routes. The gates read the :postId/:commentId route
	// parameters, so they are attached per route rather than via Group("")
	// prefix middleware, which never sees route parameters.
	postOwner := middleware.PostOwnerRequired(s.postRepo, s.audit)
	authed.Get("/edit_post/:postId", postOwner, s.EditPostPage)
	authed.Post("/edit_post/:postId", postOwner, s.EditPost)
	authed.Post("/delete_post/:postId", postOwner, s.DeletePost)

	commentOwner := middleware.CommentOwnerRequired(s.commentRepo, s.audit)
	authed.Get("/edit_comment/:commentId", commentOwner, s.EditCommentPage)
	authed.Post("/edit_comment/:commentId", commentOwner, s.EditComment)
	authed.Post("/delete_comment/:commentId", commentOwner, s.DeleteComment)
}

// LivenessCheck reports that the process is up.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// ReadinessCheck reports whether the database and session store are reachable.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "database unavailable"})
	}
	if s.redis == nil || s.redis.Ping(c.UserContext()).Err() != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "session store unavailable"})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Shutdown releases server-held resources.
func (s *Server) Shutdown() error {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			return err
		}
	}
	sqlDB, err := s.db.DB()
	if err == nil {
		return sqlDB.Close()
	}
	return nil
}
