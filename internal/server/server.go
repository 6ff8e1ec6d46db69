// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"time"

	_ "unionhall/docs" // swagger docs
	"unionhall/internal/cache"
	"unionhall/internal/config"
	"unionhall/internal/database"
	"unionhall/internal/engine"
	"unionhall/internal/featureflags"
	"unionhall/internal/middleware"
	"unionhall/internal/models"
	"unionhall/internal/notifications"
	"unionhall/internal/repository"
	"unionhall/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"
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

// Server holds all dependencies and provides handlers
type Server struct {
	config            *config.Config
	db                *gorm.DB
	redis             *redis.Client
	app               *fiber.App
	promMiddleware    *fiberprometheus.FiberPrometheus
	shutdownCtx       context.Context
	shutdownFn        context.CancelFunc
	userRepo          repository.UserRepository
	communityRepo     repository.CommunityRepository
	memberRepo        repository.MembershipRepository
	engineRepo        repository.EngineRepository
	postRepo          repository.PostRepository
	registry          *engine.Registry
	notifier          *notifications.Notifier
	roomHub           *notifications.RoomHub
	hubs              []wireableHub // all hubs for wiring/shutdown iteration
	featureFlags      *featureflags.Manager
	communityService  *service.CommunityService
	membershipService *service.MembershipService
	engineService     *service.EngineService
	feedService       *service.FeedService
	userService       *service.UserService
}

// NewServer creates a new server instance, establishing its own database and
// Redis connections from config.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, cache.GetClient())
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and
// optionally performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("unionhall-api"),
		userRepo:       repository.NewUserRepository(db),
		communityRepo:  repository.NewCommunityRepository(db),
		memberRepo:     repository.NewMembershipRepository(db),
		engineRepo:     repository.NewEngineRepository(db),
		postRepo:       repository.NewPostRepository(db),
		registry:       engine.NewRegistry(),
		featureFlags:   featureflags.NewManager(cfg.FeatureFlags),
	}

	if err := server.registry.Register(engine.NewSocialModule()); err != nil {
		return nil, err
	}

	server.membershipService = service.NewMembershipService(
		server.memberRepo, server.communityRepo, server.isSuperuserByUserID)
	server.communityService = service.NewCommunityService(
		server.communityRepo, server.engineRepo, server.registry,
		server.isSuperuserByUserID, cfg.StrictEngineKeys(), cfg.StrictPagination())
	server.engineService = service.NewEngineService(
		server.engineRepo, server.registry, server.membershipService.IsCommunityAdmin)
	server.feedService = service.NewFeedService(
		server.postRepo, server.membershipService, server.isSuperuserByUserID,
		cfg.StrictPagination())
	server.userService = service.NewUserService(server.userRepo)

	server.roomHub = notifications.NewRoomHub(redisClient)
	server.hubs = []wireableHub{server.roomHub}
	if redisClient != nil {
		server.notifier = notifications.NewNotifier(redisClient)
	}

	return server, nil
}

// Registry exposes the engine module registry so bootstrap code can register
// engine modules before the server starts.
func (s *Server) Registry() *engine.Registry {
	return s.registry
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Distributed tracing spans
	app.Use(middleware.TracingMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	// Backwards-compatible legacy route: map /health to readiness (keeps existing scripts working)
	app.Get("/health", s.ReadinessCheck)
	api.Get("/", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Unionhall Backend Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)

	// Public community routes (browse)
	publicCommunities := api.Group("/communities")
	publicCommunities.Get("/", s.ListCommunities)
	publicCommunities.Get("/slug/:slug", s.GetCommunityBySlug)
	publicCommunities.Get("/:id", s.GetCommunity)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired, s.RevocationCheck())

	// User routes
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Put("/me", s.UpdateMyProfile)
	users.Get("/me/features", s.GetMyFeatures)
	users.Get("/:id", s.GetUserProfile)

	// Engine catalog and personal installations
	engines := protected.Group("/engines")
	engines.Get("/", s.GetEngineCatalog)
	engines.Get("/mine", s.GetMyEngines)
	engines.Put("/mine/:key", s.SetMyEngine)

	// Community management (superuser checks live in the service layer)
	communities := protected.Group("/communities")
	communities.Post("/", s.CreateCommunity)
	communities.Put("/:id", s.UpdateCommunity)
	communities.Delete("/:id", s.DeleteCommunity)

	// Membership
	communities.Post("/:id/join", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "join_community"), s.JoinCommunity)
	communities.Get("/:id/members", s.ListMembers)
	communities.Get("/:id/membership/me", s.GetMyMembership)
	communities.Post("/:id/members/:userId/process", s.ProcessMember)

	// Community engine installations
	communities.Get("/:id/engines", s.GetInstalledEngines)
	communities.Post("/:id/engines/:key", s.InstallEngine)
	communities.Delete("/:id/engines/:key", s.DeactivateEngine)

	// Community feed
	communities.Get("/:id/posts", s.GetFeed)
	communities.Post("/:id/posts", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_post"), s.CreatePost)

	// Post detail, likes, and comments
	posts := protected.Group("/posts")
	posts.Post("/:id/like", s.ToggleLike)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.DeletePost)

	// WebSocket room endpoint. WebSocketTokenCheck never fails the upgrade;
	// the upgraded handler closes the socket with a protocol close code.
	app.Get("/ws/:communityID", middleware.WebSocketTokenCheck, s.RoomWebSocketHandler())
}

// HealthCheck is a legacy/simple alias for ReadinessCheck
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return s.ReadinessCheck(c)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		// Redis is considered required for full readiness in this app
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  overallStatus,
		"version": "1.0.0",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// RevocationCheck rejects tokens whose JTI has been blacklisted by Logout.
// Must run after AuthRequired so only parsed tokens reach it.
func (s *Server) RevocationCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if s.redis == nil {
			return c.Next()
		}

		claims, ok := s.tokenClaims(c)
		if !ok {
			return c.Next()
		}
		jti, _ := claims["jti"].(string)
		if jti == "" {
			return c.Next()
		}

		blacklisted, err := s.redis.Exists(c.Context(), "blacklist:"+jti).Result()
		if err == nil && blacklisted > 0 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}
		return c.Next()
	}
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "Unionhall API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	// Wire all hubs to the Redis subscriber if available
	if s.notifier != nil {
		for _, h := range s.hubs {
			h := h
			go func() {
				if err := h.StartWiring(s.shutdownCtx, s.notifier); err != nil {
					log.Printf("failed to start %s wiring: %v", h.Name(), err)
				}
			}()
		}
	}

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Cancel the server-scoped context to stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Shutdown the HTTP/WS server
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			log.Printf("error shutting down %s: %v", h.Name(), err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}

func (s *Server) isSuperuserByUserID(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsSuperuser, nil
}
