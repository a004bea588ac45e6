// Package server contains the HTTP handlers and routing for the Quill API.
package server

import (
	"context"
	"fmt"
	"time"

	_ "quill/docs" // swagger docs
	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/featureflags"
	"quill/internal/middleware"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	flags           *featureflags.Set
	userRepo        repository.UserRepository
	postRepo        repository.PostRepository
	commentRepo     repository.CommentRepository
	categoryRepo    repository.CategoryRepository
	postService     *service.PostService
	commentService  *service.CommentService
	userService     *service.UserService
	categoryService *service.CategoryService
	uploadService   *service.UploadService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	provider, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage provider: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.GetClient(), provider)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis and optionally
// performs explicit seeding.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, provider storage.Provider) (*Server, error) {
	if provider == nil {
		return nil, fmt.Errorf("storage provider is required")
	}
	flags, err := featureflags.Parse(cfg.FeatureFlags)
	if err != nil {
		return nil, err
	}
	models.ExposeErrorStack = cfg.IsDevelopment()

	s := &Server{
		config:       cfg,
		db:           db,
		redis:        redisClient,
		flags:        flags,
		userRepo:     repository.NewUserRepository(db),
		postRepo:     repository.NewPostRepository(db),
		commentRepo:  repository.NewCommentRepository(db),
		categoryRepo: repository.NewCategoryRepository(db),
	}

	if flags.Enabled(featureflags.Metrics, true) {
		s.promMiddleware = middleware.InitMetrics("quill-api")
	}

	s.postService = service.NewPostService(s.postRepo, s.categoryRepo)
	s.commentService = service.NewCommentService(s.commentRepo, s.postRepo)
	s.userService = service.NewUserService(s.userRepo, s.postRepo, s.issueToken)
	s.categoryService = service.NewCategoryService(s.categoryRepo)
	s.uploadService = service.NewUploadService(provider, cfg)

	return s, nil
}

func (s *Server) issueToken(userID uint) (string, error) {
	return middleware.GenerateToken(s.config.JWTSecret, userID, time.Now())
}

// NewApp builds the fiber application with middleware and routes.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Quill API",
		ErrorHandler: s.ErrorHandler,
		BodyLimit:    int(s.uploadService.MaxBytes()) + 1024*1024,
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())

	// Propagates request and user IDs into the logging context.
	app.Use(middleware.ContextMiddleware())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so short-circuited responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return models.RespondWithError(c, fiber.StatusTooManyRequests,
				fiber.NewError(fiber.StatusTooManyRequests, "Too many requests, please try again later"))
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/", s.Root)
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	if s.config.StorageDriver == "" || s.config.StorageDriver == "local" {
		app.Static("/uploads", s.config.UploadDir)
	}

	api := app.Group("/api")
	if s.flags.Enabled(featureflags.Swagger, !s.config.IsProduction()) {
		api.Get("/swagger/*", swagger.HandlerDefault)
	}

	auth := s.AuthRequired()

	users := api.Group("/users")
	users.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), s.RegisterUser)
	users.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.LoginUser)
	users.Get("/profile", auth, s.GetOwnProfile)
	users.Put("/profile", auth, s.UpdateOwnProfile)
	users.Get("/profile/bookmarks", auth, s.GetBookmarkedPosts)
	users.Put("/profile/bookmarks/:postId", auth, s.ToggleBookmark)
	users.Get("/:userId", s.GetUserProfile)

	// Specific routes are registered before the generic /:id routes.
	posts := api.Group("/posts")
	posts.Get("/", s.GetPosts)
	posts.Get("/popular", s.GetPopularPosts)
	posts.Get("/slug/:slug", s.GetPostBySlug)
	posts.Get("/my-posts", auth, s.GetMyPosts)
	posts.Post("/", auth, s.CreatePost)
	posts.Get("/:id/related", s.GetRelatedPosts)
	posts.Put("/:id/like", auth, s.ToggleLike)
	posts.Get("/:id", auth, s.GetPostByID)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	comments := api.Group("/comments")
	comments.Get("/:postId", s.GetComments)
	comments.Post("/:postId", auth, middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)

	categories := api.Group("/categories")
	categories.Get("/", s.GetCategories)
	categories.Post("/", auth, s.CreateCategory)

	api.Post("/upload", auth, middleware.RateLimit(s.redis, 20, 10*time.Minute, "upload"), s.UploadImage)
}

// AuthRequired returns the bearer-token middleware for protected routes.
func (s *Server) AuthRequired() fiber.Handler {
	var exists middleware.UserExistsFunc
	if s.userRepo != nil {
		exists = s.userRepo.Exists
	}
	return middleware.JWTAuth(s.config.JWTSecret, exists)
}

// ErrorHandler routes every error returned by a handler through the uniform error body.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusOf(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return models.RespondWithError(c, status, err)
}

// Root handles GET /
func (s *Server) Root(c *fiber.Ctx) error {
	return c.SendString("Quill API is running...")
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports database and redis health
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
	}

	// Redis is optional; caching falls back to the database without it.
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", "error", rerr)
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
