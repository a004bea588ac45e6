// Package bootstrap wires the process-wide runtime: logging, tracing, database and redis.
package bootstrap

import (
	"context"
	"fmt"

	"quill/internal/cache"
	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/observability"
	"quill/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedCategories creates the default categories that are missing.
	SeedCategories bool
}

// Runtime holds the initialized shared dependencies.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes pending spans.
	ShutdownTracing func(context.Context) error
}

// InitRuntime configures logging and tracing, connects to DB and Redis and
// optionally seeds default categories.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	middleware.ConfigureLogger(cfg.Env)

	shutdownTracing, err := observability.InitTracing(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)

	if opts.SeedCategories {
		if err := seed.EnsureCategories(context.Background(), db); err != nil {
			_ = shutdownTracing(context.Background())
			return nil, fmt.Errorf("failed to seed default categories: %w", err)
		}
	}

	return &Runtime{
		DB:              db,
		Redis:           cache.GetClient(),
		ShutdownTracing: shutdownTracing,
	}, nil
}
