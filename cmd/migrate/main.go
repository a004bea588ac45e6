// Command migrate runs schema operations for the Quill database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"quill/internal/config"
	"quill/internal/database"
	"quill/internal/middleware"
	"quill/internal/seed"

	"gorm.io/gorm"
)

type command func(ctx context.Context, cfg *config.Config, db *gorm.DB, args []string) error

var commands = map[string]command{
	"up":         migrateUp,
	"auto":       migrateAuto,
	"status":     schemaStatus,
	"down":       migrateDown,
	"categories": ensureCategories,
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|auto|status|down|categories> [version]")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(flag.Arg(0)))]
	if !ok {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	middleware.ConfigureLogger(cfg.Env)

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	return cmd(context.Background(), cfg, db, flag.Args()[1:])
}

func migrateUp(ctx context.Context, _ *config.Config, db *gorm.DB, _ []string) error {
	if err := database.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("sql migrations failed: %w", err)
	}
	middleware.Logger.Info("sql migrations applied")
	return nil
}

func migrateAuto(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
	cfg.DBSchemaMode = database.SchemaModeAuto
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		return fmt.Errorf("auto schema apply failed: %w", err)
	}
	middleware.Logger.Info("automigrations applied")
	return nil
}

func schemaStatus(ctx context.Context, cfg *config.Config, db *gorm.DB, _ []string) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	middleware.Logger.Info("schema status",
		"mode", status.Mode,
		"env", status.Environment,
		"run_sql", status.WillRunSQL,
		"run_auto", status.WillRunAutoMigrate,
		"applied", len(status.AppliedVersions),
		"pending", len(status.PendingMigrations),
	)
	for _, m := range status.PendingMigrations {
		middleware.Logger.Info("pending migration", "migration", fmt.Sprintf("%06d_%s", m.Version, m.Name))
	}
	return nil
}

func migrateDown(ctx context.Context, _ *config.Config, db *gorm.DB, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: go run ./cmd/migrate down <version>")
	}
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	if err := database.RollbackMigration(ctx, db, version); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}
	middleware.Logger.Info("rolled back migration", "version", version)
	return nil
}

func ensureCategories(ctx context.Context, _ *config.Config, db *gorm.DB, _ []string) error {
	if err := seed.EnsureCategories(ctx, db); err != nil {
		return err
	}
	middleware.Logger.Info("default categories ensured", "count", len(seed.DefaultCategories))
	return nil
}
