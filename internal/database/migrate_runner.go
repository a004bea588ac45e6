package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"quill/internal/middleware"

	"gorm.io/gorm"
)

// ErrSQLMigrationsNeedPostgres is returned when the embedded SQL migrations are
// run against a non-postgres database. SQLite schemas come from AutoMigrate.
var ErrSQLMigrationsNeedPostgres = errors.New("SQL migrations target postgres; use DB_SCHEMA_MODE=auto (or `migrate auto`) for sqlite")

// MigrationLog records one applied SQL migration of the Quill schema.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"not null;index"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

// migrationLedger reads and writes migration_logs. Every script runs in the
// same transaction as its log row, so a failed script leaves no record.
type migrationLedger struct {
	db *gorm.DB
}

func newMigrationLedger(db *gorm.DB) *migrationLedger {
	return &migrationLedger{db: db}
}

func (l *migrationLedger) ensure(ctx context.Context) error {
	m := l.db.WithContext(ctx).Migrator()
	if m.HasTable(&MigrationLog{}) {
		return nil
	}
	if err := m.CreateTable(&MigrationLog{}); err != nil {
		return fmt.Errorf("create migration_logs: %w", err)
	}
	return nil
}

// applied returns applied versions in ascending order; none when the ledger
// table does not exist yet.
func (l *migrationLedger) applied(ctx context.Context) ([]int, error) {
	db := l.db.WithContext(ctx)
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return []int{}, nil
	}
	var versions []int
	if err := db.Model(&MigrationLog{}).Order("version ASC").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return versions, nil
}

func (l *migrationLedger) apply(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.UpScript).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", m.String(), err)
		}
		entry := MigrationLog{Version: m.Version, Name: m.Name, AppliedAt: time.Now()}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", m.String(), err)
		}
		return nil
	})
}

func (l *migrationLedger) revert(ctx context.Context, m Migration) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back migration %s: %w", m.String(), err)
		}
		if err := tx.Where("version = ?", m.Version).Delete(&MigrationLog{}).Error; err != nil {
			return fmt.Errorf("remove migration record %s: %w", m.String(), err)
		}
		return nil
	})
}

func requirePostgres(db *gorm.DB) error {
	if name := db.Dialector.Name(); name != "postgres" {
		return fmt.Errorf("%w (driver %q)", ErrSQLMigrationsNeedPostgres, name)
	}
	return nil
}

// pendingMigrations returns the registered migrations missing from applied.
func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}
	var pending []Migration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// RunMigrations applies every pending embedded migration to a postgres database.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	if err := requirePostgres(db); err != nil {
		return err
	}
	return runPending(ctx, newMigrationLedger(db), migrations)
}

func runPending(ctx context.Context, ledger *migrationLedger, registered []Migration) error {
	if err := ledger.ensure(ctx); err != nil {
		return err
	}
	applied, err := ledger.applied(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, registered); err != nil {
		return err
	}

	for _, m := range pendingMigrations(applied, registered) {
		if err := ledger.apply(ctx, m); err != nil {
			return err
		}
		middleware.Logger.Info("quill schema migration applied", slog.String("migration", m.String()))
	}
	return nil
}

// validateAppliedVersions fails when the database records versions this
// build does not know, e.g. after deploying an older binary.
func validateAppliedVersions(applied []int, registered []Migration) error {
	known := make(map[int]bool, len(registered))
	for _, m := range registered {
		known[m.Version] = true
	}

	var unknown []string
	sorted := append([]int(nil), applied...)
	sort.Ints(sorted)
	for _, version := range sorted {
		if !known[version] {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) > 0 {
		return fmt.Errorf("migration_logs contains versions unknown to this build: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// RollbackMigration reverts one applied migration on a postgres database.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	if err := requirePostgres(db); err != nil {
		return err
	}
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}
	return rollback(ctx, newMigrationLedger(db), *m)
}

func rollback(ctx context.Context, ledger *migrationLedger, m Migration) error {
	applied, err := ledger.applied(ctx)
	if err != nil {
		return err
	}
	if len(pendingMigrations(applied, []Migration{m})) > 0 {
		return fmt.Errorf("migration %s has not been applied", m.String())
	}
	if err := ledger.revert(ctx, m); err != nil {
		return err
	}
	middleware.Logger.Info("quill schema migration rolled back", slog.String("migration", m.String()))
	return nil
}
