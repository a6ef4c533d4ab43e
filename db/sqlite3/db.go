// Package sqlite3 is the frontend's durable client storage: a small local
// database mirroring browser sessions, holding nothing owned by the remote
// blogging API.
package sqlite3

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewDB opens the local session database. A single connection sidesteps
// SQLITE_BUSY when concurrent requests mutate sessions.
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sql db: %w", err)
	}

	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping sql db: %w", err)
	}

	return db, nil
}

func newMigrator(db *sql.DB) (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create iofs driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, nil
}

// MigrateUp brings the local schema to the newest version. Running against
// an already current database is a no-op.
func MigrateUp(ctx context.Context, db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migration: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get current active migration version: %w", err)
	}

	slog.InfoContext(ctx, "migration applied successfully", "version", version, "dirty", dirty)

	return nil
}

// MigrateDown reverts every migration, leaving an empty database. Tests run
// it after MigrateUp to keep the down scripts honest.
func MigrateDown(ctx context.Context, db *sql.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	err = m.Down()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}

	slog.InfoContext(ctx, "migrations reverted")

	return nil
}
