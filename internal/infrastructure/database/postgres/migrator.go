package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
)

// SourceURL normalizes a migrations directory into a golang-migrate source URL.
func SourceURL(migrationsPath string) string {
	if strings.Contains(migrationsPath, "://") {
		return migrationsPath
	}
	return "file://" + migrationsPath
}

// withMigrate opens a migrate instance over the tracker schema, runs fn and
// closes both the source and the database handle.
func withMigrate(dbURL, migrationsPath string, fn func(*migrate.Migrate) error) error {
	if strings.TrimSpace(dbURL) == "" {
		return fmt.Errorf("database URL is required")
	}
	m, err := migrate.New(SourceURL(migrationsPath), dbURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()
	return fn(m)
}

// RunMigrations brings the requests, alerts and appeals tables up to the
// latest schema version.  An already current schema is not an error.
//
// migrationsPath may be a plain directory or a "file://" URL.
func RunMigrations(dbURL string, migrationsPath string) error {
	return withMigrate(dbURL, migrationsPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	})
}

// RollbackMigration reverts the given number of schema versions.
func RollbackMigration(dbURL string, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	return withMigrate(dbURL, migrationsPath, func(m *migrate.Migrate) error {
		err := m.Steps(-steps)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, migrate.ErrNoChange):
			return fmt.Errorf("no migrations to roll back")
		default:
			return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
		}
	})
}

// MigrationStatus reports the applied schema version and whether a previous
// run left it dirty.  A database with no migrations reports version 0.
func MigrationStatus(dbURL string, migrationsPath string) (version uint, dirty bool, err error) {
	err = withMigrate(dbURL, migrationsPath, func(m *migrate.Migrate) error {
		var verr error
		version, dirty, verr = m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			version, dirty = 0, false
			return nil
		}
		if verr != nil {
			return fmt.Errorf("failed to get migration version: %w", verr)
		}
		return nil
	})
	return version, dirty, err
}

// ResetDatabase drops every request, alert and appeal by migrating down to
// zero and back up.  Development and integration tests only.
func ResetDatabase(dbURL string, migrationsPath string) error {
	return withMigrate(dbURL, migrationsPath, func(m *migrate.Migrate) error {
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to roll back all migrations: %w", err)
		}
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("failed to re-apply migrations: %w", err)
		}
		return nil
	})
}

// ForceMigrationVersion records version as applied without running anything.
// It clears a dirty flag after the schema has been repaired by hand; -1 means
// no version.
func ForceMigrationVersion(dbURL string, migrationsPath string, version int) error {
	return withMigrate(dbURL, migrationsPath, func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("failed to force version %d: %w", version, err)
		}
		return nil
	})
}

//Personal.AI order the ending
