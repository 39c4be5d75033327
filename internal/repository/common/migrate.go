package common

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationVersion reports the schema version of a database
type MigrationVersion struct {
	Version uint
	Dirty   bool
}

// ApplyMigrations moves the schema under databaseURL up, or down when
// steps is negative by that many migrations. steps == 0 migrates up fully.
func ApplyMigrations(migrationsDir, databaseURL string, steps int) (*MigrationVersion, error) {
	m, err := newMigrate(migrationsDir, databaseURL)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	if steps == 0 {
		err = m.Up()
	} else {
		err = m.Steps(steps)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return currentVersion(m)
}

// CurrentMigration returns the applied schema version
func CurrentMigration(migrationsDir, databaseURL string) (*MigrationVersion, error) {
	m, err := newMigrate(migrationsDir, databaseURL)
	if err != nil {
		return nil, err
	}
	defer m.Close()
	return currentVersion(m)
}

func newMigrate(migrationsDir, databaseURL string) (*migrate.Migrate, error) {
	absDir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path to migrations: %w", err)
	}
	m, err := migrate.New("file://"+absDir, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func currentVersion(m *migrate.Migrate) (*MigrationVersion, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return &MigrationVersion{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migration version: %w", err)
	}
	return &MigrationVersion{Version: version, Dirty: dirty}, nil
}
