package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/metadata/*.sql migrations/secrets/*.sql
var migrationsFS embed.FS

// MigrationSet selects which embedded schema to apply. The metadata store and
// the SQLite-backed secret store live in separate database files.
type MigrationSet string

const (
	MetadataMigrations MigrationSet = "metadata"
	SecretMigrations   MigrationSet = "secrets"
)

// RunMigrations applies all pending migrations of the given set.
// It is safe to call on every startup; already-applied migrations are skipped.
func RunMigrations(db *sql.DB, set MigrationSet) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations/"+string(set))
	if err != nil {
		return fmt.Errorf("create %s migration source: %w", set, err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run %s migrations: %w", set, err)
	}

	return nil
}
