package postgres

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// source

	kberrors "github.com/modelseed/kbutil/pkg/errors"
)

// RunMigrations applies all pending migrations from sourceURL (for example
// "file://migrations") to the database at dbURL. A database that is already
// current is not an error.
func RunMigrations(dbURL, sourceURL string) error {
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "creating migrator")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "applying migrations")
	}
	return nil
}

// RollbackMigrations reverts the given number of migration steps.
func RollbackMigrations(dbURL, sourceURL string, steps int) error {
	if steps <= 0 {
		return kberrors.Newf(kberrors.ErrCodeMigrationError, "steps must be positive, got %d", steps)
	}
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "creating migrator")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "rolling back migrations")
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the last
// migration left the database dirty.
func MigrationVersion(dbURL, sourceURL string) (uint, bool, error) {
	m, err := migrate.New(sourceURL, dbURL)
	if err != nil {
		return 0, false, kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "creating migrator")
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, kberrors.Wrap(err, kberrors.ErrCodeMigrationError, "reading schema version")
	}
	return version, dirty, nil
}
