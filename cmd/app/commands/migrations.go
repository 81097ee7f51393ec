package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// migrationSets maps DB_DRIVER to the subdirectory of its migration files.
var migrationSets = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// RunMigrations applies every pending migration under dir for driver and
// logs the resulting schema version. An up-to-date schema is not an error.
func RunMigrations(logger *slog.Logger, driver, connectionString, dir string) error {
	set, ok := migrationSets[driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", driver)
	}
	sourceURL := "file://" + filepath.ToSlash(filepath.Join(dir, set))

	logger.Info("running database migrations", slog.String("driver", driver), slog.String("source", sourceURL))

	m, err := migrate.New(sourceURL, migrateDatabaseURL(driver, connectionString))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("database schema already up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.Info("migrations completed", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))
	return nil
}

// migrateDatabaseURL adds the mysql:// scheme golang-migrate needs to a plain
// go-sql-driver DSN. PostgreSQL URLs are used unchanged.
func migrateDatabaseURL(driver, connectionString string) string {
	if driver == "mysql" && !strings.HasPrefix(connectionString, "mysql://") {
		return "mysql://" + connectionString
	}
	return connectionString
}
