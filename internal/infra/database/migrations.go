package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationTableName = "schema_migrations"

// Migrate applies all pending schema migrations embedded in the binary.
func Migrate(db *sql.DB, logger *logrus.Entry) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(logger.WithField("component", "migrations"))
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	logger.WithField("schema_version", version).Info("Database migrations applied")
	return nil
}
