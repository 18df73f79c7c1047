package migration

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Dir is the embedded directory holding the goose SQL migrations.
const Dir = "migrations"

// gooseLogger routes goose progress lines into the structured logger.
type gooseLogger struct {
	log *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Info("db_migration_step", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Error("db_migration_failed", "detail", strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// Run applies every pending embedded migration. A nil database is a no-op.
func Run(ctx context.Context, db *sql.DB, log *slog.Logger, dbHost string) error {
	if db == nil {
		return nil
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "database", "db_host", dbHost)
	start := time.Now()

	log.Info("db_migration_start", "status", "in_progress")

	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		log.Error("db_migration_failed", "status", "error", "error_message", err.Error())
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, Dir); err != nil {
		log.Error("db_migration_failed",
			"status", "error",
			"error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return fmt.Errorf("apply migrations: %w", err)
	}

	log.Info("db_migration_success",
		"status", "success",
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
