package main

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/platform/postgres/migrations"
)

// handleMigrations runs a single goose command against db. It is called
// from main when the -migrate flag is set; the server is not started.
func handleMigrations(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	logger.Info("Executing migrations", "command", command)
	return migrations.Run(ctx, db, command, logger)
}
