// Package main implements the entry point for the Kotoba API server, which
// generates Japanese study textbooks chapter by chapter with an LLM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// main is the entry point for the kotoba-api server.
// It loads configuration, sets up logging and the database, and then either
// runs a migration command or starts the HTTP server.
func main() {
	configPath := flag.String("config", "", "Path to a config file (defaults to ./config.yaml when present)")
	migrateCmd := flag.String("migrate", "", "Run a migration command (up, down, reset, status, version) and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrateCmd); err != nil {
		log.Printf("kotoba-api: %v", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, migrateCmd string) error {
	cfg, err := loadAppConfig(configPath)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() { _ = db.Close() }()
		return handleMigrations(ctx, db, migrateCmd, logger)
	}

	// newApplication owns db from here on, including on failure.
	app, err := newApplication(ctx, cfg, logger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
