package main

import (
	"fmt"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/config"
	"github.com/kotoba-learn/kotoba-api/internal/platform/logger"
)

// setupAppLogger configures the process-wide JSON logger from the server
// settings and returns it.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return l, nil
}
