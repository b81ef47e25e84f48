package main

import (
	"fmt"
	"log/slog"

	"github.com/kotoba-learn/kotoba-api/internal/config"
)

// loadAppConfig loads the application configuration from environment
// variables and the config file at path, or ./config.yaml when path is empty.
func loadAppConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"llm_provider", cfg.LLM.Provider,
		"fanout_backend", cfg.Fanout.Backend)

	return cfg, nil
}
