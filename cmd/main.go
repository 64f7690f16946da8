package main

import (
	"context"
	"errors"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/fuminsho/internal/shared"
)

const (
	defaultConfigPath = "config.toml"
	defaultEnvPath    = ".env"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(defaultConfigPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(defaultConfigPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", defaultConfigPath, "error", err)
		}
	}

	if err := config.ApplyEnv(defaultEnvPath); err != nil {
		logger.Warn("failed to apply environment", "error", err)
	}

	if configured, err := shared.NewConfiguredLogger(config.Logging, nil); err == nil {
		logger = configured
	} else {
		logger.Warn("invalid logging config, using defaults", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: defaultConfigPath,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "fuminsho",
		Usage:    "Sync a YouTube playlist into a local catalog and infer its genres and tracks",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrMissingCredentials) {
			logger.Error("missing credentials: set them in config.toml or .env", "error", err)
			os.Exit(1)
		}
		logger.Fatalf("application error: %v", err)
	}
}
