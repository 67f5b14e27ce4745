package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/cinefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if p := os.Getenv("CINEFEED_CONFIG"); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	} else {
		config.ApplyEnv()
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "cinefeed",
		Usage:    "Browse the now-playing movie catalog and watch trailers",
		Version:  "0.1.0",
		Commands: runner.register(),
		Action:   runner.TUI,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrAuthCancelled) {
			logger.Warn("sign-in cancelled")
			runner.Close()
			os.Exit(1)
		}
		runner.Close()
		logger.Fatalf("application error: %v", err)
	}
}
