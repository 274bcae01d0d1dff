package main

import (
	"context"
	"os"

	"github.com/desertthunder/relx/internal/shared"
)

func main() {
	logger := shared.NewLogger(nil)

	config, err := shared.LoadConfigOrDefault("config.toml")
	if err != nil {
		logger.Warn("failed to load config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	if err := runner.app().Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
