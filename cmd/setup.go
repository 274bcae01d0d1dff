package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/relx/internal/shared"
	"github.com/urfave/cli/v3"
)

// ConfigInit writes the embedded example config to --path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Wrote %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.spotify.client_id and client_secret (or CLIENT_ID / CLIENT_SECRET)\n")
	r.writePlain("2. Run 'relx serve --open' to log in\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			if config, err = shared.LoadConfig(configPath); err != nil {
				r.logger.Warn("failed to load created config, using defaults", "error", err)
				config = shared.DefaultConfig()
			}
		}
	}

	r.logger.Info("initializing database", "path", config.Database.Path)

	db, err := r.openDatabase(config)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}
