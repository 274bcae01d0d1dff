// submodule cmd contains command definitions
package main

import (
	"context"

	"github.com/desertthunder/relx/internal/shared"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "relx",
		Usage:   "Build Spotify playlists from an artist's related artists",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(r.logger, shared.ParseLogLevel("debug"))
			}
			return ctx, nil
		},
		Commands: r.register(),
	}
}

// serveCommand runs the HTTP surface
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the login, callback and related artists endpoints",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open /login in the default browser once listening",
			},
		},
		Action: r.Serve,
	}
}

// discoverCommand runs the pipeline once from the terminal
func discoverCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "discover",
		Aliases: []string{"run"},
		Usage:   "Create a playlist from an artist's related artists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "artist",
				Aliases:  []string{"a"},
				Usage:    "Seed artist name",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "token",
				Aliases:  []string{"t"},
				Usage:    "Spotify access token",
				Sources:  cli.EnvVars("SPOTIFY_ACCESS_TOKEN"),
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the report as JSON",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Also write the report to this file",
			},
			&cli.StringFlag{
				Name:  "format",
				Usage: "Format for --output: json, csv, markdown, txt",
				Value: "json",
			},
		},
		Action: r.Discover,
	}
}

// configCommand manages the configuration file
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration file commands",
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write an example config.toml",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Where to write the file",
						Value: "config.toml",
					},
				},
				Action: r.ConfigInit,
			},
		},
	}
}

// setupCommand handles setup operations for the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// cacheCommand inspects the resolved artist cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect the resolved artist cache",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List cached artist IDs",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of artists to list",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheList,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached artist",
				Flags:  []cli.Flag{configFlag()},
				Action: r.CacheClear,
			},
		},
	}
}
