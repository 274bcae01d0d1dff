package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/relx/internal/repositories"
	"github.com/desertthunder/relx/internal/ui"
	"github.com/urfave/cli/v3"
)

func (r *Runner) artistRepository(cmd *cli.Command) (*repositories.ArtistRepository, func(), error) {
	cfg, err := r.configFor(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := r.openDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewArtistRepository(db), func() { db.Close() }, nil
}

// CacheList prints the cached name to catalog id mappings.
func (r *Runner) CacheList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.artistRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	artists, err := repo.List(map[string]any{"limit": int(cmd.Int("limit"))})
	if err != nil {
		return fmt.Errorf("failed to list cached artists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(artists, true)
	}
	return r.writePlain("%s\n", ui.RenderArtists(ui.Styles, artists))
}

// CacheClear removes every cached artist.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.artistRepository(cmd)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := repo.Clear()
	if err != nil {
		return err
	}

	r.logger.Info("artist cache cleared", "removed", n)
	return r.writePlain("Removed %d cached artists\n", n)
}
