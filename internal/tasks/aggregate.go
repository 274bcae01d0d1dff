package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/services"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// DefaultTracksPerArtist caps how many top tracks each artist contributes.
const DefaultTracksPerArtist = 3

// Aggregator collects top tracks for resolved artists.
type Aggregator struct {
	market      string
	perArtist   int
	concurrency int
	logger      *log.Logger
}

// NewAggregator creates an [Aggregator] for market. perArtist defaults to [DefaultTracksPerArtist].
func NewAggregator(market string, perArtist, concurrency int, logger *log.Logger) *Aggregator {
	if perArtist <= 0 {
		perArtist = DefaultTracksPerArtist
	}
	return &Aggregator{market: market, perArtist: perArtist, concurrency: concurrency, logger: logger}
}

// Collect fetches the top tracks of every artist concurrently and concatenates them in the order of ids.
//
// An artist whose lookup fails contributes nothing.
func (a *Aggregator) Collect(ctx context.Context, catalog services.Catalog, ids []string) []string {
	perArtist := make([][]string, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(a.concurrency))
	for i, id := range ids {
		g.Go(func() error {
			uris, err := catalog.TopTracks(gctx, id, a.market)
			if err != nil {
				err = fmt.Errorf("%w: %s: %v", shared.ErrTrackFetchFailed, id, err)
				a.logger.Warn("skipping artist tracks", "id", id, "error", err)
				return nil
			}
			perArtist[i] = Leading(uris, a.perArtist)
			return nil
		})
	}
	_ = g.Wait()

	return lo.Flatten(perArtist)
}

// Leading returns the non-empty URIs among the first n entries of uris.
func Leading(uris []string, n int) []string {
	head := uris[:min(n, len(uris))]
	return lo.Compact(head)
}
