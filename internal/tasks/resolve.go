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

// ArtistCacher stores resolved artist IDs between runs.
//
// Implementations must be safe for concurrent use. Errors are logged and never fail a resolution.
type ArtistCacher interface {
	LookupArtist(name string) (catalogID string, found bool, err error)
	CacheArtist(name, catalogID string) error
}

// Resolver maps artist names to catalog artist IDs.
type Resolver struct {
	concurrency int
	cache       ArtistCacher
	logger      *log.Logger
}

// NewResolver creates a [Resolver]. A concurrency of zero or less issues every search at once; cache may be nil.
func NewResolver(concurrency int, cache ArtistCacher, logger *log.Logger) *Resolver {
	return &Resolver{concurrency: concurrency, cache: cache, logger: logger}
}

// Resolve searches every name concurrently and returns the IDs of the names that matched, in input order.
//
// A failed or empty search drops that name.
func (r *Resolver) Resolve(ctx context.Context, catalog services.Catalog, names []string) []string {
	ids := make([]string, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit(r.concurrency))
	for i, name := range names {
		g.Go(func() error {
			id, err := r.resolveOne(gctx, catalog, name)
			if err != nil {
				r.logger.Warn("dropping artist", "name", name, "error", err)
				return nil
			}
			ids[i] = id
			return nil
		})
	}
	_ = g.Wait()

	return lo.Compact(ids)
}

func (r *Resolver) resolveOne(ctx context.Context, catalog services.Catalog, name string) (string, error) {
	if r.cache != nil {
		id, found, err := r.cache.LookupArtist(name)
		switch {
		case err != nil:
			r.logger.Warn("artist cache lookup failed", "name", name, "error", err)
		case found && id != "":
			r.logger.Debug("artist cache hit", "name", name, "id", id)
			return id, nil
		}
	}

	id, err := catalog.SearchArtist(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", shared.ErrSearchFailed, name, err)
	}
	if id == "" {
		r.logger.Debug("no catalog match", "name", name)
		return "", nil
	}

	if r.cache != nil {
		if err := r.cache.CacheArtist(name, id); err != nil {
			r.logger.Warn("failed to cache artist", "name", name, "error", err)
		}
	}
	return id, nil
}

// limit maps a configured concurrency onto [errgroup.Group.SetLimit], where a negative value means unbounded.
func limit(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}
