package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/models"
	"github.com/desertthunder/relx/internal/services"
	"github.com/desertthunder/relx/internal/shared"
)

// DefaultTimeout bounds one pipeline run when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// RelationSource discovers artists related to a seed artist.
type RelationSource interface {
	Related(ctx context.Context, artist string) ([]string, error)
}

// Options configures an [Engine].
type Options struct {
	Relations       RelationSource
	Catalogs        services.CatalogFactory
	Cache           ArtistCacher // optional
	Market          string
	TracksPerArtist int
	BatchSize       int
	Concurrency     int
	InsertRate      float64
	Timeout         time.Duration
	Logger          *log.Logger
}

// OptionsFromConfig fills the tuning fields of [Options] from the pipeline config section.
func OptionsFromConfig(cfg shared.PipelineConfig) Options {
	return Options{
		Market:          cfg.Market,
		TracksPerArtist: cfg.TracksPerArtist,
		BatchSize:       cfg.BatchSize,
		Concurrency:     cfg.Concurrency,
		InsertRate:      cfg.InsertRate,
		Timeout:         cfg.Timeout(),
	}
}

// RunResult contains everything a pipeline run produced before insertion started.
type RunResult struct {
	Seed        string
	Related     []string     // scraped names, document order
	Resolved    []string     // catalog artist IDs, scrape order
	Tracks      []string     // aggregated track URIs
	Publication *Publication // created playlist and pending insertion
}

// Engine runs the discovery pipeline. It holds no credentials; every run builds its own catalog client.
type Engine struct {
	relations  RelationSource
	catalogs   services.CatalogFactory
	resolver   *Resolver
	aggregator *Aggregator
	publisher  *Publisher
	timeout    time.Duration
	logger     *log.Logger
}

// NewEngine creates an [Engine].
func NewEngine(opts Options) (*Engine, error) {
	if opts.Relations == nil {
		return nil, fmt.Errorf("%w: relation source not set", shared.ErrInvalidConfig)
	}
	if opts.Catalogs == nil {
		return nil, fmt.Errorf("%w: catalog factory not set", shared.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Market == "" {
		opts.Market = "US"
	}
	logger := shared.WithLogger(opts.Logger, "component", "pipeline")

	return &Engine{
		relations:  opts.Relations,
		catalogs:   opts.Catalogs,
		resolver:   NewResolver(opts.Concurrency, opts.Cache, logger),
		aggregator: NewAggregator(opts.Market, opts.TracksPerArtist, opts.Concurrency, logger),
		publisher:  NewPublisher(opts.BatchSize, opts.InsertRate, opts.Timeout, logger),
		timeout:    opts.Timeout,
		logger:     logger,
	}, nil
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run discovers artists related to seed and publishes a playlist of their top tracks for the owner of accessToken.
//
// Nothing is sent on progress after Run returns, so the caller may close it then.
// The returned playlist may still be populating; see [Publication.Done].
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, seed, accessToken string) (*RunResult, error) {
	if seed == "" {
		return nil, fmt.Errorf("%w: artist", shared.ErrMissingArgument)
	}
	if accessToken == "" {
		return nil, fmt.Errorf("%w: access token", shared.ErrMissingArgument)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	catalog := e.catalogs(accessToken)
	result := &RunResult{Seed: seed}

	e.sendProgress(progress, scrapeUpdate(seed))
	related, err := e.relations.Related(ctx, seed)
	if err != nil {
		return nil, e.stageError(ctx, err)
	}
	result.Related = related

	e.sendProgress(progress, resolveUpdate(related))
	result.Resolved = e.resolver.Resolve(ctx, catalog, related)
	if err := ctx.Err(); err != nil {
		return nil, e.stageError(ctx, err)
	}

	e.sendProgress(progress, collectUpdate(result.Resolved))
	result.Tracks = e.aggregator.Collect(ctx, catalog, result.Resolved)
	if err := ctx.Err(); err != nil {
		return nil, e.stageError(ctx, err)
	}

	e.sendProgress(progress, createPlaylistUpdate(models.PlaylistName(seed), len(result.Tracks)))
	pub, err := e.publisher.Publish(ctx, catalog, seed, result.Tracks)
	if err != nil {
		return nil, e.stageError(ctx, err)
	}
	result.Publication = pub

	e.sendProgress(progress, insertBatchesUpdate(pub.Playlist, pub.Batches))
	e.logger.Info("playlist created",
		"seed", seed,
		"catalog", catalog.Name(),
		"playlist", pub.Playlist.ID,
		"related", len(related),
		"resolved", len(result.Resolved),
		"tracks", len(result.Tracks),
		"batches", pub.Batches,
	)
	return result, nil
}

// stageError reports a deadline expiry as [shared.ErrTimeout] and passes any other error through.
func (e *Engine) stageError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: pipeline exceeded %s: %v", shared.ErrTimeout, e.timeout, err)
	}
	return err
}
