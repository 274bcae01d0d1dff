package main

import (
	"database/sql"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/relx/internal/repositories"
	"github.com/desertthunder/relx/internal/scraper"
	"github.com/desertthunder/relx/internal/services"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/desertthunder/relx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	catalogs   services.CatalogFactory
	relations  tasks.RelationSource
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Catalogs   services.CatalogFactory // nil builds Spotify clients
	Relations  tasks.RelationSource    // nil builds the music-map scraper
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		catalogs:   opts.Catalogs,
		relations:  opts.Relations,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, discoverCommand, configCommand, setupCommand, cacheCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// configFor loads the file named by --config, falling back to the config the runner started with.
func (r *Runner) configFor(cmd *cli.Command) (*shared.Config, error) {
	cfg := r.config
	if path := cmd.String("config"); path != "" {
		loaded, err := shared.LoadConfigOrDefault(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
		}
		cfg = loaded
	}

	if !cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(cfg.Log.Level))
	}
	return cfg, nil
}

func (r *Runner) catalogFactory() services.CatalogFactory {
	if r.catalogs != nil {
		return r.catalogs
	}
	return services.NewSpotifyFactory(services.SpotifyOptions{HTTPClient: r.httpClient, Retry: true})
}

func (r *Runner) relationSource(cfg *shared.Config) tasks.RelationSource {
	if r.relations != nil {
		return r.relations
	}
	return scraper.New(scraper.Options{
		BaseURL: cfg.Scraper.BaseURL,
		Timeout: cfg.Scraper.Timeout(),
		Logger:  r.logger,
	})
}

// openDatabase opens the configured database and brings its schema up to date.
func (r *Runner) openDatabase(cfg *shared.Config) (*sql.DB, error) {
	if cfg.Database.Path == "" {
		return nil, fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
	}

	db, err := shared.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// engine builds the pipeline for cfg. The returned func releases the artist cache, if one was opened.
func (r *Runner) engine(cfg *shared.Config) (*tasks.Engine, func(), error) {
	opts := tasks.OptionsFromConfig(cfg.Pipeline)
	opts.Relations = r.relationSource(cfg)
	opts.Catalogs = r.catalogFactory()
	opts.Logger = r.logger

	cleanup := func() {}
	if cfg.Database.Path != "" {
		db, err := r.openDatabase(cfg)
		if err != nil {
			r.logger.Warn("artist cache unavailable", "error", err)
		} else {
			opts.Cache = repositories.NewArtistCacheAdapter(repositories.NewArtistRepository(db))
			cleanup = func() { db.Close() }
		}
	}

	engine, err := tasks.NewEngine(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return engine, cleanup, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
