package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/relx/internal/auth"
	"github.com/desertthunder/relx/internal/server"
	"github.com/desertthunder/relx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP server until ctx is cancelled or the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.configFor(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sp := cfg.Credentials.Spotify
	flow, err := auth.NewFlow(auth.Options{
		ClientID:     sp.ClientID,
		ClientSecret: sp.ClientSecret,
		RedirectURL:  sp.RedirectURI,
		Catalogs:     r.catalogFactory(),
		HTTPClient:   r.httpClient,
		Logger:       r.logger,
	})
	if err != nil {
		return err
	}
	defer flow.Wait()

	engine, cleanup, err := r.engine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	secure := false
	if u, err := url.Parse(sp.RedirectURI); err == nil {
		secure = u.Scheme == "https"
	}

	router := server.NewRouter(server.RouterOptions{
		Flow:         flow,
		Pipeline:     engine,
		StaticDir:    cfg.Server.StaticDir,
		SecureCookie: secure,
		Logger:       r.logger,
	})
	srv := server.New(cfg.Server.Addr(), router, r.logger).WithDrainTimeout(cfg.Pipeline.Timeout())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Bool("open") {
		loginURL := fmt.Sprintf("http://%s/login", cfg.Server.Addr())
		if err := shared.OpenBrowser(loginURL); err != nil {
			r.logger.Warn("failed to open browser", "url", loginURL, "error", err)
		}
	}

	return srv.Run(ctx)
}
