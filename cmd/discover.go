package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/relx/internal/formatter"
	"github.com/desertthunder/relx/internal/tasks"
	"github.com/desertthunder/relx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Discover runs the pipeline for --artist and waits for every batch to settle before reporting.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.configFor(cmd)
	if err != nil {
		return err
	}

	engine, cleanup, err := r.engine(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	progress := make(chan tasks.ProgressUpdate, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for u := range progress {
			r.logger.Info(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	res, err := engine.Run(ctx, progress, cmd.String("artist"), cmd.String("token"))
	close(progress)
	<-drained
	if err != nil {
		return err
	}

	var summary tasks.InsertionSummary
	if res.Publication != nil {
		if summary, err = res.Publication.Wait(ctx); err != nil {
			return fmt.Errorf("waiting for track insertion: %w", err)
		}
	}

	report := formatter.NewReport(res, summary)

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(report, cmd.String("format"), path); err != nil {
			return err
		}
		r.logger.Info("report written", "path", path)
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}
	return r.writePlain("%s\n", ui.RenderReport(ui.Styles, report))
}
