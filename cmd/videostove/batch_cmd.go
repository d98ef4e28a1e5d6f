// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/videostove/internal/batch"
	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/render"
	"github.com/ManuGH/videostove/internal/status"
	"github.com/ManuGH/videostove/internal/version"
)

func runBatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove batch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		common      commonFlags
		listen      string
		concurrency int
		noProgress  bool
	)
	common.register(fs)
	fs.StringVar(&listen, "status-listen", "", "serve /healthz, /metrics and /api on this address (overrides config)")
	fs.IntVar(&concurrency, "concurrency", 0, "parallel renders (overrides config and job file)")
	fs.BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one job file is required")
		return exitUsage
	}

	a, err := loadApp(ctx, common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.close()
	logger := log.WithComponent("cli")

	job, err := batch.LoadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if concurrency > 0 {
		job.Concurrency = concurrency
	}
	if listen == "" {
		listen = a.cfg.Status.Listen
	}

	holder := config.NewHolder(a.cfg, a.loader)
	if err := holder.StartWatcher(ctx); err != nil {
		logger.Warn().Err(err).Msg("config watcher not started")
	}
	defer holder.Stop()

	store, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	opts := batch.Options{
		Concurrency: a.cfg.Batch.Concurrency,
		Snapshot:    holder.Render,
	}
	if store != nil {
		defer store.Close()
		opts.Recorder = store
	}

	tracker := status.NewTracker()
	var bar *batchBar
	if !noProgress {
		bar = newBatchBar(stderr, len(job.Projects))
	}
	opts.OnUpdate = func(res batch.ProjectResult) {
		tracker.Project(res)
		bar.update(res)
	}

	rc := holder.Render()
	if job.GPUMode != "" {
		rc.Encoder.GPUMode = job.GPUMode
	}
	opts.Renderer = a.renderer(ctx, rendererOptions{
		render:   rc,
		fontsDir: job.FontsDir(),
		progress: func(p render.Progress) { tracker.Progress(p) },
	})

	srvCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	g, _ := errgroup.WithContext(srvCtx)
	if listen != "" {
		so := status.Options{
			Listen:        listen,
			RatePerMinute: a.cfg.Status.RatePerMinute,
			Tracker:       tracker,
			Version:       version.Get().Version,
		}
		if store != nil {
			so.History = store
		}
		srv := status.New(so)
		g.Go(func() error { return srv.Run(srvCtx) })
	}

	rep, runErr := batch.NewRunner(opts).Run(ctx, job)
	bar.finish()
	stopServer()
	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("status server stopped with error")
	}

	fmt.Fprintln(stdout)
	for _, p := range rep.Projects {
		fmt.Fprintln(stdout, p.String())
	}
	fmt.Fprintf(stdout, "\n%d done, %d failed, %d skipped, %d cancelled\n",
		rep.Count(batch.StatusDone), rep.Count(batch.StatusFailed),
		rep.Count(batch.StatusSkipped), rep.Count(batch.StatusCancelled))

	switch {
	case errors.Is(runErr, failure.ErrCancelled):
		return exitCancel
	case runErr != nil:
		fmt.Fprintf(stderr, "Error: %v\n", runErr)
		return exitFailure
	case rep.Count(batch.StatusFailed) > 0:
		return exitFailure
	}
	return exitOK
}
