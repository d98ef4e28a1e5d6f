// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/history"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/metrics"
	"github.com/ManuGH/videostove/internal/preset"
	"github.com/ManuGH/videostove/internal/render"
)

// Status of one project.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
)

// Renderer renders one project.
type Renderer interface {
	Render(ctx context.Context, req render.Request) (render.Result, error)
}

// Recorder stores finished projects.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
}

// ProjectResult is the outcome of one project.
type ProjectResult struct {
	Name    string
	Mode    string
	Status  Status
	Output  string
	Reason  string
	Result  render.Result
	Err     error
	Elapsed time.Duration
}

// Report summarises a batch run. Projects keep the job file order.
type Report struct {
	BatchID  string
	Projects []ProjectResult
}

// Count returns how many projects ended in status s.
func (r Report) Count(s Status) int {
	n := 0
	for _, p := range r.Projects {
		if p.Status == s {
			n++
		}
	}
	return n
}

// Options configure a Runner.
type Options struct {
	Renderer Renderer
	// Recorder may be nil.
	Recorder Recorder
	// Base is the render configuration the preset is applied onto.
	Base config.RenderConfig
	// Snapshot, when set, replaces Base and is called once per project so a
	// hot-reloaded config reaches projects that have not started yet.
	Snapshot func() config.RenderConfig
	// Concurrency is used when the job names none. Values below 1 mean 1.
	Concurrency int
	// OnUpdate is called on every status change. Calls may come from
	// several goroutines concurrently.
	OnUpdate func(ProjectResult)
}

// Runner executes batch jobs. A failing project never stops the others.
type Runner struct {
	opts Options
}

func NewRunner(opts Options) *Runner {
	return &Runner{opts: opts}
}

// Run renders every project of job. It returns an error only when the job
// itself cannot start or ctx was cancelled; project failures are reported
// in the Report.
func (r *Runner) Run(ctx context.Context, job Job) (Report, error) {
	logger := log.WithComponentFromContext(ctx, "batch")

	var profile *preset.Profile
	if job.PresetFile != "" {
		p, err := preset.LoadRef(job.PresetFile)
		if err != nil {
			return Report{}, err
		}
		profile = &p
	}

	limit := job.Concurrency
	if limit <= 0 {
		limit = r.opts.Concurrency
	}
	limit = max(limit, 1)

	rep := Report{BatchID: uuid.NewString(), Projects: make([]ProjectResult, len(job.Projects))}
	for i, p := range job.Projects {
		rep.Projects[i] = ProjectResult{Name: p.Name, Mode: p.Mode, Status: StatusPending, Output: p.Output}
	}
	logger.Info().
		Str("batch_id", rep.BatchID).
		Int("projects", len(job.Projects)).
		Int("concurrency", limit).
		Msg("batch started")

	var mu sync.Mutex
	update := func(i int, res ProjectResult) {
		mu.Lock()
		rep.Projects[i] = res
		mu.Unlock()
		if r.opts.OnUpdate != nil {
			r.opts.OnUpdate(res)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i, p := range job.Projects {
		if ctx.Err() != nil {
			res := ProjectResult{Name: p.Name, Mode: p.Mode, Status: StatusCancelled, Reason: "batch cancelled"}
			update(i, res)
			r.finish(ctx, rep.BatchID, res)
			continue
		}
		g.Go(func() error {
			res := r.runProject(ctx, job, p, profile, func(res ProjectResult) { update(i, res) })
			update(i, res)
			r.finish(ctx, rep.BatchID, res)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().
		Str("batch_id", rep.BatchID).
		Int("done", rep.Count(StatusDone)).
		Int("failed", rep.Count(StatusFailed)).
		Int("skipped", rep.Count(StatusSkipped)).
		Int("cancelled", rep.Count(StatusCancelled)).
		Msg("batch finished")

	if err := ctx.Err(); err != nil {
		return rep, failure.Cancelled("batch", err)
	}
	return rep, nil
}

func (r *Runner) runProject(ctx context.Context, job Job, p Project, profile *preset.Profile, progress func(ProjectResult)) ProjectResult {
	start := time.Now()
	res := ProjectResult{Name: p.Name, Mode: p.Mode, Output: p.Output}
	ctx = log.ContextWithProject(ctx, p.Name)
	logger := log.WithComponentFromContext(ctx, "batch")

	done := func(status Status, reason string, err error) ProjectResult {
		res.Status, res.Reason, res.Err = status, reason, err
		res.Elapsed = time.Since(start)
		return res
	}

	scan, err := media.ScanProject(p.InputsDir)
	if err != nil {
		return done(StatusFailed, "scan failed", err)
	}

	cfg := r.opts.Base
	if r.opts.Snapshot != nil {
		cfg = r.opts.Snapshot()
	}
	projectType := p.Mode
	if profile != nil {
		cfg = profile.Apply(cfg)
		if projectType == "" && profile.Settings.ProjectType != nil {
			projectType = *profile.Settings.ProjectType
		}
	}
	if job.GPUMode != "" {
		cfg.Encoder.GPUMode = job.GPUMode
	}

	modeName, source := preset.DetectMode(projectType, p.InputsDir)
	mode, err := render.ParseMode(modeName)
	if err != nil {
		return done(StatusFailed, "invalid mode", err)
	}
	res.Mode = mode.String()
	cfg.ProjectType = res.Mode

	if el := scan.Eligibility(res.Mode); !el.Eligible {
		logger.Warn().Str(log.FieldMode, res.Mode).Str("reason", el.Reason).Msg("project skipped")
		return done(StatusSkipped, el.Reason, nil)
	}

	inputs := scan.Inputs(media.InputOptions{
		BackgroundMusic: cfg.BackgroundMusicEnabled,
		Overlay:         cfg.Overlay.Enabled,
		BackgroundPath:  job.BgMusic,
		OverlayPath:     job.OverlayVideo,
	})

	res.Status = StatusRunning
	progress(res)
	logger.Info().
		Str(log.FieldMode, res.Mode).
		Str("mode_source", string(source)).
		Str(log.FieldPath, p.InputsDir).
		Msg("project started")

	out, err := r.opts.Renderer.Render(ctx, render.Request{
		Name:   p.Name,
		Mode:   mode,
		Inputs: inputs,
		Config: cfg,
		Output: p.Output,
	})
	res.Result = out
	switch {
	case errors.Is(err, failure.ErrCancelled):
		return done(StatusCancelled, "cancelled", err)
	case err != nil:
		logger.Error().Err(err).Str(log.FieldMode, res.Mode).Msg("project failed")
		return done(StatusFailed, failure.Kind(err), err)
	}
	res.Output = out.OutputPath
	return done(StatusDone, "", nil)
}

// finish records a terminal result in metrics and history.
func (r *Runner) finish(ctx context.Context, batchID string, res ProjectResult) {
	metrics.IncBatchProject(string(res.Status))
	if r.opts.Recorder == nil {
		return
	}
	e := history.Entry{
		RenderID:   res.Result.RenderID,
		BatchID:    batchID,
		Project:    res.Name,
		Mode:       res.Mode,
		Status:     string(res.Status),
		OutputPath: res.Output,
		DurationS:  res.Result.Duration,
		SizeBytes:  res.Result.SizeBytes,
		Elapsed:    res.Elapsed.Seconds(),
		Degraded:   res.Result.Degraded,
		FinishedAt: time.Now(),
	}
	e.StartedAt = e.FinishedAt.Add(-res.Elapsed)
	if res.Err != nil {
		e.Error = res.Err.Error()
		e.ErrorKind = failure.Kind(res.Err)
	} else if res.Reason != "" {
		e.Error = res.Reason
	}
	// Recorded even after ctx is cancelled.
	if _, err := r.opts.Recorder.Record(context.WithoutCancel(ctx), e); err != nil {
		logger := log.WithComponentFromContext(ctx, "batch")
		logger.Warn().Err(err).Str(log.FieldProject, res.Name).Msg("history record failed")
	}
}

// String renders a one-line summary.
func (p ProjectResult) String() string {
	switch p.Status {
	case StatusDone:
		return fmt.Sprintf("%s: done (%s, %.1fs) -> %s", p.Name, p.Mode, p.Result.Duration, p.Output)
	case StatusFailed, StatusSkipped, StatusCancelled:
		if p.Err != nil {
			return fmt.Sprintf("%s: %s: %v", p.Name, p.Status, p.Err)
		}
		return fmt.Sprintf("%s: %s: %s", p.Name, p.Status, p.Reason)
	}
	return fmt.Sprintf("%s: %s", p.Name, p.Status)
}
