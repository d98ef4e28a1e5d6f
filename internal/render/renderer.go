// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package render turns project inputs into one output video. Each Mode is a
// fixed Pipeline of named stages driving the engine; the narration length
// decides the output length.
package render

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/loopfit"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/metrics"
	"github.com/ManuGH/videostove/internal/motion"
	"github.com/ManuGH/videostove/internal/overlay"
	"github.com/ManuGH/videostove/internal/telemetry"
	"github.com/ManuGH/videostove/internal/transition"
)

// Captioner burns captions into a finished video in place.
type Captioner interface {
	Apply(ctx context.Context, videoPath string, cfg config.CaptionsConfig) error
}

// Progress is reported before each stage starts.
type Progress struct {
	RenderID string
	Project  string
	Stage    string
	Index    int
	Total    int
}

// Options configure a Renderer.
type Options struct {
	Engine engine.Engine
	Prober media.Prober
	// WorkRoot holds the per-render working directories. Empty means the
	// system temp dir.
	WorkRoot string
	// OutputDir receives outputs of requests that name no output path.
	OutputDir    string
	Capabilities engine.Capabilities
	// KillGrace is passed to the process registry on teardown.
	KillGrace time.Duration
	Captioner Captioner
	Progress  func(Progress)
	// Rand seeds motion picking for the Random style. Nil uses a time seed.
	Rand func() *rand.Rand
}

// Renderer runs renders. It is safe for concurrent use; each Render owns
// its working directory, probe cache and process registry.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.Rand == nil {
		opts.Rand = func() *rand.Rand {
			return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
		}
	}
	return &Renderer{opts: opts}
}

// Request is one render. Config is copied at the start of Render.
type Request struct {
	Name string
	// Mode overrides Config.ProjectType when non-zero.
	Mode   Mode
	Inputs media.ProjectInputs
	Config config.RenderConfig
	// Output is the final path. Empty means OutputDir/<Name>.mp4.
	Output string
}

// Result describes a committed output.
type Result struct {
	RenderID   string
	OutputPath string
	Duration   float64
	SizeBytes  int64
	Mode       Mode
	Elapsed    time.Duration
	// Degraded lists optional features that were skipped.
	Degraded []string
}

// Render runs req to completion. On any failure no output is left behind
// and the working directory is removed.
func (r *Renderer) Render(ctx context.Context, req Request) (res Result, err error) {
	start := time.Now()
	cfg := req.Config
	mode := req.Mode
	if mode == 0 {
		if mode, err = ParseMode(cfg.ProjectType); err != nil {
			return Result{}, failure.New(failure.ErrInvalidInput, "validate", "", err)
		}
	}

	id := uuid.NewString()
	ctx = log.ContextWithRenderID(ctx, id)
	ctx = log.ContextWithProject(ctx, req.Name)
	logger := log.WithComponentFromContext(ctx, "render")

	audioPath := ""
	if req.Inputs.MainAudio != nil {
		audioPath = req.Inputs.MainAudio.Path
	}
	ctx, span := telemetry.Tracer("videostove/render").Start(ctx, "render",
		trace.WithAttributes(telemetry.RenderAttributes(id, mode.String(), req.Name,
			len(req.Inputs.Images), len(req.Inputs.Videos), 0)...))

	metrics.IncActiveRenders()
	defer func() {
		metrics.DecActiveRenders()
		outcome := "success"
		switch {
		case errors.Is(err, failure.ErrCancelled):
			outcome = "cancelled"
		case err != nil:
			outcome = "failed"
		}
		metrics.RecordRender(mode.String(), outcome, failure.Kind(err), time.Since(start))
		telemetry.EndSpan(span, err)
	}()

	if err = cfg.Validate(); err != nil {
		return Result{}, failure.New(failure.ErrInvalidInput, "validate", "", err)
	}
	if err = req.Inputs.Validate(mode.Needs()); err != nil {
		if errors.Is(err, media.ErrNoMainAudio) {
			return Result{}, failure.New(failure.ErrProbe, StageProcessAudio, audioPath, err)
		}
		return Result{}, failure.New(failure.ErrInvalidInput, "validate", audioPath, err)
	}
	if err = req.Inputs.CheckFiles(); err != nil {
		return Result{}, missingInput(err)
	}

	output := req.Output
	if output == "" {
		output = filepath.Join(r.opts.OutputDir, req.Name+".mp4")
	}
	if output, err = filepath.Abs(output); err != nil {
		return Result{}, failure.New(failure.ErrInvalidInput, "validate", req.Output, err)
	}

	workDir, err := r.workDir()
	if err != nil {
		return Result{}, failure.New(failure.ErrInvalidInput, "workdir", r.opts.WorkRoot, err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workDir); rmErr != nil {
			logger.Warn().Err(rmErr).Str(log.FieldWorkDir, workDir).Msg("failed to remove work dir")
		}
	}()

	reg := engine.NewRegistry()
	defer reg.Shutdown(r.opts.KillGrace)
	ctx = engine.WithRegistry(ctx, reg)

	j := r.newJob(ctx, id, req.Name, mode, cfg, req.Inputs, workDir, output)
	defer j.cleanup()

	logger.Info().
		Str(log.FieldMode, mode.String()).
		Str(log.FieldEncoder, j.encoder.String()).
		Str(log.FieldWorkDir, workDir).
		Str(log.FieldOutputPath, output).
		Int("images", len(req.Inputs.Images)).
		Int("videos", len(req.Inputs.Videos)).
		Msg("render started")

	if err = PipelineFor(mode).run(ctx, j, r.opts.Progress); err != nil {
		ev := logger.Error().Err(err).Str("kind", failure.Kind(err))
		var runErr *engine.RunError
		if errors.As(err, &runErr) {
			ev = ev.Strs("engine_tail", runErr.Tail)
		}
		ev.Msg("render failed")
		return Result{}, err
	}

	if cfg.Captions.Enabled && r.opts.Captioner != nil {
		if capErr := r.opts.Captioner.Apply(ctx, output, cfg.Captions); capErr != nil {
			if ctx.Err() != nil {
				err = failure.Cancelled("captions", capErr)
				return Result{}, err
			}
			logger.Warn().Err(capErr).Msg("captions skipped, keeping uncaptioned output")
			j.degrade("captions")
		} else {
			j.probes.Forget(output)
			if d, perr := j.probes.Duration(ctx, output); perr == nil {
				j.duration = d
			}
		}
	}

	fi, err := os.Stat(output)
	if err != nil {
		return Result{}, failure.New(failure.ErrFinalMux, StageFinalMux, output, err)
	}
	res = Result{
		RenderID:   id,
		OutputPath: output,
		Duration:   j.duration,
		SizeBytes:  fi.Size(),
		Mode:       mode,
		Elapsed:    time.Since(start),
		Degraded:   j.degraded,
	}
	logger.Info().
		Str(log.FieldOutputPath, output).
		Float64(log.FieldDuration, res.Duration).
		Int64("size_bytes", res.SizeBytes).
		Dur("elapsed", res.Elapsed).
		Strs("degraded", res.Degraded).
		Msg("render finished")
	return res, nil
}

// missingInput classifies an unreadable input file: the main audio fails as
// a probe error, an image or video as a clip build error.
func missingInput(err error) error {
	var me *media.MissingError
	if !errors.As(err, &me) {
		return failure.New(failure.ErrInvalidInput, "validate", "", err)
	}
	switch me.Asset.Kind {
	case media.KindAudio:
		return failure.New(failure.ErrProbe, StageProcessAudio, me.Asset.Path, err)
	case media.KindVideo:
		return failure.New(failure.ErrClipBuild, StageProcessVideos, me.Asset.Path, err)
	}
	return failure.New(failure.ErrClipBuild, StageMotionClips, me.Asset.Path, err)
}

func (r *Renderer) workDir() (string, error) {
	root := r.opts.WorkRoot
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	return os.MkdirTemp(root, "render-")
}

func (r *Renderer) newJob(ctx context.Context, id, name string, mode Mode, cfg config.RenderConfig, in media.ProjectInputs, workDir, output string) *job {
	gpu, _ := engine.ParseGPUMode(cfg.Encoder.GPUMode)
	enc := engine.EncoderSettings(gpu, r.opts.Capabilities, cfg.Encoder.CRF, cfg.Encoder.Preset)

	style, ok := motion.ParseStyle(cfg.AnimationStyle)
	if !ok {
		logger := log.WithComponentFromContext(ctx, "render")
		logger.Warn().
			Str("style", cfg.AnimationStyle).
			Msg("unknown animation style, using sequential")
	}
	motionOpts := motion.Options{Encoder: enc, FadeIn: cfg.FadeIn, FadeOut: cfg.FadeOut}
	if cfg.ExtendedZoom.Enabled {
		ext := motion.ExtendedZoom(cfg.ExtendedZoom.Direction, cfg.ExtendedZoom.AmountPercent)
		motionOpts.Extended = &ext
	}
	blend, err := overlay.ParseKind(cfg.Overlay.Mode)
	if err != nil {
		blend = engine.BlendSimple
	}

	probes := media.NewProbeCache(r.opts.Prober)
	return &job{
		id:        id,
		name:      name,
		mode:      mode,
		cfg:       cfg,
		in:        in,
		workDir:   workDir,
		output:    output,
		eng:       r.opts.Engine,
		probes:    probes,
		encoder:   enc,
		builder:   motion.NewBuilder(r.opts.Engine, workDir, motionOpts),
		chain:     transition.NewChain(r.opts.Engine, probes, workDir, enc),
		fitter:    loopfit.NewFitter(r.opts.Engine, workDir),
		composite: overlay.NewCompositor(r.opts.Engine, probes, workDir, enc),
		style:     style,
		rng:       r.opts.Rand(),
		blend:     overlay.Mode{Kind: blend, Opacity: cfg.Overlay.Opacity},
	}
}

// String summarizes a result for CLI output.
func (r Result) String() string {
	return fmt.Sprintf("%s %s (%ss, %d bytes, %s)", r.Mode, r.OutputPath,
		engine.Seconds(r.Duration), r.SizeBytes, r.Elapsed.Round(time.Millisecond))
}
