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
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/history"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/preset"
	"github.com/ManuGH/videostove/internal/render"
)

type renderFlags struct {
	common       commonFlags
	presetRef    string
	mode         string
	name         string
	output       string
	quality      string
	gpu          string
	overlay      string
	bgMusic      string
	noBgMusic    bool
	captions     bool
	karaoke      bool
	pacing       string
	captionStyle string
	fontFile     string
	blackFade    bool
	dryRun       bool
	noProgress   bool
}

func runRender(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var f renderFlags
	f.common.register(fs)
	fs.StringVar(&f.presetRef, "preset", "", "preset file, optionally with :profile")
	fs.StringVar(&f.mode, "mode", "", "slideshow, montage or videos_only (default: detect)")
	fs.StringVar(&f.name, "name", "", "project name (default: directory name)")
	fs.StringVar(&f.output, "output", "", "output file (default: <outputDir>/<name>.mp4)")
	fs.StringVar(&f.quality, "quality", "", "draft, standard, high or ultra")
	fs.StringVar(&f.gpu, "gpu", "", "auto, nvidia, amd, intel or cpu")
	fs.StringVar(&f.overlay, "overlay", "", "overlay video; enables the overlay layer")
	fs.StringVar(&f.bgMusic, "bg-music", "", "background music file")
	fs.BoolVar(&f.noBgMusic, "no-bg-music", false, "disable background music")
	fs.BoolVar(&f.captions, "captions", false, "burn captions into the output")
	fs.BoolVar(&f.karaoke, "karaoke", false, "karaoke captions (implies --captions)")
	fs.StringVar(&f.pacing, "caption-pacing", "", "single, multi, typewriter, single_words, random or live")
	fs.StringVar(&f.captionStyle, "caption-style", "", "classic, basic, outline, boxed, karaoke or custom")
	fs.StringVar(&f.fontFile, "font-file", "", "font file made available to the subtitle renderer")
	fs.BoolVar(&f.blackFade, "black-fade", false, "join intro and slideshow through black")
	fs.BoolVar(&f.dryRun, "dry-run", false, "print the plan without rendering")
	fs.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one project directory is required")
		return exitUsage
	}
	dir, err := filepath.Abs(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	a, err := loadApp(ctx, f.common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.close()

	plan, err := planRender(a.cfg.Render, dir, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if f.dryRun {
		plan.print(stdout)
		return exitOK
	}

	var bar *stageBar
	if !f.noProgress {
		bar = newStageBar(stderr, plan.req.Name)
	}
	fontsDir := ""
	if f.fontFile != "" {
		fontsDir = filepath.Dir(f.fontFile)
	}
	r := a.renderer(ctx, rendererOptions{render: plan.req.Config, fontsDir: fontsDir, progress: bar.update})

	started := time.Now()
	res, err := r.Render(ctx, plan.req)
	bar.finish()
	recordSingle(a, plan, res, err, started)

	if err != nil {
		fmt.Fprintf(stderr, "Render failed: %v\n", err)
		if errors.Is(err, failure.ErrCancelled) {
			return exitCancel
		}
		return exitFailure
	}
	fmt.Fprintln(stdout, res.String())
	return exitOK
}

// renderPlan is a resolved render request plus what decided it.
type renderPlan struct {
	req         render.Request
	scan        media.Scan
	modeSource  string
	eligibility media.Eligibility
	profile     *preset.Profile
}

func planRender(base config.RenderConfig, dir string, f renderFlags) (renderPlan, error) {
	var p renderPlan
	rc := base
	var projectType string
	if f.presetRef != "" {
		prof, err := preset.LoadRef(f.presetRef)
		if err != nil {
			return p, err
		}
		p.profile = &prof
		rc = prof.Apply(rc)
		if prof.Settings.ProjectType != nil {
			projectType = *prof.Settings.ProjectType
		}
	}
	if err := applyRenderFlags(&rc, f); err != nil {
		return p, err
	}

	scan, err := media.ScanProject(dir)
	if err != nil {
		return p, err
	}
	p.scan = scan

	var mode render.Mode
	if f.mode != "" {
		if mode, err = render.ParseMode(f.mode); err != nil {
			return p, err
		}
		p.modeSource = "flag"
	} else {
		modeName, source := preset.DetectMode(projectType, dir)
		if mode, err = render.ParseMode(modeName); err != nil {
			return p, err
		}
		p.modeSource = string(source)
	}
	rc.ProjectType = mode.String()

	p.eligibility = scan.Eligibility(mode.String())
	if !p.eligibility.Eligible {
		return p, fmt.Errorf("project %s is not eligible for %s: %s", dir, mode, p.eligibility.Reason)
	}

	name := f.name
	if name == "" {
		name = filepath.Base(dir)
	}
	p.req = render.Request{
		Name: name,
		Mode: mode,
		Inputs: scan.Inputs(media.InputOptions{
			BackgroundMusic: rc.BackgroundMusicEnabled,
			Overlay:         rc.Overlay.Enabled,
			BackgroundPath:  f.bgMusic,
			OverlayPath:     f.overlay,
		}),
		Config: rc,
		Output: f.output,
	}
	return p, nil
}

func applyRenderFlags(rc *config.RenderConfig, f renderFlags) error {
	if f.quality != "" {
		crf, p, ok := config.QualityPreset(f.quality)
		if !ok {
			return fmt.Errorf("unknown quality %q", f.quality)
		}
		rc.Encoder.CRF, rc.Encoder.Preset = crf, p
	}
	if f.gpu != "" {
		rc.Encoder.GPUMode = strings.ToLower(f.gpu)
	}
	if f.overlay != "" {
		rc.Overlay.Enabled = true
	}
	if f.bgMusic != "" {
		rc.BackgroundMusicEnabled = true
	}
	if f.noBgMusic {
		rc.BackgroundMusicEnabled = false
	}
	if f.captions || f.karaoke {
		rc.Captions.Enabled = true
	}
	if f.karaoke {
		rc.Captions.Karaoke = true
	}
	if f.pacing != "" {
		rc.Captions.Pacing = f.pacing
	}
	if f.captionStyle != "" {
		rc.Captions.Style = strings.ToLower(f.captionStyle)
	}
	if f.blackFade {
		rc.BlackFadeTransition = true
	}
	return rc.Validate()
}

func (p renderPlan) print(w io.Writer) {
	rc := p.req.Config
	fmt.Fprintf(w, "Project:     %s\n", p.req.Name)
	fmt.Fprintf(w, "Mode:        %s (%s)\n", p.req.Mode, p.modeSource)
	fmt.Fprintf(w, "Eligibility: %s\n", p.eligibility.Reason)
	fmt.Fprintf(w, "Images:      %d\n", len(p.req.Inputs.Images))
	fmt.Fprintf(w, "Videos:      %d\n", len(p.req.Inputs.Videos))
	if a := p.req.Inputs.MainAudio; a != nil {
		fmt.Fprintf(w, "Main audio:  %s\n", a.Path)
	}
	if a := p.req.Inputs.BackgroundMusic; a != nil {
		fmt.Fprintf(w, "Background:  %s (volume %.2f)\n", a.Path, rc.BackgroundVolume)
	}
	if a := p.req.Inputs.Overlay; a != nil {
		fmt.Fprintf(w, "Overlay:     %s (%s, %.2f)\n", a.Path, rc.Overlay.Mode, rc.Overlay.Opacity)
	}
	fmt.Fprintf(w, "Encoder:     %s crf=%d preset=%s\n", rc.Encoder.GPUMode, rc.Encoder.CRF, rc.Encoder.Preset)
	if p.profile != nil {
		fmt.Fprintf(w, "Preset:      %s\n", p.profile.Name)
		for _, s := range p.profile.Summary() {
			fmt.Fprintf(w, "  %-24s %s\n", s.Label+":", s.Value)
		}
	}
	fmt.Fprintf(w, "Stages:      %s\n", strings.Join(render.PipelineFor(p.req.Mode).Stages(), " > "))
}

// recordSingle stores a single render in history when it is configured.
func recordSingle(a *app, p renderPlan, res render.Result, renderErr error, started time.Time) {
	store, err := a.openHistory()
	if err != nil || store == nil {
		if err != nil {
			logger := log.WithComponent("cli")
			logger.Warn().Err(err).Msg("history unavailable")
		}
		return
	}
	defer store.Close()

	e := history.Entry{
		RenderID:   res.RenderID,
		Project:    p.req.Name,
		Mode:       p.req.Mode.String(),
		Status:     history.StatusDone,
		OutputPath: res.OutputPath,
		DurationS:  res.Duration,
		SizeBytes:  res.SizeBytes,
		Elapsed:    time.Since(started).Seconds(),
		Degraded:   res.Degraded,
		StartedAt:  started,
	}
	switch {
	case errors.Is(renderErr, failure.ErrCancelled):
		e.Status = history.StatusCancelled
	case renderErr != nil:
		e.Status = history.StatusFailed
	}
	if renderErr != nil {
		e.Error, e.ErrorKind = renderErr.Error(), failure.Kind(renderErr)
	}
	if _, err := store.Record(context.Background(), e); err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("history record failed")
	}
}
