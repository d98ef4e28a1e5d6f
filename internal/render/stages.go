// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/loopfit"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/motion"
	"github.com/ManuGH/videostove/internal/overlay"
	"github.com/ManuGH/videostove/internal/transition"
)

// frameTolerance is one frame at the canonical rate.
const frameTolerance = 1.0 / engine.FPS

// job is the state of one render as it moves through its pipeline. Only the
// render goroutine touches it.
type job struct {
	id      string
	name    string
	mode    Mode
	cfg     config.RenderConfig
	in      media.ProjectInputs
	workDir string
	output  string

	eng       engine.Engine
	probes    *media.ProbeCache
	encoder   engine.Encoder
	builder   *motion.Builder
	chain     *transition.Chain
	fitter    *loopfit.Fitter
	composite *overlay.Compositor
	style     motion.Style
	rng       *rand.Rand

	audio       media.Clip
	background  string
	overlayPath string
	blend       overlay.Mode

	plan   MontagePlan
	intros []media.Clip
	clips  []media.Clip
	cycle  media.Clip
	visual media.Clip
	looped bool
	// trimmed is set when loop fitting cut the end off the cycle.
	trimmed bool
	mix    string
	seq    int

	pending  *renameio.PendingFile
	duration float64
	degraded []string
}

func (j *job) path(prefix, ext string) string {
	j.seq++
	return filepath.Join(j.workDir, fmt.Sprintf("%s_%03d%s", prefix, j.seq, ext))
}

func (j *job) degrade(feature string) {
	if !slices.Contains(j.degraded, feature) {
		j.degraded = append(j.degraded, feature)
	}
}

func (j *job) transitionMode() transition.Mode {
	if j.cfg.Crossfade.Enabled && j.cfg.Crossfade.Duration > 0 {
		return transition.Crossfade(j.cfg.Crossfade.Duration)
	}
	return transition.Concatenate()
}

func probeFailure(stage, path string, err error) error {
	if errors.Is(err, failure.ErrProbe) || errors.Is(err, failure.ErrCancelled) {
		return err
	}
	return failure.New(failure.ErrProbe, stage, path, err)
}

func (j *job) processAudio(ctx context.Context) error {
	src := j.in.MainAudio.Path
	if _, err := j.probes.Duration(ctx, src); err != nil {
		return probeFailure(StageProcessAudio, src, err)
	}
	out := filepath.Join(j.workDir, "audio.mp3")
	if err := j.eng.Run(ctx, engine.AudioTranscodeRequest{Input: src, Output: out}); err != nil {
		return failure.New(failure.ErrMix, StageProcessAudio, src, err)
	}
	d, err := j.probes.Duration(ctx, out)
	if err != nil {
		return probeFailure(StageProcessAudio, out, err)
	}
	j.audio = media.Clip{Path: out, Duration: d}
	j.prepareExtras(ctx)
	return nil
}

// prepareExtras resolves background music and overlay. Neither is fatal.
func (j *job) prepareExtras(ctx context.Context) {
	logger := log.WithComponentFromContext(ctx, "render")
	if j.cfg.BackgroundMusicEnabled && j.in.BackgroundMusic != nil {
		bg := j.in.BackgroundMusic.Path
		if _, err := j.probes.Duration(ctx, bg); err != nil {
			logger.Warn().Err(err).Str(log.FieldPath, bg).Msg("background music unreadable, mixing narration only")
			j.degrade("background_music")
		} else {
			j.background = bg
		}
	}
	if j.cfg.Overlay.Enabled {
		if j.in.Overlay == nil {
			logger.Info().Msg("overlay enabled but project has no overlay video")
			return
		}
		j.overlayPath = j.in.Overlay.Path
	}
}

// normalizeVideos brings every project video to the canonical format. The
// first one fades in and, when fadeOutLast is set, the last one fades out.
func (j *job) normalizeVideos(ctx context.Context, stage string, fadeOutLast bool) ([]media.Clip, error) {
	clips := make([]media.Clip, 0, len(j.in.Videos))
	fail := func(err error) ([]media.Clip, error) {
		transition.Remove(clips...)
		return nil, err
	}
	for i, v := range j.in.Videos {
		src, err := j.probes.Duration(ctx, v.Path)
		if err != nil {
			return fail(probeFailure(stage, v.Path, err))
		}
		out := j.path("video", ".mp4")
		req := engine.NormalizeVideoRequest{
			Input:          v.Path,
			Output:         out,
			SourceDuration: src,
			FadeIn:         i == 0 && j.cfg.FadeIn,
			FadeOut:        i == len(j.in.Videos)-1 && fadeOutLast && j.cfg.FadeOut,
		}
		if err := j.eng.Run(ctx, req); err != nil {
			_ = os.Remove(out)
			return fail(failure.New(failure.ErrClipBuild, stage, v.Path, err))
		}
		d, err := j.probes.Duration(ctx, out)
		if err != nil {
			return fail(probeFailure(stage, out, err))
		}
		clips = append(clips, media.Clip{Path: out, Duration: d, HasFades: req.FadeIn || req.FadeOut})
	}
	return clips, nil
}

func (j *job) introVideos(ctx context.Context) error {
	durations := make([]float64, 0, len(j.in.Videos))
	for _, v := range j.in.Videos {
		d, err := j.probes.Duration(ctx, v.Path)
		if err != nil {
			return probeFailure(StageIntroVideos, v.Path, err)
		}
		durations = append(durations, d)
	}
	xfade := 0.0
	if tm := j.transitionMode(); tm.Crossfade {
		xfade = tm.Duration
	}
	j.plan = PlanMontage(durations, j.audio.Duration, len(j.in.Images), j.cfg.ImageDuration, xfade)
	logger := log.WithComponentFromContext(ctx, "render")
	logger.Info().
		Int("intros", len(durations)).
		Float64("intro_total_s", j.plan.IntroTotal).
		Float64("remaining_s", j.plan.Remaining).
		Bool("images", j.plan.UseImages).
		Float64("cycle_s", j.plan.Cycle).
		Bool("loop_cycle", j.plan.LoopCycle).
		Msg("montage planned")

	if len(j.in.Videos) == 0 {
		return nil
	}
	intros, err := j.normalizeVideos(ctx, StageIntroVideos, j.plan.FadeOutLastIntro)
	if err != nil {
		return err
	}
	j.intros = intros
	return nil
}

func (j *job) processVideos(ctx context.Context) error {
	total := 0.0
	for _, v := range j.in.Videos {
		d, err := j.probes.Duration(ctx, v.Path)
		if err != nil {
			return probeFailure(StageProcessVideos, v.Path, err)
		}
		total += d
	}
	willLoop := total < j.audio.Duration
	clips, err := j.normalizeVideos(ctx, StageProcessVideos, !willLoop)
	if err != nil {
		return err
	}
	j.clips = clips
	return nil
}

func (j *job) motionClips(ctx context.Context) error {
	if j.mode == Montage && !j.plan.UseImages {
		return nil
	}
	n := len(j.in.Images)
	j.clips = make([]media.Clip, 0, n)
	for i, img := range j.in.Images {
		if err := ctx.Err(); err != nil {
			transition.Remove(j.clips...)
			j.clips = nil
			return failure.Cancelled(StageMotionClips, err)
		}
		effect := j.builder.Resolve(ctx, motion.PickDirection(j.style, i, n, j.rng))
		// Slideshows fade the full-length master instead of single clips.
		first, last := false, false
		if j.mode == Montage {
			first = i == 0 && j.plan.FadeInFirstImage
			last = i == n-1 && j.plan.FadeOutLastImage
		}
		clip, err := j.builder.Build(ctx, img.Path, effect, j.cfg.ImageDuration, first, last)
		if err != nil {
			transition.Remove(j.clips...)
			j.clips = nil
			return err
		}
		j.clips = append(j.clips, clip)
	}
	return nil
}

func (j *job) assembleCycle(ctx context.Context) error {
	if len(j.clips) == 0 {
		return nil
	}
	cycle, err := j.chain.Assemble(ctx, j.clips, j.transitionMode())
	if err != nil {
		return err
	}
	transition.Remove(j.clips...)
	j.clips = nil
	j.cycle = cycle
	return nil
}

// assembleSequence concatenates the compilation. A sequence at least as
// long as the audio is trimmed in the same pass; a shorter one becomes the
// cycle for loop fitting.
func (j *job) assembleSequence(ctx context.Context) error {
	total := 0.0
	for _, c := range j.clips {
		total += c.Duration
	}
	var (
		seq media.Clip
		err error
	)
	if total >= j.audio.Duration-frameTolerance {
		seq, err = j.chain.Concat(ctx, j.clips, j.audio.Duration)
	} else {
		seq, err = j.chain.Assemble(ctx, j.clips, transition.Concatenate())
	}
	if err != nil {
		return err
	}
	transition.Remove(j.clips...)
	j.clips = nil
	if total >= j.audio.Duration-frameTolerance {
		j.visual = seq
	} else {
		j.cycle = seq
	}
	return nil
}

// applyOverlay layers the overlay on the visual master when one exists,
// otherwise on the intros and the cycle separately.
func (j *job) applyOverlay(ctx context.Context) error {
	if j.overlayPath == "" {
		return nil
	}
	apply := func(c media.Clip) media.Clip {
		out, res := j.composite.Apply(ctx, c, j.overlayPath, j.blend, c.Duration)
		if !res.Applied {
			j.degrade("overlay")
			return c
		}
		transition.Remove(c)
		return out
	}
	if j.visual.Path != "" {
		j.visual = apply(j.visual)
		return nil
	}
	for i := range j.intros {
		j.intros[i] = apply(j.intros[i])
	}
	if j.cycle.Path != "" {
		j.cycle = apply(j.cycle)
	}
	return nil
}

func (j *job) fitTarget() float64 {
	if j.mode == Montage {
		return j.plan.Remaining
	}
	return j.audio.Duration
}

func (j *job) loopFit(ctx context.Context) error {
	if j.cycle.Path == "" {
		return nil
	}
	target := j.fitTarget()
	loops, err := loopfit.Plan(j.cycle.Duration, target)
	if err != nil {
		return err
	}
	fitted, err := j.fitter.Fit(ctx, j.cycle, target)
	if err != nil {
		return err
	}
	j.looped = loops > 0
	j.trimmed = loops == 0 && target < j.cycle.Duration-frameTolerance
	transition.Remove(j.cycle)
	j.cycle = media.Clip{}
	j.visual = fitted
	return nil
}

func (j *job) finalFades(ctx context.Context) error {
	var in, out bool
	switch j.mode {
	case Slideshow:
		in, out = j.cfg.FadeIn, j.cfg.FadeOut
	case VideoCompilation:
		out = j.cfg.FadeOut && j.looped
	}
	if !in && !out {
		return nil
	}
	return j.fade(ctx, StageFades, in, out)
}

// fade re-encodes the visual master with full-length fades.
func (j *job) fade(ctx context.Context, stage string, in, out bool) error {
	dst := j.path("faded", ".mp4")
	req := engine.FadeRequest{
		Input:    j.visual.Path,
		Output:   dst,
		Duration: j.visual.Duration,
		FadeIn:   in,
		FadeOut:  out,
		Encoder:  j.encoder,
	}
	if err := j.eng.Run(ctx, req); err != nil {
		_ = os.Remove(dst)
		return failure.New(failure.ErrTransition, stage, j.visual.Path, err)
	}
	transition.Remove(j.visual)
	j.visual = media.Clip{Path: dst, Duration: req.Duration, HasFades: true}
	return nil
}

// introMaster returns the intros as one clip.
func (j *job) introMaster(ctx context.Context) (media.Clip, error) {
	if len(j.intros) == 1 {
		return j.intros[0], nil
	}
	master, err := j.chain.Assemble(ctx, j.intros, transition.Concatenate())
	if err != nil {
		return media.Clip{}, err
	}
	transition.Remove(j.intros...)
	return master, nil
}

// endsWithLastImage reports whether the fitted cycle still ends on the
// last image with its own fade-out.
func (j *job) endsWithLastImage() bool {
	return j.plan.FadeOutLastImage && !j.looped && !j.trimmed
}

func (j *job) join(ctx context.Context) error {
	switch {
	case len(j.intros) == 0:
		if j.visual.Path == "" {
			return failure.New(failure.ErrInvalidInput, StageJoin, "", media.ErrNoVisuals)
		}
		if j.cfg.FadeOut && !j.endsWithLastImage() {
			return j.fade(ctx, StageJoin, false, true)
		}
		return nil
	case j.visual.Path == "":
		return j.introsOnly(ctx)
	}

	intro, err := j.introMaster(ctx)
	if err != nil {
		return err
	}
	j.intros = nil

	if j.cfg.BlackFadeTransition {
		dst := j.path("joined", ".mp4")
		req := engine.BlackFadeJoinRequest{
			Intro:         intro.Path,
			Main:          j.visual.Path,
			Output:        dst,
			IntroDuration: intro.Duration,
			MainDuration:  j.visual.Duration,
			FinalFadeOut:  j.cfg.FadeOut,
			Encoder:       j.encoder,
		}
		if err := j.eng.Run(ctx, req); err != nil {
			_ = os.Remove(dst)
			return failure.New(failure.ErrTransition, StageJoin, intro.Path, err)
		}
		d, err := j.probes.Duration(ctx, dst)
		if err != nil {
			return probeFailure(StageJoin, dst, err)
		}
		transition.Remove(intro, j.visual)
		j.visual = media.Clip{Path: dst, Duration: d, HasFades: true}
		return nil
	}

	joined, err := j.chain.Concat(ctx, []media.Clip{intro, j.visual}, 0)
	if err != nil {
		return err
	}
	transition.Remove(intro, j.visual)
	j.visual = joined
	if j.cfg.FadeOut && !j.endsWithLastImage() {
		return j.fade(ctx, StageJoin, false, true)
	}
	return nil
}

// introsOnly fits the intros alone to the audio, trimming when they are
// longer and looping when there are no images to fill the rest.
func (j *job) introsOnly(ctx context.Context) error {
	intro, err := j.introMaster(ctx)
	if err != nil {
		return err
	}
	j.intros = nil
	if math.Abs(intro.Duration-j.audio.Duration) < frameTolerance {
		j.visual = intro
		return nil
	}
	fitted, err := j.fitter.Fit(ctx, intro, j.audio.Duration)
	if err != nil {
		return err
	}
	transition.Remove(intro)
	j.visual = fitted
	if j.cfg.FadeOut {
		return j.fade(ctx, StageJoin, false, true)
	}
	return nil
}

func (j *job) mixAudio(ctx context.Context) error {
	out := filepath.Join(j.workDir, "mix.mp3")
	req := engine.MixRequest{
		Main:             j.audio.Path,
		Background:       j.background,
		Output:           out,
		MainVolume:       j.cfg.MainVolume,
		BackgroundVolume: j.cfg.BackgroundVolume,
		Duration:         j.audio.Duration,
	}
	if err := j.eng.Run(ctx, req); err != nil {
		return failure.New(failure.ErrMix, StageMixAudio, j.audio.Path, err)
	}
	j.mix = out
	return nil
}

// finalMux writes the output through a pending file. The file only appears
// under its final name once the mux succeeded and the result probes.
func (j *job) finalMux(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(j.output), 0o755); err != nil {
		return failure.New(failure.ErrFinalMux, StageFinalMux, j.output, err)
	}
	pending, err := renameio.NewPendingFile(j.output, renameio.WithPermissions(0o644))
	if err != nil {
		return failure.New(failure.ErrFinalMux, StageFinalMux, j.output, err)
	}
	j.pending = pending

	req := engine.MuxRequest{
		Video:    j.visual.Path,
		Audio:    j.mix,
		Output:   pending.Name(),
		Duration: j.audio.Duration,
		Format:   engine.ContainerFormat(j.output),
	}
	if err := j.eng.Run(ctx, req); err != nil {
		return failure.New(failure.ErrFinalMux, StageFinalMux, j.output, err)
	}
	d, err := j.probes.Duration(ctx, pending.Name())
	if err != nil {
		return failure.New(failure.ErrFinalMux, StageFinalMux, j.output, err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return failure.New(failure.ErrFinalMux, StageFinalMux, j.output, err)
	}
	j.duration = d
	return nil
}

func (j *job) cleanup() {
	if j.pending != nil {
		_ = j.pending.Cleanup()
	}
}
