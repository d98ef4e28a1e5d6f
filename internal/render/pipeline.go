// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/metrics"
	"github.com/ManuGH/videostove/internal/telemetry"
)

// Stage names, also used as metric and span labels.
const (
	StageProcessAudio     = "process_audio"
	StageIntroVideos      = "intro_videos"
	StageProcessVideos    = "process_videos"
	StageMotionClips      = "motion_clips"
	StageAssembleCycle    = "assemble_cycle"
	StageAssembleSequence = "assemble_sequence"
	StageOverlay          = "overlay"
	StageLoopFit          = "loop_fit"
	StageJoin             = "join"
	StageFades            = "fades"
	StageMixAudio         = "mix_audio"
	StageFinalMux         = "final_mux"
)

type stage struct {
	name string
	run  func(*job, context.Context) error
}

// Pipeline is the ordered stage list of one mode. Stages never go back.
type Pipeline struct {
	Mode   Mode
	stages []stage
}

// PipelineFor returns the pipeline of m.
func PipelineFor(m Mode) Pipeline {
	var stages []stage
	switch m {
	case Slideshow:
		stages = []stage{
			{StageProcessAudio, (*job).processAudio},
			{StageMotionClips, (*job).motionClips},
			{StageAssembleCycle, (*job).assembleCycle},
			{StageOverlay, (*job).applyOverlay},
			{StageLoopFit, (*job).loopFit},
			{StageFades, (*job).finalFades},
		}
	case Montage:
		stages = []stage{
			{StageProcessAudio, (*job).processAudio},
			{StageIntroVideos, (*job).introVideos},
			{StageMotionClips, (*job).motionClips},
			{StageAssembleCycle, (*job).assembleCycle},
			{StageOverlay, (*job).applyOverlay},
			{StageLoopFit, (*job).loopFit},
			{StageJoin, (*job).join},
		}
	case VideoCompilation:
		stages = []stage{
			{StageProcessAudio, (*job).processAudio},
			{StageProcessVideos, (*job).processVideos},
			{StageAssembleSequence, (*job).assembleSequence},
			{StageLoopFit, (*job).loopFit},
			{StageOverlay, (*job).applyOverlay},
			{StageFades, (*job).finalFades},
		}
	}
	if stages != nil {
		stages = append(stages,
			stage{StageMixAudio, (*job).mixAudio},
			stage{StageFinalMux, (*job).finalMux})
	}
	return Pipeline{Mode: m, stages: stages}
}

// Stages lists the stage names in order.
func (p Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.name
	}
	return names
}

func (p Pipeline) run(ctx context.Context, j *job, progress func(Progress)) error {
	for i, st := range p.stages {
		if err := ctx.Err(); err != nil {
			return failure.Cancelled(st.name, err)
		}
		if progress != nil {
			progress(Progress{RenderID: j.id, Project: j.name, Stage: st.name, Index: i, Total: len(p.stages)})
		}
		if err := j.runStage(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (j *job) runStage(ctx context.Context, st stage) (err error) {
	ctx, span := telemetry.Tracer("videostove/render").Start(ctx, "render."+st.name,
		trace.WithAttributes(telemetry.StageAttributes(st.name, j.mode.String())...))
	logger := log.WithComponentFromContext(ctx, "render").With().Str(log.FieldStage, st.name).Logger()
	start := time.Now()
	logger.Debug().Msg("stage started")

	err = st.run(j, ctx)
	if err != nil && ctx.Err() != nil && !errors.Is(err, failure.ErrCancelled) {
		err = failure.New(failure.ErrCancelled, st.name, "", err)
	}

	elapsed := time.Since(start)
	metrics.ObserveStage(j.mode.String(), st.name, elapsed)
	telemetry.EndSpan(span, err)
	if err != nil {
		logger.Debug().Err(err).Msg("stage failed")
		return err
	}
	logger.Debug().Float64(log.FieldDuration, elapsed.Seconds()).Msg("stage finished")
	return nil
}
