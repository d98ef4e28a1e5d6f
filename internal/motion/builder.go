// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package motion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/metrics"
)

// Options controls clip generation for one render.
type Options struct {
	Encoder engine.Encoder
	FadeIn  bool
	FadeOut bool
	// Extended replaces every per-image effect when set.
	Extended *Effect
}

// Builder renders motion clips into a working directory.
type Builder struct {
	eng     engine.Engine
	workDir string
	opts    Options
	seq     int
}

// NewBuilder creates a builder writing into workDir.
func NewBuilder(eng engine.Engine, workDir string, opts Options) *Builder {
	return &Builder{eng: eng, workDir: workDir, opts: opts}
}

// Resolve parses a direction name, logging and counting normalizations.
func (b *Builder) Resolve(ctx context.Context, direction string) Effect {
	e, norm := ParseDirection(direction)
	if norm != nil {
		logger := log.WithComponentFromContext(ctx, "motion")
		logger.Warn().
			Str("input", norm.Input).
			Str("reason", norm.Reason).
			Str(log.FieldEffect, e.String()).
			Msg("motion direction normalized")
		metrics.IncMotionNormalization()
	}
	return e
}

// Build renders image as a clip of exactly duration seconds. Fade-in is
// applied only to the first clip and fade-out only to the last, each when
// enabled.
func (b *Builder) Build(ctx context.Context, image string, effect Effect, duration float64, isFirst, isLast bool) (media.Clip, error) {
	if duration <= 0 {
		return media.Clip{}, failure.New(failure.ErrInvalidDuration, "motion", image, fmt.Errorf("duration %v", duration))
	}
	if _, err := os.Stat(image); err != nil {
		return media.Clip{}, failure.New(failure.ErrClipBuild, "motion", image, err)
	}
	if b.opts.Extended != nil {
		effect = *b.opts.Extended
	}

	b.seq++
	out := filepath.Join(b.workDir, fmt.Sprintf("motion_%03d.mp4", b.seq))
	req := engine.MotionRequest{
		Image:    image,
		Output:   out,
		Duration: duration,
		Motion:   effect,
		FadeIn:   isFirst && b.opts.FadeIn,
		FadeOut:  isLast && b.opts.FadeOut,
		Encoder:  b.opts.Encoder,
	}
	logger := log.WithComponentFromContext(ctx, "motion")
	logger.Debug().
		Str(log.FieldPath, image).
		Str(log.FieldEffect, effect.String()).
		Float64(log.FieldDuration, duration).
		Msg("building motion clip")

	if err := b.eng.Run(ctx, req); err != nil {
		if ctx.Err() != nil {
			return media.Clip{}, failure.Cancelled("motion", err)
		}
		return media.Clip{}, failure.New(failure.ErrClipBuild, "motion", image, err)
	}
	return media.Clip{Path: out, Duration: duration, HasFades: req.FadeIn || req.FadeOut}, nil
}
