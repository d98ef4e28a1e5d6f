// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package loopfit stretches or trims a clip to an exact target duration by
// stream-copy looping.
package loopfit

import (
	"context"
	"fmt"
	"math"
	"path/filepath"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
)

const stage = "loop_fit"

// Plan returns how many passes over a cycle of cycleDur seconds cover
// target. Zero means the cycle is long enough and only needs trimming.
func Plan(cycleDur, target float64) (int, error) {
	if target <= 0 {
		return 0, failure.New(failure.ErrInvalidDuration, stage, "", fmt.Errorf("target %v", target))
	}
	if cycleDur <= 0 {
		return 0, failure.New(failure.ErrInvalidDuration, stage, "", fmt.Errorf("cycle duration %v", cycleDur))
	}
	if target <= cycleDur {
		return 0, nil
	}
	return int(math.Ceil(target / cycleDur)), nil
}

// Fitter runs loop fits inside a working directory.
type Fitter struct {
	eng     engine.Engine
	workDir string
	seq     int
}

// NewFitter creates a fitter.
func NewFitter(eng engine.Engine, workDir string) *Fitter {
	return &Fitter{eng: eng, workDir: workDir}
}

// Fit produces a clip of exactly target seconds from cycle. The cycle is
// repeated by the engine's input looping, never by copying it on disk.
func (f *Fitter) Fit(ctx context.Context, cycle media.Clip, target float64) (media.Clip, error) {
	loops, err := Plan(cycle.Duration, target)
	if err != nil {
		return media.Clip{}, err
	}
	f.seq++
	out := filepath.Join(f.workDir, fmt.Sprintf("fit_%03d.mp4", f.seq))

	logger := log.WithComponentFromContext(ctx, "loopfit")
	logger.Debug().
		Float64(log.FieldDuration, cycle.Duration).
		Float64(log.FieldTarget, target).
		Int(log.FieldLoops, loops).
		Msg("fitting clip")

	req := engine.LoopTrimRequest{Input: cycle.Path, Output: out, Loops: loops, Target: target}
	if err := f.eng.Run(ctx, req); err != nil {
		if ctx.Err() != nil {
			return media.Clip{}, failure.Cancelled(stage, err)
		}
		return media.Clip{}, failure.New(failure.ErrTransition, stage, cycle.Path, err)
	}
	return media.Clip{Path: out, Duration: target, HasFades: cycle.HasFades && loops == 0}, nil
}
