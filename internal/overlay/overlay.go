// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package overlay composites a looping overlay video onto a base clip. It
// degrades instead of failing: any problem yields the unmodified base.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/metrics"
)

const stage = "overlay"

// Mode is the blend kind and overlay opacity.
type Mode struct {
	Kind    engine.BlendMode
	Opacity float64
}

// ParseKind accepts "simple", "screen_blend" and "screen".
func ParseKind(s string) (engine.BlendMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "simple":
		return engine.BlendSimple, nil
	case "screen_blend", "screen":
		return engine.BlendScreen, nil
	}
	return "", fmt.Errorf("unknown overlay mode %q", s)
}

// Outcome reports whether the overlay was applied. Err is set, wrapping
// failure.ErrOverlayDegraded, when the base was returned unmodified.
type Outcome struct {
	Applied bool
	Err     error
}

// Compositor applies overlays inside a working directory.
type Compositor struct {
	eng     engine.Engine
	probes  *media.ProbeCache
	workDir string
	encoder engine.Encoder
	seq     int
}

// NewCompositor creates a compositor.
func NewCompositor(eng engine.Engine, probes *media.ProbeCache, workDir string, encoder engine.Encoder) *Compositor {
	return &Compositor{eng: eng, probes: probes, workDir: workDir, encoder: encoder}
}

// Apply layers overlay over base for target seconds. It never returns an
// error; on failure the base clip comes back untouched.
func (c *Compositor) Apply(ctx context.Context, base media.Clip, overlay string, mode Mode, target float64) (media.Clip, Outcome) {
	if target <= 0 {
		target = base.Duration
	}
	if err := c.check(ctx, overlay); err != nil {
		return c.degrade(ctx, base, overlay, mode, err)
	}

	c.seq++
	out := filepath.Join(c.workDir, fmt.Sprintf("overlay_%03d.mp4", c.seq))
	req := engine.BlendRequest{
		Base:    base.Path,
		Overlay: overlay,
		Output:  out,
		Mode:    mode.Kind,
		Opacity: mode.Opacity,
		Target:  target,
		Encoder: c.encoder,
	}
	if err := c.eng.Run(ctx, req); err != nil {
		_ = os.Remove(out)
		return c.degrade(ctx, base, overlay, mode, err)
	}
	return media.Clip{Path: out, Duration: target, HasFades: base.HasFades}, Outcome{Applied: true}
}

func (c *Compositor) check(ctx context.Context, overlay string) error {
	if overlay == "" {
		return errors.New("no overlay selected")
	}
	if _, err := os.Stat(overlay); err != nil {
		return err
	}
	_, err := c.probes.Duration(ctx, overlay)
	return err
}

func (c *Compositor) degrade(ctx context.Context, base media.Clip, overlay string, mode Mode, cause error) (media.Clip, Outcome) {
	err := failure.New(failure.ErrOverlayDegraded, stage, overlay, cause)
	logger := log.WithComponentFromContext(ctx, stage)
	logger.Warn().
		Err(err).
		Str("blend", string(mode.Kind)).
		Str(log.FieldPath, base.Path).
		Msg("overlay skipped, continuing with base clip")
	metrics.IncOverlayDegraded(string(mode.Kind))
	return base, Outcome{Err: err}
}
