// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package transition joins clips into one, by stream-copy concatenation or
// by pairwise crossfades.
package transition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
)

const stage = "transition"

// Mode selects how consecutive clips are joined.
type Mode struct {
	Crossfade bool
	// Duration is the crossfade overlap in seconds.
	Duration float64
}

// Concatenate joins clips back to back.
func Concatenate() Mode { return Mode{} }

// Crossfade overlaps consecutive clips by d seconds.
func Crossfade(d float64) Mode { return Mode{Crossfade: true, Duration: d} }

func (m Mode) String() string {
	if m.Crossfade {
		return fmt.Sprintf("crossfade(%ss)", engine.Seconds(m.Duration))
	}
	return "concatenate"
}

// Chain assembles clips inside a render's working directory.
type Chain struct {
	eng     engine.Engine
	probes  *media.ProbeCache
	workDir string
	// encoder is used by the re-encoding concat fallback.
	encoder engine.Encoder
	seq     int
}

// NewChain creates a chain.
func NewChain(eng engine.Engine, probes *media.ProbeCache, workDir string, encoder engine.Encoder) *Chain {
	return &Chain{eng: eng, probes: probes, workDir: workDir, encoder: encoder}
}

func (c *Chain) path(prefix, ext string) string {
	c.seq++
	return filepath.Join(c.workDir, fmt.Sprintf("%s_%03d%s", prefix, c.seq, ext))
}

// Assemble joins clips into one new clip. The inputs are left in place.
func (c *Chain) Assemble(ctx context.Context, clips []media.Clip, mode Mode) (media.Clip, error) {
	if len(clips) == 0 {
		return media.Clip{}, failure.New(failure.ErrTransition, stage, "", errors.New("no clips to assemble"))
	}
	logger := log.WithComponentFromContext(ctx, stage)
	logger.Debug().Int("clips", len(clips)).Str(log.FieldMode, mode.String()).Msg("assembling clips")

	if len(clips) == 1 {
		return c.copyClip(clips[0])
	}
	if mode.Crossfade && mode.Duration > 0 {
		return c.crossfade(ctx, clips, mode.Duration)
	}
	return c.Concat(ctx, clips, 0)
}

// Concat joins clips by stream copy, falling back to a re-encoding concat
// filter when the copy fails. A positive limit trims the result.
func (c *Chain) Concat(ctx context.Context, clips []media.Clip, limit float64) (media.Clip, error) {
	if len(clips) == 0 {
		return media.Clip{}, failure.New(failure.ErrTransition, stage, "", errors.New("no clips to concatenate"))
	}
	paths := make([]string, len(clips))
	for i, cl := range clips {
		paths[i] = cl.Path
	}
	out := c.path("concat", ".mp4")
	list := c.path("concat", ".txt")
	defer os.Remove(list)

	if err := engine.WriteConcatList(list, paths); err != nil {
		return media.Clip{}, failure.New(failure.ErrTransition, stage, list, err)
	}
	copyErr := c.eng.Run(ctx, engine.ConcatRequest{ListPath: list, Output: out, Duration: limit})
	if copyErr == nil {
		return c.result(ctx, out)
	}
	if ctx.Err() != nil {
		return media.Clip{}, failure.Cancelled(stage, copyErr)
	}

	logger := log.WithComponentFromContext(ctx, stage)
	logger.Warn().Err(copyErr).Msg("stream copy concat failed, re-encoding")
	_ = os.Remove(out)
	filterErr := c.eng.Run(ctx, engine.ConcatFilterRequest{Inputs: paths, Output: out, Duration: limit, Encoder: c.encoder})
	if filterErr != nil {
		if ctx.Err() != nil {
			return media.Clip{}, failure.Cancelled(stage, filterErr)
		}
		return media.Clip{}, failure.New(failure.ErrTransition, "concat", out, errors.Join(copyErr, filterErr))
	}
	return c.result(ctx, out)
}

// crossfade runs strictly sequential pairwise xfades. Each step's offset is
// the accumulated duration minus the overlap, and the previous intermediate
// is removed once the next one exists.
func (c *Chain) crossfade(ctx context.Context, clips []media.Clip, d float64) (media.Clip, error) {
	current := clips[0].Path
	accumulated := clips[0].Duration
	intermediate := ""

	for k := 1; k < len(clips); k++ {
		if err := ctx.Err(); err != nil {
			return media.Clip{}, failure.Cancelled(stage, err)
		}
		out := c.path("xfade", ".mp4")
		req := engine.XfadeRequest{
			First:    current,
			Second:   clips[k].Path,
			Output:   out,
			Duration: d,
			Offset:   math.Max(0, accumulated-d),
		}
		if err := c.eng.Run(ctx, req); err != nil {
			_ = os.Remove(out)
			if intermediate != "" {
				_ = os.Remove(intermediate)
			}
			if ctx.Err() != nil {
				return media.Clip{}, failure.Cancelled(stage, err)
			}
			return media.Clip{}, failure.New(failure.ErrTransition, "xfade", clips[k].Path, err)
		}
		if intermediate != "" {
			_ = os.Remove(intermediate)
		}
		intermediate = out
		current = out
		accumulated = accumulated + clips[k].Duration - d
	}
	return c.result(ctx, current)
}

// result re-probes an assembled file for its actual duration.
func (c *Chain) result(ctx context.Context, path string) (media.Clip, error) {
	c.probes.Forget(path)
	d, err := c.probes.Duration(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return media.Clip{}, failure.Cancelled(stage, err)
		}
		return media.Clip{}, failure.New(failure.ErrTransition, stage, path, err)
	}
	return media.Clip{Path: path, Duration: d}, nil
}

// copyClip duplicates a single clip byte for byte without the engine.
func (c *Chain) copyClip(clip media.Clip) (media.Clip, error) {
	out := c.path("single", filepath.Ext(clip.Path))
	if err := copyFile(clip.Path, out); err != nil {
		return media.Clip{}, failure.New(failure.ErrTransition, "copy", clip.Path, err)
	}
	return media.Clip{Path: out, Duration: clip.Duration, HasFades: clip.HasFades}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Remove deletes the files of clips that have been superseded.
func Remove(clips ...media.Clip) {
	for _, cl := range clips {
		if cl.Path != "" {
			_ = os.Remove(cl.Path)
		}
	}
}
