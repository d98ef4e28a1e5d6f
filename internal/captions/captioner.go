// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/metrics"
)

// Options configure a Captioner.
type Options struct {
	Engine  engine.Engine
	Encoder engine.Encoder
	// WorkRoot holds scratch directories. Empty means the system temp dir.
	WorkRoot  string
	FontsDir  string
	KillGrace time.Duration
	// Transcriber replaces the one selected from config when set.
	Transcriber Transcriber
}

// Captioner burns captions into finished videos.
type Captioner struct {
	opts Options
}

func New(opts Options) *Captioner {
	return &Captioner{opts: opts}
}

// Apply transcribes videoPath, burns the cues in and replaces the file
// atomically. A transcript without speech leaves the video untouched.
func (c *Captioner) Apply(ctx context.Context, videoPath string, cfg config.CaptionsConfig) error {
	if !cfg.Enabled {
		return nil
	}
	logger := log.WithComponentFromContext(ctx, "captions")

	pacing, err := ParsePacing(cfg.Pacing)
	if err != nil {
		return err
	}
	tr := c.opts.Transcriber
	if tr == nil {
		if tr, err = transcriberFor(videoPath, cfg.Transcriber, c.opts.KillGrace); err != nil {
			return err
		}
	}

	dir, err := os.MkdirTemp(c.opts.WorkRoot, "captions-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	audio := filepath.Join(dir, "speech.wav")
	if err := c.opts.Engine.Run(ctx, engine.ExtractAudioRequest{Input: videoPath, Output: audio}); err != nil {
		return fmt.Errorf("extract audio: %w", err)
	}
	segments, err := tr.Transcribe(ctx, audio, cfg.Karaoke || pacing.NeedsWords())
	if err != nil {
		return fmt.Errorf("transcribe: %w", err)
	}

	var (
		subs   string
		force  string
		count  int
		policy = string(pacing)
	)
	if cfg.Karaoke {
		lines := KaraokeDialogues(Words(segments))
		if len(lines) == 0 {
			logger.Info().Msg("no timed words in transcript, captions skipped")
			return nil
		}
		subs = filepath.Join(dir, "captions.ass")
		if err := WriteASS(subs, ASSHeader(cfg.Custom), lines); err != nil {
			return err
		}
		count, policy = len(lines), "karaoke"
	} else {
		cues := BuildCues(segments, pacing, CueOptions{MaxCharsPerLine: cfg.MaxCharsPerLine, MinGap: cfg.MinGap})
		if len(cues) == 0 {
			logger.Info().Msg("no speech in transcript, captions skipped")
			return nil
		}
		subs = filepath.Join(dir, "captions.srt")
		if err := WriteSRT(subs, cues); err != nil {
			return err
		}
		force = ForceStyle(ParseStyle(cfg.Style), cfg.Custom)
		count = len(cues)
	}

	pending, err := renameio.NewPendingFile(videoPath, renameio.WithPermissions(0o644))
	if err != nil {
		return err
	}
	defer func() { _ = pending.Cleanup() }()

	req := engine.SubtitleBurnRequest{
		Input:      videoPath,
		Subtitles:  subs,
		Output:     pending.Name(),
		ForceStyle: force,
		FontsDir:   c.opts.FontsDir,
		Encoder:    c.opts.Encoder,
		Format:     engine.ContainerFormat(videoPath),
	}
	if err := c.opts.Engine.Run(ctx, req); err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return err
	}

	metrics.AddCaptionCues(policy, count)
	logger.Info().
		Str(log.FieldPath, videoPath).
		Str("pacing", policy).
		Int("cues", count).
		Msg("captions burned")
	return nil
}
