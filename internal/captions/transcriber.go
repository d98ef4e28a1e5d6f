// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
)

// ErrNoTranscriber is returned when captions are enabled but neither a
// command nor a sidecar transcript is configured.
var ErrNoTranscriber = errors.New("no transcriber configured")

// Transcriber turns speech into timed segments.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, wantWords bool) ([]Segment, error)
}

type transcript struct {
	Segments []Segment `json:"segments"`
}

// ParseTranscript decodes {"segments":[{text,start,end,words:[{word,start,end}]}]}.
// Segments and words with inverted timing are dropped.
func ParseTranscript(data []byte) ([]Segment, error) {
	var t transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	out := make([]Segment, 0, len(t.Segments))
	for _, s := range t.Segments {
		if s.End < s.Start {
			continue
		}
		words := s.Words[:0]
		for _, w := range s.Words {
			if w.End >= w.Start {
				words = append(words, w)
			}
		}
		s.Words = words
		out = append(out, s)
	}
	return out, nil
}

// FileTranscriber reads a transcript prepared ahead of time.
type FileTranscriber struct {
	Path string
}

func (t FileTranscriber) Transcribe(_ context.Context, _ string, _ bool) ([]Segment, error) {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}
	return ParseTranscript(data)
}

// CommandTranscriber runs an external speech-to-text CLI. Args may use the
// {input} and {output} placeholders; without {output} the transcript is
// read from stdout.
type CommandTranscriber struct {
	Command   string
	Args      []string
	WordsFlag string
	Grace     time.Duration
}

// NewCommandTranscriber builds a transcriber from config.
func NewCommandTranscriber(cfg config.TranscriberConfig, grace time.Duration) *CommandTranscriber {
	args := strings.Fields(cfg.Args)
	if len(args) == 0 {
		args = []string{"{input}"}
	}
	return &CommandTranscriber{Command: cfg.Command, Args: args, WordsFlag: cfg.WordsFlag, Grace: grace}
}

func (t *CommandTranscriber) Transcribe(ctx context.Context, audioPath string, wantWords bool) ([]Segment, error) {
	dir, err := os.MkdirTemp("", "videostove-transcript-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)
	out := filepath.Join(dir, "transcript.json")

	args := make([]string, 0, len(t.Args)+1)
	toFile := false
	for _, a := range t.Args {
		if strings.Contains(a, "{output}") {
			toFile = true
		}
		a = strings.ReplaceAll(a, "{input}", audioPath)
		args = append(args, strings.ReplaceAll(a, "{output}", out))
	}
	if wantWords && t.WordsFlag != "" {
		args = append(args, t.WordsFlag)
	}

	stdout, err := engine.Capture(ctx, t.Command, t.Grace, args...)
	if err != nil {
		return nil, fmt.Errorf("transcriber %s: %w", filepath.Base(t.Command), err)
	}
	if toFile {
		if stdout, err = os.ReadFile(out); err != nil {
			return nil, fmt.Errorf("transcriber %s wrote no transcript: %w", filepath.Base(t.Command), err)
		}
	}
	return ParseTranscript(stdout)
}

// SidecarPath is where a prepared transcript for video is looked up.
func SidecarPath(video string) string {
	return strings.TrimSuffix(video, filepath.Ext(video)) + ".json"
}

func transcriberFor(video string, cfg config.TranscriberConfig, grace time.Duration) (Transcriber, error) {
	switch {
	case cfg.Sidecar:
		return FileTranscriber{Path: SidecarPath(video)}, nil
	case cfg.Command != "":
		return NewCommandTranscriber(cfg, grace), nil
	}
	return nil, ErrNoTranscriber
}
