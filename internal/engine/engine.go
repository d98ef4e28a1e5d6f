// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package engine is the only place that knows the transcoding engine's
// argument syntax. Every capability is a request value with Args and
// Describe; a Runner executes requests as supervised processes.
package engine

import (
	"context"
	"fmt"
	"strings"
)

// Canonical output profile shared by every generated clip so that clips can
// be joined by stream copy.
const (
	FrameWidth   = 1920
	FrameHeight  = 1080
	FPS          = 25
	FadeDuration = 0.5
	PixelFormat  = "yuv420p"
)

// Request is one engine invocation.
type Request interface {
	// Kind is a short stable label used in logs and metrics.
	Kind() string
	// Args are the request-specific engine arguments, output path last.
	Args() []string
	// Describe is a one-line human summary.
	Describe() string
}

// Engine runs requests. *Runner is the production implementation;
// enginetest.Fake records requests instead.
type Engine interface {
	Run(ctx context.Context, req Request) error
}

// RunError is returned when the engine process exits non-zero.
type RunError struct {
	Kind     string
	ExitCode int
	// Tail holds the last stderr lines of the process.
	Tail []string
	Err  error
}

func (e *RunError) Error() string {
	msg := fmt.Sprintf("engine %s failed (exit %d): %v", e.Kind, e.ExitCode, e.Err)
	if len(e.Tail) > 0 {
		msg += ": " + e.Tail[len(e.Tail)-1]
	}
	return msg
}

func (e *RunError) Unwrap() error { return e.Err }

// Diagnostics joins the captured stderr tail for logging.
func (e *RunError) Diagnostics() string {
	return strings.Join(e.Tail, "\n")
}
