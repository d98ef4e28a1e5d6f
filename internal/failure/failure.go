// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package failure defines the render error taxonomy.
package failure

import (
	"context"
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at pipeline boundaries.
	ErrProbe           = errors.New("probe failed")
	ErrClipBuild       = errors.New("clip build failed")
	ErrTransition      = errors.New("transition failed")
	ErrOverlayDegraded = errors.New("overlay degraded")
	ErrMix             = errors.New("audio mix failed")
	ErrFinalMux        = errors.New("final mux failed")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrCancelled       = errors.New("render cancelled")
	ErrInvalidInput    = errors.New("invalid render input")
)

// Error wraps a sentinel with the stage and media path it occurred on.
type Error struct {
	Sentinel error
	Stage    string
	Path     string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Sentinel.Error()
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// New builds an *Error for the given sentinel.
func New(sentinel error, stage, path string, err error) *Error {
	return &Error{Sentinel: sentinel, Stage: stage, Path: path, Err: err}
}

// Cancelled converts a context error into ErrCancelled for the given stage.
// Errors that are not context cancellations are returned unchanged.
func Cancelled(stage string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrCancelled) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return New(ErrCancelled, stage, "", err)
	}
	return err
}

// Kind returns a short label for the sentinel carried by err, used for metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrClipBuild):
		return "clip_build"
	case errors.Is(err, ErrTransition):
		return "transition"
	case errors.Is(err, ErrMix):
		return "mix"
	case errors.Is(err, ErrFinalMux):
		return "final_mux"
	case errors.Is(err, ErrInvalidDuration):
		return "invalid_duration"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrOverlayDegraded):
		return "overlay_degraded"
	default:
		return "internal"
	}
}
