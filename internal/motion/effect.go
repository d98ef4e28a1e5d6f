// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package motion turns still images into fixed-length motion clips.
package motion

import (
	"math/rand/v2"
	"strings"

	"github.com/ManuGH/videostove/internal/engine"
)

// Effect is the camera move applied to one image.
type Effect = engine.Motion

var (
	NoMotion = Effect{Kind: engine.MotionNone}
	ZoomIn   = Effect{Kind: engine.MotionZoomIn}
	ZoomOut  = Effect{Kind: engine.MotionZoomOut}
	PanLeft  = Effect{Kind: engine.MotionPanLeft}
	PanRight = Effect{Kind: engine.MotionPanRight}
	PanUp    = Effect{Kind: engine.MotionPanUp}
	PanDown  = Effect{Kind: engine.MotionPanDown}
)

// ExtendedZoom is a zoom with a configurable direction and depth.
func ExtendedZoom(direction string, amountPercent float64) Effect {
	return Effect{Kind: engine.MotionExtendedZoom, Direction: direction, AmountPercent: amountPercent}
}

// Direction names as used by animation styles.
const (
	DirRight    = "right"
	DirLeft     = "left"
	DirDown     = "down"
	DirUp       = "up"
	DirZoomIn   = "zoom_in"
	DirZoomOut  = "zoom_out"
	DirNoMotion = "no_motion"
)

var panRotation = []string{DirRight, DirLeft, DirDown, DirUp}

// Style is an animation style.
type Style string

const (
	Sequential  Style = "sequential"
	ZoomInOnly  Style = "zoom_in_only"
	ZoomOutOnly Style = "zoom_out_only"
	PanOnly     Style = "pan_only"
	NoAnimation Style = "no_animation"
	Random      Style = "random"
)

var styleNames = map[string]Style{
	"sequential motion": Sequential, "sequential": Sequential,
	"zoom in only": ZoomInOnly, "zoom in": ZoomInOnly, "zoom_in_only": ZoomInOnly,
	"zoom out only": ZoomOutOnly, "zoom out": ZoomOutOnly, "zoom_out_only": ZoomOutOnly,
	"pan only": PanOnly, "pan": PanOnly, "pan_only": PanOnly,
	"no animation": NoAnimation, "none": NoAnimation, "no_animation": NoAnimation,
	"random motion": Random, "random": Random,
}

// ParseStyle accepts display names ("Zoom In Only") and identifiers
// ("zoom_in_only"). Unknown styles report false and yield Sequential.
func ParseStyle(s string) (Style, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return Sequential, true
	}
	st, ok := styleNames[key]
	if !ok {
		return Sequential, false
	}
	return st, true
}

// PickDirection names the move for image i of n under style. rng is used
// by Random only.
func PickDirection(style Style, i, n int, rng *rand.Rand) string {
	switch style {
	case ZoomInOnly:
		return DirZoomIn
	case ZoomOutOnly:
		return DirZoomOut
	case PanOnly:
		return DirRight
	case NoAnimation:
		return DirNoMotion
	case Random:
		choices := append(append([]string(nil), panRotation...), DirZoomIn, DirZoomOut)
		return choices[rng.IntN(len(choices))]
	}
	if n <= 1 || i == 0 {
		return DirZoomIn
	}
	if i == n-1 {
		return DirZoomOut
	}
	return panRotation[(i-1)%len(panRotation)]
}

// PickEffect is PickDirection resolved to an Effect.
func PickEffect(style Style, i, n int, rng *rand.Rand) Effect {
	e, _ := ParseDirection(PickDirection(style, i, n, rng))
	return e
}

// Normalization records a direction that had to be replaced by the default.
type Normalization struct {
	Input  string
	Reason string
}

var directions = map[string]Effect{
	DirRight: PanRight, "pan_right": PanRight,
	DirLeft: PanLeft, "pan_left": PanLeft,
	DirDown: PanDown, "pan_down": PanDown,
	DirUp: PanUp, "pan_up": PanUp,
	DirZoomIn: ZoomIn, "in": ZoomIn,
	DirZoomOut: ZoomOut, "out": ZoomOut,
	DirNoMotion: NoMotion, "none": NoMotion,
}

// ParseDirection resolves a direction name. Unknown or empty names resolve
// to PanRight together with a Normalization describing the substitution.
func ParseDirection(s string) (Effect, *Normalization) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return PanRight, &Normalization{Input: s, Reason: "empty direction"}
	}
	if e, ok := directions[key]; ok {
		return e, nil
	}
	return PanRight, &Normalization{Input: s, Reason: "unknown direction"}
}
