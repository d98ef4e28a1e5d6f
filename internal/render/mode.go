// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import (
	"fmt"
	"strings"

	"github.com/ManuGH/videostove/internal/media"
)

// Mode is the composition mode of a render.
type Mode int

const (
	Slideshow Mode = iota + 1
	Montage
	VideoCompilation
)

var modeAliases = map[string]Mode{
	"slideshow":         Slideshow,
	"images":            Slideshow,
	"image_slideshow":   Slideshow,
	"montage":           Montage,
	"mixed":             Montage,
	"videos_only":       VideoCompilation,
	"videos":            VideoCompilation,
	"video_compilation": VideoCompilation,
	"compilation":       VideoCompilation,
}

// ParseMode accepts the project type names and their aliases.
func ParseMode(s string) (Mode, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	key = strings.ReplaceAll(key, " ", "_")
	if m, ok := modeAliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown render mode %q", s)
}

// String returns the canonical project type name.
func (m Mode) String() string {
	switch m {
	case Slideshow:
		return "slideshow"
	case Montage:
		return "montage"
	case VideoCompilation:
		return "videos_only"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Needs returns what the mode requires from its inputs.
func (m Mode) Needs() media.Needs {
	switch m {
	case Slideshow:
		return media.Needs{Images: true}
	case VideoCompilation:
		return media.Needs{Videos: true}
	}
	return media.Needs{ImagesOrVideos: true}
}
