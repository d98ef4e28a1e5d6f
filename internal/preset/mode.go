// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package preset

import (
	"slices"
	"strings"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
)

// modeHints are matched as substrings, longest first, so "videos" wins
// over "video".
var modeHints = []struct{ hint, mode string }{
	{"slides", "slideshow"},
	{"photos", "slideshow"},
	{"images", "slideshow"},
	{"videos", "videos_only"},
	{"slide", "slideshow"},
	{"video", "montage"},
	{"movie", "montage"},
	{"clip", "montage"},
}

// Source tells how a mode was decided.
type Source string

const (
	SourcePreset  Source = "preset"
	SourceAlias   Source = "alias"
	SourceScan    Source = "scan"
	SourceDefault Source = "default"
)

// DetectMode resolves the render mode for projectType. Unrecognised types
// fall back to scanning projectDir: any video means montage, otherwise
// slideshow. Without a usable directory the mode is montage.
func DetectMode(projectType, projectDir string) (string, Source) {
	pt := strings.ToLower(strings.TrimSpace(projectType))
	if slices.Contains(config.ProjectTypes, pt) {
		return pt, SourcePreset
	}
	if pt != "" {
		for _, h := range modeHints {
			if strings.Contains(pt, h.hint) {
				return h.mode, SourceAlias
			}
		}
	}
	if projectDir != "" {
		scan, err := media.ScanProject(projectDir)
		if err == nil {
			if len(scan.Videos) > 0 {
				return "montage", SourceScan
			}
			return "slideshow", SourceScan
		}
		logger := log.WithComponent("preset")
		logger.Debug().Err(err).Str(log.FieldPath, projectDir).Msg("mode scan failed")
	}
	return "montage", SourceDefault
}

// Mode resolves the profile's mode, see DetectMode.
func (p Profile) Mode(projectDir string) (string, Source) {
	var pt string
	if p.Settings.ProjectType != nil {
		pt = *p.Settings.ProjectType
	}
	return DetectMode(pt, projectDir)
}
