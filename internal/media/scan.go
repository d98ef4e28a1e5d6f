// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var (
	skipDirs           = map[string]bool{"assets": true, "out": true, "outputs": true, "__pycache__": true, ".git": true, ".vscode": true}
	overlayKeywords    = []string{"overlay", "effect", "particle", "fx"}
	backgroundKeywords = []string{"bg", "background", "music", "ambient"}
)

func hasKeyword(path string, keywords []string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, k := range keywords {
		if strings.Contains(name, k) {
			return true
		}
	}
	return false
}

// Scan is the media found in one project directory.
type Scan struct {
	Dir    string
	Images []string
	// Videos excludes overlay candidates.
	Videos   []string
	Overlays []string
	Audio    []string

	MainAudio       string
	BackgroundMusic string
	TotalSize       int64
}

// ScanProject walks dir recursively, skipping output and asset directories.
func ScanProject(dir string) (Scan, error) {
	s := Scan{Dir: dir}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		kind, ok := KindOf(path)
		if !ok {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			s.TotalSize += fi.Size()
		}
		switch kind {
		case KindImage:
			s.Images = append(s.Images, path)
		case KindVideo:
			if hasKeyword(path, overlayKeywords) {
				s.Overlays = append(s.Overlays, path)
			} else {
				s.Videos = append(s.Videos, path)
			}
		case KindAudio:
			s.Audio = append(s.Audio, path)
		}
		return nil
	})
	if err != nil {
		return Scan{}, fmt.Errorf("scan %s: %w", dir, err)
	}

	for _, list := range [][]string{s.Images, s.Videos, s.Overlays, s.Audio} {
		slices.SortFunc(list, NaturalCompare)
	}
	s.MainAudio = selectMainAudio(s.Audio)
	s.BackgroundMusic = selectBackground(s.Audio, s.MainAudio)
	return s, nil
}

// selectMainAudio prefers a file whose name contains "main".
func selectMainAudio(audio []string) string {
	for _, a := range audio {
		stem := strings.TrimSuffix(filepath.Base(a), filepath.Ext(a))
		if strings.Contains(strings.ToLower(stem), "main") {
			return a
		}
	}
	if len(audio) > 0 {
		return audio[0]
	}
	return ""
}

// selectBackground picks a keyword match among the non-main audio files,
// falling back to the first of them.
func selectBackground(audio []string, main string) string {
	var rest []string
	for _, a := range audio {
		if a != main {
			rest = append(rest, a)
		}
	}
	for _, a := range rest {
		if hasKeyword(a, backgroundKeywords) {
			return a
		}
	}
	if len(rest) > 0 {
		return rest[0]
	}
	return ""
}

// InputOptions selects the optional layers taken from a scan.
type InputOptions struct {
	BackgroundMusic bool
	Overlay         bool
	// Explicit files override the scanned ones when set.
	BackgroundPath string
	OverlayPath    string
}

// Inputs converts the scan into render inputs.
func (s Scan) Inputs(opts InputOptions) ProjectInputs {
	var in ProjectInputs
	for _, p := range s.Images {
		in.Images = append(in.Images, Asset{Path: p, Kind: KindImage})
	}
	for _, p := range s.Videos {
		in.Videos = append(in.Videos, Asset{Path: p, Kind: KindVideo})
	}
	if s.MainAudio != "" {
		in.MainAudio = &Asset{Path: s.MainAudio, Kind: KindAudio}
	}
	if opts.BackgroundMusic {
		bg := s.BackgroundMusic
		if opts.BackgroundPath != "" {
			bg = opts.BackgroundPath
		}
		if bg != "" {
			in.BackgroundMusic = &Asset{Path: bg, Kind: KindAudio}
		}
	}
	if opts.Overlay {
		ov := opts.OverlayPath
		if ov == "" && len(s.Overlays) > 0 {
			ov = s.Overlays[0]
		}
		if ov != "" {
			in.Overlay = &Asset{Path: ov, Kind: KindVideo}
		}
	}
	return in
}

// Eligibility is the verdict of a project for a render mode.
type Eligibility struct {
	Eligible bool
	Reason   string
}

// Eligibility reports whether the scan qualifies for mode. Slideshows need
// images and no videos; montages and compilations need at least one video.
func (s Scan) Eligibility(mode string) Eligibility {
	images, videos := len(s.Images), len(s.Videos)
	switch mode {
	case "slideshow":
		switch {
		case images >= 1 && videos == 0:
			return Eligibility{true, fmt.Sprintf("%d images, no videos", images)}
		case videos > 0:
			return Eligibility{false, fmt.Sprintf("contains %d videos (slideshow requires images only)", videos)}
		}
		return Eligibility{false, "no images found"}
	case "montage", "videos_only":
		if videos == 0 {
			return Eligibility{false, fmt.Sprintf("no videos found (required for %s)", mode)}
		}
		if images > 0 {
			return Eligibility{true, fmt.Sprintf("%d videos, %d images", videos, images)}
		}
		return Eligibility{true, fmt.Sprintf("%d videos", videos)}
	}
	return Eligibility{false, fmt.Sprintf("unknown mode %q", mode)}
}

// ListProjects returns the immediate subdirectories of root that may hold
// projects, naturally sorted.
func ListProjects(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() && !skipDirs[e.Name()] && !strings.HasPrefix(e.Name(), ".") {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	slices.SortFunc(dirs, NaturalCompare)
	return dirs, nil
}
