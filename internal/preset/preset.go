// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package preset loads render presets exported by the desktop tool.
//
// Three file layouts are accepted:
//
//	{"preset": {"name": {...}, ...}}   export format
//	{"name": {...}, "metadata": ...}   direct profile collection
//	{"project_type": "...", ...}       a single configuration
package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ManuGH/videostove/internal/log"
)

var (
	ErrNoProfiles       = errors.New("no valid preset profiles found")
	ErrProfileNotFound  = errors.New("preset profile not found")
	ErrAmbiguousProfile = errors.New("preset holds several profiles, one must be named")
)

// knownKeys are the settings that identify a single-configuration file.
var knownKeys = []string{
	"project_type", "image_duration", "main_audio_vol", "bg_vol",
	"crossfade_duration", "use_crossfade", "use_overlay", "use_bg_music",
	"use_gpu", "use_fade_in", "use_fade_out", "overlay_opacity", "crf",
	"preset", "videos_as_intro_only", "overlay_mode", "extended_zoom_enabled",
	"extended_zoom_direction", "extended_zoom_amount", "single_image_zoom",
	"captions_enabled", "caption_style", "animation_style", "loop_videos",
	"use_videos", "auto_clear_console",
}

// Profile is one named configuration from a preset file.
type Profile struct {
	Name string
	// Raw keeps the undecoded JSON object for validation and summaries.
	Raw      map[string]json.RawMessage
	Settings Settings
}

// File is a parsed preset file.
type File struct {
	Path     string
	Profiles map[string]Profile
}

// Names returns the profile names in sorted order.
func (f File) Names() []string {
	names := make([]string, 0, len(f.Profiles))
	for n := range f.Profiles {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Load reads and parses a preset file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("load preset: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("preset %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse detects the layout of data and decodes every profile.
func Parse(data []byte) (File, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return File{}, fmt.Errorf("invalid JSON: %w", err)
	}

	raw, err := extractProfiles(top)
	if err != nil {
		return File{}, err
	}
	f := File{Profiles: make(map[string]Profile, len(raw))}
	for name, body := range raw {
		p, err := decodeProfile(name, body)
		if err != nil {
			return File{}, err
		}
		f.Profiles[name] = p
	}
	return f, nil
}

func extractProfiles(top map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if wrapped, ok := top["preset"]; ok && isObject(wrapped) {
		var profiles map[string]json.RawMessage
		if err := json.Unmarshal(wrapped, &profiles); err != nil {
			return nil, fmt.Errorf("decode preset wrapper: %w", err)
		}
		if len(profiles) == 0 {
			return nil, ErrNoProfiles
		}
		return profiles, nil
	}

	profiles := make(map[string]json.RawMessage)
	direct := true
	for k, v := range top {
		if strings.HasPrefix(k, "metadata") {
			continue
		}
		if !isObject(v) {
			direct = false
			break
		}
		profiles[k] = v
	}
	if direct && len(profiles) > 0 {
		return profiles, nil
	}

	for _, k := range knownKeys {
		if _, ok := top[k]; ok {
			body, err := json.Marshal(top)
			if err != nil {
				return nil, err
			}
			return map[string]json.RawMessage{"default": body}, nil
		}
	}
	return nil, ErrNoProfiles
}

func isObject(v json.RawMessage) bool {
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '{'
}

func decodeProfile(name string, body json.RawMessage) (Profile, error) {
	p := Profile{Name: name}
	if err := json.Unmarshal(body, &p.Raw); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	if err := json.Unmarshal(body, &p.Settings); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}
	return p, nil
}

// Select returns the named profile. An empty name is allowed only when the
// file holds exactly one profile.
func (f File) Select(name string) (Profile, error) {
	if name != "" {
		p, ok := f.Profiles[name]
		if !ok {
			return Profile{}, fmt.Errorf("%w: %q (available: %s)", ErrProfileNotFound, name, strings.Join(f.Names(), ", "))
		}
		return p, nil
	}
	if len(f.Profiles) == 1 {
		for _, p := range f.Profiles {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %s", ErrAmbiguousProfile, strings.Join(f.Names(), ", "))
}

// SplitRef splits "file.json:profile" into its parts. A Windows drive
// letter is not mistaken for a profile separator.
func SplitRef(ref string) (path, profile string) {
	i := strings.LastIndex(ref, ":")
	if i <= 1 || strings.ContainsAny(ref[i+1:], `/\`) {
		return ref, ""
	}
	return ref[:i], ref[i+1:]
}

// LoadRef loads "path" or "path:profile".
func LoadRef(ref string) (Profile, error) {
	path, name := SplitRef(ref)
	f, err := Load(path)
	if err != nil {
		return Profile{}, err
	}
	return f.Select(name)
}

// Entry is a selectable preset found on disk.
type Entry struct {
	// Name is the file stem, or "stem:profile" for multi-profile files.
	Name    string
	Path    string
	Profile string
}

// Find lists the presets in dirs. Missing directories and unreadable or
// invalid files are skipped.
func Find(dirs []string) []Entry {
	logger := log.WithComponent("preset")
	var out []Entry
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
		if err != nil {
			continue
		}
		for _, path := range matches {
			f, err := Load(path)
			if err != nil {
				logger.Debug().Err(err).Str(log.FieldPath, path).Msg("skipping preset")
				continue
			}
			stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if len(f.Profiles) == 1 {
				out = append(out, Entry{Name: stem, Path: path})
				continue
			}
			for _, n := range f.Names() {
				out = append(out, Entry{Name: stem + ":" + n, Path: path, Profile: n})
			}
		}
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Name, b.Name) })
	return out
}
