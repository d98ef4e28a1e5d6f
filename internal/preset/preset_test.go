// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videostove/internal/config"
)

const (
	exportFormat = `{"preset": {
		"Reels": {"project_type": "slideshow", "image_duration": 4, "use_crossfade": false},
		"Long":  {"project_type": "montage", "crf": 18}
	}}`
	directFormat = `{"metadata": {"version": 2}, "Only": {"project_type": "videos_only"}}`
	singleFormat = `{"project_type": "Montage", "use_gpu": false, "bg_vol": 0.3}`
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		names []string
	}{
		{"export", exportFormat, []string{"Long", "Reels"}},
		{"direct", directFormat, []string{"Only"}},
		{"single", singleFormat, []string{"default"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.names, f.Names())
		})
	}
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte(`{"unrelated": 1}`))
	assert.ErrorIs(t, err, ErrNoProfiles)

	_, err = Parse([]byte(`{}`))
	assert.ErrorIs(t, err, ErrNoProfiles)

	_, err = Parse([]byte(`[1, 2]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{"project_type": "slideshow", "crf": "high"}`))
	assert.Error(t, err, "crf must decode as a number")
}

func TestSelect(t *testing.T) {
	f, err := Parse([]byte(exportFormat))
	require.NoError(t, err)

	p, err := f.Select("Reels")
	require.NoError(t, err)
	assert.Equal(t, "Reels", p.Name)

	_, err = f.Select("")
	assert.ErrorIs(t, err, ErrAmbiguousProfile)

	_, err = f.Select("Missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorContains(t, err, "Long, Reels")

	single, err := Parse([]byte(singleFormat))
	require.NoError(t, err)
	p, err = single.Select("")
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)
}

func TestSplitRef(t *testing.T) {
	tests := []struct{ in, path, profile string }{
		{"presets/a.json", "presets/a.json", ""},
		{"presets/a.json:Reels", "presets/a.json", "Reels"},
		{`C:\presets\a.json`, `C:\presets\a.json`, ""},
		{`C:\presets\a.json:Long`, `C:\presets\a.json`, "Long"},
	}
	for _, tt := range tests {
		path, profile := SplitRef(tt.in)
		assert.Equal(t, tt.path, path, tt.in)
		assert.Equal(t, tt.profile, profile, tt.in)
	}
}

func TestApply(t *testing.T) {
	f, err := Parse([]byte(`{
		"project_type": " Slideshow ",
		"image_duration": 5,
		"use_crossfade": false,
		"use_overlay": true,
		"overlay_mode": "Screen_Blend",
		"quality_preset": "high",
		"crf": 19,
		"use_gpu": true,
		"captions_enabled": true,
		"caption_type": "multi",
		"live_timing_enabled": true,
		"caption_style": "Boxed",
		"black_fade_transition": true
	}`))
	require.NoError(t, err)
	p, err := f.Select("")
	require.NoError(t, err)

	base := config.DefaultRenderConfig()
	base.Encoder.GPUMode = "cpu"
	got := p.Apply(base)

	assert.Equal(t, "slideshow", got.ProjectType)
	assert.Equal(t, 5.0, got.ImageDuration)
	assert.False(t, got.Crossfade.Enabled)
	assert.Equal(t, 0.6, got.Crossfade.Duration, "unset keys keep the base value")
	assert.True(t, got.Overlay.Enabled)
	assert.Equal(t, "screen_blend", got.Overlay.Mode)
	assert.Equal(t, 19, got.Encoder.CRF, "explicit crf wins over the quality preset")
	assert.Equal(t, "medium", got.Encoder.Preset)
	assert.Equal(t, "auto", got.Encoder.GPUMode)
	assert.True(t, got.Captions.Enabled)
	assert.Equal(t, "live", got.Captions.Pacing)
	assert.Equal(t, "boxed", got.Captions.Style)
	assert.True(t, got.BlackFadeTransition)
	assert.NoError(t, got.Validate())

	assert.Equal(t, "cpu", base.Encoder.GPUMode, "base is not modified")
}

func TestApplyGPUOff(t *testing.T) {
	f, err := Parse([]byte(singleFormat))
	require.NoError(t, err)
	got := f.Profiles["default"].Apply(config.DefaultRenderConfig())
	assert.Equal(t, "cpu", got.Encoder.GPUMode)
	assert.Equal(t, "montage", got.ProjectType)
	assert.Equal(t, 0.3, got.BackgroundVolume)
}

func TestValidate(t *testing.T) {
	f, err := Parse([]byte(`{"Bad": {
		"image_duration": 0,
		"overlay_opacity": 1.5,
		"overlay_mode": "multiply",
		"preset": "FAST"
	}}`))
	require.NoError(t, err)

	var fields []string
	for _, e := range f.Profiles["Bad"].Validate() {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"project_type", "image_duration", "overlay_opacity", "overlay_mode"}, fields)
}

func TestSummary(t *testing.T) {
	f, err := Parse([]byte(exportFormat))
	require.NoError(t, err)
	assert.Equal(t, []SummaryItem{
		{"Mode", "slideshow"},
		{"Image Duration (s)", "4"},
		{"Crossfade", "No"},
	}, f.Profiles["Reels"].Summary())
}

func TestDetectMode(t *testing.T) {
	withVideo := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(withVideo, "clip.mp4"), nil, 0o644))
	imagesOnly := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(imagesOnly, "a.jpg"), nil, 0o644))

	tests := []struct {
		projectType, dir string
		mode             string
		source           Source
	}{
		{"videos_only", "", "videos_only", SourcePreset},
		{" SlideShow ", "", "slideshow", SourcePreset},
		{"my photos", "", "slideshow", SourceAlias},
		{"short videos", "", "videos_only", SourceAlias},
		{"video essay", "", "montage", SourceAlias},
		{"", withVideo, "montage", SourceScan},
		{"unknown", imagesOnly, "slideshow", SourceScan},
		{"", filepath.Join(imagesOnly, "missing"), "montage", SourceDefault},
		{"", "", "montage", SourceDefault},
	}
	for _, tt := range tests {
		mode, src := DetectMode(tt.projectType, tt.dir)
		assert.Equal(t, tt.mode, mode, tt.projectType)
		assert.Equal(t, tt.source, src, tt.projectType)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "multi.json"), []byte(exportFormat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "single.json"), []byte(singleFormat), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644))

	got := Find([]string{dir, filepath.Join(dir, "absent")})
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"multi:Long", "multi:Reels", "single"}, names)

	p, err := LoadRef(filepath.Join(dir, "multi.json") + ":Long")
	require.NoError(t, err)
	require.NotNil(t, p.Settings.CRF)
	assert.Equal(t, 18, *p.Settings.CRF)
}
