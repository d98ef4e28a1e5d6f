// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package preset

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/validate"
)

// Settings are the preset keys that map onto a render configuration. Nil
// fields leave the base configuration untouched.
type Settings struct {
	ProjectType   *string  `json:"project_type"`
	ImageDuration *float64 `json:"image_duration"`
	MainAudioVol  *float64 `json:"main_audio_vol"`
	BgVol         *float64 `json:"bg_vol"`
	UseBgMusic    *bool    `json:"use_bg_music"`

	UseCrossfade        *bool    `json:"use_crossfade"`
	CrossfadeDuration   *float64 `json:"crossfade_duration"`
	UseFadeIn           *bool    `json:"use_fade_in"`
	UseFadeOut          *bool    `json:"use_fade_out"`
	BlackFadeTransition *bool    `json:"black_fade_transition"`

	UseOverlay     *bool    `json:"use_overlay"`
	OverlayMode    *string  `json:"overlay_mode"`
	OverlayOpacity *float64 `json:"overlay_opacity"`

	UseGPU        *bool   `json:"use_gpu"`
	GPUMode       *string `json:"gpu_mode"`
	QualityPreset *string `json:"quality_preset"`
	CRF           *int    `json:"crf"`
	Preset        *string `json:"preset"`

	AnimationStyle        *string  `json:"animation_style"`
	ExtendedZoomEnabled   *bool    `json:"extended_zoom_enabled"`
	ExtendedZoomDirection *string  `json:"extended_zoom_direction"`
	ExtendedZoomAmount    *float64 `json:"extended_zoom_amount"`

	CaptionsEnabled      *bool   `json:"captions_enabled"`
	CaptionType          *string `json:"caption_type"`
	CaptionStyle         *string `json:"caption_style"`
	LiveTimingEnabled    *bool   `json:"live_timing_enabled"`
	KaraokeEffectEnabled *bool   `json:"karaoke_effect_enabled"`
	MaxCharsPerLine      *int    `json:"max_chars_per_line"`
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// Apply returns base with the preset settings applied. base is a value so
// the caller's snapshot is never modified.
func (s Settings) Apply(base config.RenderConfig) config.RenderConfig {
	out := base
	if s.ProjectType != nil {
		out.ProjectType = strings.ToLower(strings.TrimSpace(*s.ProjectType))
	}
	set(&out.ImageDuration, s.ImageDuration)
	set(&out.MainVolume, s.MainAudioVol)
	set(&out.BackgroundVolume, s.BgVol)
	set(&out.BackgroundMusicEnabled, s.UseBgMusic)

	set(&out.Crossfade.Enabled, s.UseCrossfade)
	set(&out.Crossfade.Duration, s.CrossfadeDuration)
	set(&out.FadeIn, s.UseFadeIn)
	set(&out.FadeOut, s.UseFadeOut)
	set(&out.BlackFadeTransition, s.BlackFadeTransition)

	set(&out.Overlay.Enabled, s.UseOverlay)
	if s.OverlayMode != nil {
		out.Overlay.Mode = strings.ToLower(*s.OverlayMode)
	}
	set(&out.Overlay.Opacity, s.OverlayOpacity)

	if s.UseGPU != nil {
		switch {
		case !*s.UseGPU:
			out.Encoder.GPUMode = "cpu"
		case out.Encoder.GPUMode == "cpu":
			out.Encoder.GPUMode = "auto"
		}
	}
	set(&out.Encoder.GPUMode, s.GPUMode)
	if s.QualityPreset != nil {
		if crf, p, ok := config.QualityPreset(*s.QualityPreset); ok {
			out.Encoder.CRF, out.Encoder.Preset = crf, p
		}
	}
	set(&out.Encoder.CRF, s.CRF)
	if s.Preset != nil {
		out.Encoder.Preset = strings.ToLower(*s.Preset)
	}

	set(&out.AnimationStyle, s.AnimationStyle)
	set(&out.ExtendedZoom.Enabled, s.ExtendedZoomEnabled)
	set(&out.ExtendedZoom.Direction, s.ExtendedZoomDirection)
	set(&out.ExtendedZoom.AmountPercent, s.ExtendedZoomAmount)

	c := &out.Captions
	set(&c.Enabled, s.CaptionsEnabled)
	set(&c.Pacing, s.CaptionType)
	if s.LiveTimingEnabled != nil && *s.LiveTimingEnabled {
		c.Pacing = "live"
	}
	if s.CaptionStyle != nil {
		c.Style = strings.ToLower(*s.CaptionStyle)
	}
	set(&c.Karaoke, s.KaraokeEffectEnabled)
	set(&c.MaxCharsPerLine, s.MaxCharsPerLine)
	return out
}

// Apply applies the profile onto base.
func (p Profile) Apply(base config.RenderConfig) config.RenderConfig {
	return p.Settings.Apply(base)
}

var (
	numericRanges = []struct {
		key      string
		min, max float64
	}{
		{"image_duration", 0.1, 3600},
		{"crossfade_duration", 0, 60},
		{"main_audio_vol", 0, 10},
		{"bg_vol", 0, 10},
		{"overlay_opacity", 0, 1},
		{"crf", 0, 51},
	}
	encoderPresets = []string{"ultrafast", "superfast", "veryfast", "faster", "fast", "medium", "slow", "slower", "veryslow"}
)

// Validate reports the problems of the raw profile, one message per
// offending key. project_type is required.
func (p Profile) Validate() []validate.Error {
	v := validate.New()
	if _, ok := p.Raw["project_type"]; !ok {
		v.AddError("project_type", "missing required field", nil)
	}
	for _, r := range numericRanges {
		raw, ok := p.Raw[r.key]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			v.AddError(r.key, "must be a number", string(raw))
			continue
		}
		v.FloatRange(r.key, n, r.min, r.max)
	}
	choices := map[string][]string{
		"project_type": config.ProjectTypes,
		"overlay_mode": config.OverlayModes,
		"preset":       encoderPresets,
	}
	for _, key := range []string{"project_type", "overlay_mode", "preset"} {
		raw, ok := p.Raw[key]
		if !ok {
			continue
		}
		v.OneOf(key, strings.ToLower(rawString(raw)), choices[key])
	}
	return v.Errors()
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// SummaryItem is one labelled setting for display.
type SummaryItem struct {
	Label string
	Value string
}

var summaryKeys = []struct{ key, label string }{
	{"project_type", "Mode"},
	{"image_duration", "Image Duration (s)"},
	{"use_crossfade", "Crossfade"},
	{"crossfade_duration", "Crossfade Duration (s)"},
	{"use_overlay", "Overlay Enabled"},
	{"overlay_mode", "Overlay Mode"},
	{"use_bg_music", "Background Music"},
	{"animation_style", "Animation Style"},
	{"crf", "Quality (CRF)"},
	{"preset", "Encoding Preset"},
	{"use_gpu", "GPU Acceleration"},
	{"extended_zoom_enabled", "Extended Zoom"},
	{"captions_enabled", "Captions"},
}

// Summary lists the key settings present in the profile.
func (p Profile) Summary() []SummaryItem {
	var out []SummaryItem
	for _, k := range summaryKeys {
		raw, ok := p.Raw[k.key]
		if !ok {
			continue
		}
		var val any
		if err := json.Unmarshal(raw, &val); err != nil {
			continue
		}
		var s string
		switch x := val.(type) {
		case bool:
			s = "No"
			if x {
				s = "Yes"
			}
		case string:
			s = x
		default:
			s = fmt.Sprint(x)
		}
		out = append(out, SummaryItem{Label: k.label, Value: s})
	}
	return out
}
