// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"strings"

	"github.com/ManuGH/videostove/internal/validate"
)

// Accepted enumerations. Parsing into typed values happens in the packages
// that own them; these lists only guard the config surface.
var (
	ProjectTypes   = []string{"slideshow", "montage", "videos_only"}
	OverlayModes   = []string{"simple", "screen_blend"}
	GPUModes       = []string{"auto", "nvidia", "amd", "intel", "cpu"}
	ZoomDirections = []string{"in", "out", "in_out"}
	CaptionPacings = []string{"single", "multi", "typewriter", "single_words", "random", "live"}
	CaptionStyles  = []string{"classic", "basic", "outline", "boxed", "karaoke", "custom"}
	LogFormats     = []string{"console", "json"}
	Exporters      = []string{"grpc", "http"}
)

// Validate validates an AppConfig.
func Validate(cfg AppConfig) error {
	v := validate.New()

	if _, err := validate.ParseLogLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		v.AddError("logLevel", "must be one of debug, info, warn, error", cfg.LogLevel)
	}
	v.OneOf("logFormat", cfg.LogFormat, LogFormats)
	v.NotEmpty("workRoot", cfg.WorkRoot)
	v.NotEmpty("engine.ffmpegBin", cfg.Engine.FFmpegBin)
	if cfg.Engine.ProbeTimeout <= 0 {
		v.AddError("engine.probeTimeout", "must be positive", cfg.Engine.ProbeTimeout)
	}
	if cfg.Engine.KillGrace < 0 {
		v.AddError("engine.killGrace", "cannot be negative", cfg.Engine.KillGrace)
	}
	if cfg.Engine.StallTimeout < 0 {
		v.AddError("engine.stallTimeout", "cannot be negative", cfg.Engine.StallTimeout)
	}
	v.Range("batch.concurrency", cfg.Batch.Concurrency, 1, 64)
	v.ListenAddr("status.listen", cfg.Status.Listen)
	if cfg.Status.Listen != "" {
		v.Positive("status.ratePerMinute", cfg.Status.RatePerMinute)
	}
	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.ExporterType, Exporters)
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	validateRender(v.WithPrefix("render."), cfg.Render)
	return v.Err()
}

// Validate checks the ranges and enumerations of a render configuration.
func (r RenderConfig) Validate() error {
	v := validate.New()
	validateRender(v, r)
	return v.Err()
}

func validateRender(v *validate.Validator, r RenderConfig) {
	v.OneOf("projectType", r.ProjectType, ProjectTypes)
	v.FloatRange("imageDuration", r.ImageDuration, 0.1, 3600)
	v.FloatRange("crossfade.duration", r.Crossfade.Duration, 0, 60)
	// A crossfade must be shorter than one image.
	if r.Crossfade.Enabled && r.ImageDuration >= 0.1 && r.Crossfade.Duration <= 60 &&
		r.Crossfade.Duration >= r.ImageDuration {
		v.AddError("crossfade.duration", "must be shorter than imageDuration", r.Crossfade.Duration)
	}
	v.FloatRange("mainVolume", r.MainVolume, 0, 10)
	v.FloatRange("backgroundVolume", r.BackgroundVolume, 0, 10)
	v.OneOf("overlay.mode", r.Overlay.Mode, OverlayModes)
	v.FloatRange("overlay.opacity", r.Overlay.Opacity, 0, 1)
	v.OneOf("encoder.gpuMode", r.Encoder.GPUMode, GPUModes)
	v.Range("encoder.crf", r.Encoder.CRF, 0, 51)
	v.NotEmpty("encoder.preset", r.Encoder.Preset)
	v.OneOf("extendedZoom.direction", r.ExtendedZoom.Direction, ZoomDirections)
	v.FloatRange("extendedZoom.amountPercent", r.ExtendedZoom.AmountPercent, 0, 100)

	c := r.Captions
	v.OneOf("captions.pacing", c.Pacing, CaptionPacings)
	v.OneOf("captions.style", strings.ToLower(c.Style), CaptionStyles)
	v.Range("captions.maxCharsPerLine", c.MaxCharsPerLine, 10, 200)
	v.FloatRange("captions.minGap", c.MinGap, 0, 2)
	v.FloatRange("captions.custom.backgroundOpacity", c.Custom.BackgroundOpacity, 0, 1)
}
