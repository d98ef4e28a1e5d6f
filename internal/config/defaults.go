// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultProbeTimeout = 30 * time.Second
	DefaultKillGrace    = 5 * time.Second
	DefaultStallTimeout = 5 * time.Minute
)

// DefaultRenderConfig returns the render defaults of the original tool.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		ProjectType:            "montage",
		ImageDuration:          8.0,
		MainVolume:             1.0,
		BackgroundVolume:       0.15,
		BackgroundMusicEnabled: true,
		Crossfade:              CrossfadeConfig{Enabled: true, Duration: 0.6},
		FadeIn:                 true,
		FadeOut:                true,
		Overlay:                OverlayConfig{Mode: "simple", Opacity: 0.5},
		Encoder:                EncoderConfig{GPUMode: "auto", CRF: 22, Preset: "fast"},
		AnimationStyle:         "Sequential Motion",
		ExtendedZoom:           ExtendedZoomConfig{Direction: "in", AmountPercent: 30},
		Captions: CaptionsConfig{
			Pacing:          "single",
			Style:           "custom",
			MaxCharsPerLine: 45,
			MinGap:          0.1,
			Custom: CaptionStyleConfig{
				FontFamily:         "Arial",
				FontSize:           24,
				FontWeight:         "bold",
				TextColor:          "#FFFFFF",
				OutlineColor:       "#000000",
				OutlineWidth:       2,
				ShadowEnabled:      true,
				VerticalPosition:   "bottom",
				HorizontalPosition: "center",
				MarginVertical:     25,
				MarginHorizontal:   20,
				BackgroundColor:    "#000000",
			},
		},
	}
}

// Default returns a complete AppConfig with every default applied.
func Default() AppConfig {
	return AppConfig{
		LogLevel:  "info",
		LogFormat: "console",
		WorkRoot:  filepath.Join(os.TempDir(), "videostove"),
		OutputDir: "out",
		Engine: EngineConfig{
			FFmpegBin:    "ffmpeg",
			ProbeTimeout: DefaultProbeTimeout,
			KillGrace:    DefaultKillGrace,
			StallTimeout: DefaultStallTimeout,
		},
		Batch:   BatchConfig{Concurrency: 1},
		History: HistoryConfig{BusyTimeoutMS: 5000},
		Status:  StatusConfig{RatePerMinute: 120},
		Telemetry: TelemetryConfig{
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "development",
		},
		Render: DefaultRenderConfig(),
	}
}

// QualityPreset maps a quality name to its CRF and encoder preset.
func QualityPreset(name string) (crf int, preset string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "draft":
		return 28, "ultrafast", true
	case "standard":
		return 23, "fast", true
	case "high":
		return 20, "medium", true
	case "ultra":
		return 18, "slow", true
	}
	return 0, "", false
}
