// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the process-wide configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// WorkRoot holds the per-render private working directories.
	WorkRoot string `yaml:"workRoot"`
	// OutputDir is where renders land when a request names no output path.
	OutputDir string `yaml:"outputDir"`

	Engine    EngineConfig    `yaml:"engine"`
	Batch     BatchConfig     `yaml:"batch"`
	History   HistoryConfig   `yaml:"history"`
	Status    StatusConfig    `yaml:"status"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Render is the default render configuration. Presets and CLI flags
	// are applied on top of a copy of it.
	Render RenderConfig `yaml:"render"`
}

// EngineConfig locates the transcoding engine binaries.
type EngineConfig struct {
	FFmpegBin    string        `yaml:"ffmpegBin"`
	FFprobeBin   string        `yaml:"ffprobeBin"`
	ProbeTimeout time.Duration `yaml:"probeTimeout"`
	// KillGrace is the SIGTERM to SIGKILL delay on cancellation.
	KillGrace time.Duration `yaml:"killGrace"`
	// StallTimeout kills an engine process whose progress stops advancing.
	// Zero disables stall detection.
	StallTimeout time.Duration `yaml:"stallTimeout"`
}

type BatchConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type HistoryConfig struct {
	// Path of the sqlite database. Empty disables history.
	Path          string `yaml:"path"`
	BusyTimeoutMS int    `yaml:"busyTimeoutMs"`
}

type StatusConfig struct {
	// Listen is a host:port. Empty disables the status server.
	Listen        string `yaml:"listen"`
	RatePerMinute int    `yaml:"ratePerMinute"`
}

type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment"`
}

// RenderConfig is the immutable per-render option set. It is passed by
// value; nothing in it is a pointer, map or slice so a copy is a snapshot.
type RenderConfig struct {
	ProjectType string `yaml:"projectType"`

	ImageDuration          float64 `yaml:"imageDuration"`
	MainVolume             float64 `yaml:"mainVolume"`
	BackgroundVolume       float64 `yaml:"backgroundVolume"`
	BackgroundMusicEnabled bool    `yaml:"backgroundMusic"`

	Crossfade CrossfadeConfig `yaml:"crossfade"`

	FadeIn              bool `yaml:"fadeIn"`
	FadeOut             bool `yaml:"fadeOut"`
	BlackFadeTransition bool `yaml:"blackFadeTransition"`

	Overlay OverlayConfig `yaml:"overlay"`
	Encoder EncoderConfig `yaml:"encoder"`

	AnimationStyle string             `yaml:"animationStyle"`
	ExtendedZoom   ExtendedZoomConfig `yaml:"extendedZoom"`

	Captions CaptionsConfig `yaml:"captions"`
}

type CrossfadeConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Duration float64 `yaml:"duration"`
}

type OverlayConfig struct {
	Enabled bool `yaml:"enabled"`
	// Mode is "simple" or "screen_blend".
	Mode    string  `yaml:"mode"`
	Opacity float64 `yaml:"opacity"`
}

type EncoderConfig struct {
	// GPUMode is one of auto, nvidia, amd, intel, cpu.
	GPUMode string `yaml:"gpuMode"`
	CRF     int    `yaml:"crf"`
	Preset  string `yaml:"preset"`
}

type ExtendedZoomConfig struct {
	Enabled bool `yaml:"enabled"`
	// Direction is "in", "out" or "in_out".
	Direction     string  `yaml:"direction"`
	AmountPercent float64 `yaml:"amountPercent"`
}

// CaptionsConfig drives the optional caption post-process.
type CaptionsConfig struct {
	Enabled bool `yaml:"enabled"`
	// Pacing is one of single, multi, typewriter, single_words, random, live.
	Pacing          string  `yaml:"pacing"`
	Karaoke         bool    `yaml:"karaoke"`
	Style           string  `yaml:"style"`
	MaxCharsPerLine int     `yaml:"maxCharsPerLine"`
	MinGap          float64 `yaml:"minGap"`

	Custom      CaptionStyleConfig `yaml:"custom"`
	Transcriber TranscriberConfig  `yaml:"transcriber"`
}

// CaptionStyleConfig holds the Custom style knobs.
type CaptionStyleConfig struct {
	FontFamily         string  `yaml:"fontFamily"`
	FontSize           int     `yaml:"fontSize"`
	FontWeight         string  `yaml:"fontWeight"`
	TextColor          string  `yaml:"textColor"`
	OutlineColor       string  `yaml:"outlineColor"`
	OutlineWidth       int     `yaml:"outlineWidth"`
	ShadowEnabled      bool    `yaml:"shadow"`
	VerticalPosition   string  `yaml:"verticalPosition"`
	HorizontalPosition string  `yaml:"horizontalPosition"`
	MarginVertical     int     `yaml:"marginVertical"`
	MarginHorizontal   int     `yaml:"marginHorizontal"`
	Background         bool    `yaml:"background"`
	BackgroundColor    string  `yaml:"backgroundColor"`
	BackgroundOpacity  float64 `yaml:"backgroundOpacity"`
}

// TranscriberConfig selects the transcription collaborator. Command runs an
// external CLI; Sidecar reads a JSON transcript next to the video instead.
type TranscriberConfig struct {
	Command string `yaml:"command"`
	// Args may contain {input} and {output} placeholders.
	Args      string `yaml:"args"`
	WordsFlag string `yaml:"wordsFlag"`
	Sidecar   bool   `yaml:"sidecar"`
}
