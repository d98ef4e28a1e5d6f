// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path the loader reads, if any.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file -> env -> resolve -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Default()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	cfg.Engine.FFprobeBin = ResolveFFprobeBin(cfg.Engine.FFprobeBin, cfg.Engine.FFmpegBin)
	if abs, err := filepath.Abs(cfg.WorkRoot); err == nil {
		cfg.WorkRoot = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file onto cfg with STRICT parsing. Keys absent
// from the file keep the values already in cfg.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return DecodeStrict(data, cfg)
}

// DecodeStrict decodes exactly one YAML document into out, rejecting unknown
// fields. An empty document leaves out unchanged.
func DecodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvPrefix+"LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = l.envString(EnvPrefix+"LOG_FORMAT", cfg.LogFormat)
	cfg.WorkRoot = l.envString(EnvPrefix+"WORK_ROOT", cfg.WorkRoot)
	cfg.OutputDir = l.envString(EnvPrefix+"OUTPUT_DIR", cfg.OutputDir)

	cfg.Engine.FFmpegBin = l.envString(EnvPrefix+"FFMPEG_BIN", cfg.Engine.FFmpegBin)
	cfg.Engine.FFprobeBin = l.envString(EnvPrefix+"FFPROBE_BIN", cfg.Engine.FFprobeBin)
	cfg.Engine.ProbeTimeout = l.envDuration(EnvPrefix+"PROBE_TIMEOUT", cfg.Engine.ProbeTimeout)
	cfg.Engine.KillGrace = l.envDuration(EnvPrefix+"KILL_GRACE", cfg.Engine.KillGrace)
	cfg.Engine.StallTimeout = l.envDuration(EnvPrefix+"STALL_TIMEOUT", cfg.Engine.StallTimeout)

	cfg.Batch.Concurrency = l.envInt(EnvPrefix+"BATCH_CONCURRENCY", cfg.Batch.Concurrency)

	cfg.History.Path = l.envString(EnvPrefix+"HISTORY_PATH", cfg.History.Path)
	cfg.Status.Listen = l.envString(EnvPrefix+"STATUS_LISTEN", cfg.Status.Listen)

	cfg.Telemetry.Enabled = l.envBool(EnvPrefix+"TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.ExporterType = l.envString(EnvPrefix+"TELEMETRY_EXPORTER", cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString(EnvPrefix+"TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvPrefix+"TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	r := &cfg.Render
	r.ProjectType = l.envString(EnvPrefix+"PROJECT_TYPE", r.ProjectType)
	r.ImageDuration = l.envFloat(EnvPrefix+"IMAGE_DURATION", r.ImageDuration)
	r.Encoder.GPUMode = l.envString(EnvPrefix+"GPU_MODE", r.Encoder.GPUMode)
	r.Encoder.CRF = l.envInt(EnvPrefix+"CRF", r.Encoder.CRF)
	r.Encoder.Preset = l.envString(EnvPrefix+"ENCODER_PRESET", r.Encoder.Preset)
	r.Captions.Enabled = l.envBool(EnvPrefix+"CAPTIONS_ENABLED", r.Captions.Enabled)
}
