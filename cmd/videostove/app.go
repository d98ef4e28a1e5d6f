// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ManuGH/videostove/internal/captions"
	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/history"
	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/render"
	"github.com/ManuGH/videostove/internal/telemetry"
	"github.com/ManuGH/videostove/internal/version"
)

// commonFlags are accepted by every command that loads configuration.
type commonFlags struct {
	configPath string
	envFile    string
	logLevel   string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "path to YAML configuration file (default $VIDEOSTOVE_CONFIG)")
	fs.StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration, if present")
	fs.StringVar(&c.logLevel, "log-level", "", "override the configured log level")
}

// app is the loaded runtime shared by the commands.
type app struct {
	cfg    config.AppConfig
	loader *config.Loader
	tel    *telemetry.Provider
	stderr io.Writer
}

func loadApp(ctx context.Context, cf commonFlags, stderr io.Writer) (*app, error) {
	if err := loadDotEnv(cf.envFile); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(cf.configPath)
	if path == "" {
		path = config.ParseString("VIDEOSTOVE_CONFIG", "")
	}

	loader := config.NewLoader(path, version.Get().Version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if cf.logLevel != "" {
		cfg.LogLevel = cf.logLevel
	}
	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  stderr,
		Service: "videostove",
		Version: cfg.Version,
	})

	tel, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "videostove",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,

		WorkRoot:         cfg.WorkRoot,
		BatchConcurrency: cfg.Batch.Concurrency,
		GPUMode:          cfg.Render.Encoder.GPUMode,
	})
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("telemetry disabled")
		tel = nil
	}
	return &app{cfg: cfg, loader: loader, tel: tel, stderr: stderr}, nil
}

// loadDotEnv loads path into the environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (a *app) close() {
	if a.tel == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = a.tel.Shutdown(ctx)
}

func (a *app) ffprobeBin() string {
	return config.ResolveFFprobeBin(a.cfg.Engine.FFprobeBin, a.cfg.Engine.FFmpegBin)
}

// capabilities detects hardware encoders unless the config pins the CPU.
func (a *app) capabilities(ctx context.Context, gpuMode string) engine.Capabilities {
	if gpuMode == "cpu" {
		return engine.Capabilities{}
	}
	caps, err := engine.DetectEncoders(ctx, a.cfg.Engine.FFmpegBin)
	if err != nil {
		logger := log.WithComponent("cli")
		logger.Warn().Err(err).Msg("encoder detection failed, using libx264")
	}
	return caps
}

type rendererOptions struct {
	render   config.RenderConfig
	fontsDir string
	progress func(render.Progress)
}

// renderer wires the engine, prober and captioner for one command run.
func (a *app) renderer(ctx context.Context, opts rendererOptions) *render.Renderer {
	ec := a.cfg.Engine
	runner := engine.NewRunner(ec.FFmpegBin, ec.KillGrace, ec.StallTimeout)
	caps := a.capabilities(ctx, opts.render.Encoder.GPUMode)

	mode, err := engine.ParseGPUMode(opts.render.Encoder.GPUMode)
	if err != nil {
		mode = engine.GPUAuto
	}
	captioner := captions.New(captions.Options{
		Engine:    runner,
		Encoder:   engine.EncoderSettings(mode, caps, opts.render.Encoder.CRF, opts.render.Encoder.Preset),
		WorkRoot:  a.cfg.WorkRoot,
		FontsDir:  opts.fontsDir,
		KillGrace: ec.KillGrace,
	})
	return render.New(render.Options{
		Engine:       runner,
		Prober:       media.NewFFprobe(a.ffprobeBin(), ec.ProbeTimeout, ec.KillGrace),
		WorkRoot:     a.cfg.WorkRoot,
		OutputDir:    a.cfg.OutputDir,
		Capabilities: caps,
		KillGrace:    ec.KillGrace,
		Captioner:    captioner,
		Progress:     opts.progress,
	})
}

// openHistory opens the configured history database. It returns nil when
// history is disabled.
func (a *app) openHistory() (*history.Store, error) {
	if a.cfg.History.Path == "" {
		return nil, nil
	}
	dbc := history.DefaultDBConfig()
	if a.cfg.History.BusyTimeoutMS > 0 {
		dbc.BusyTimeout = time.Duration(a.cfg.History.BusyTimeoutMS) * time.Millisecond
	}
	return history.Open(a.cfg.History.Path, dbc)
}
