// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/history"
)

// runDoctor checks the engine binaries, hardware encoders, work root and
// history database.
func runDoctor(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove doctor", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		common commonFlags
		full   bool
	)
	common.register(fs)
	fs.BoolVar(&full, "full", false, "run a full integrity check of the history database")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := loadApp(ctx, common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.close()

	ok := true
	check := func(name string, err error, detail string) {
		if err != nil {
			ok = false
			fmt.Fprintf(stdout, "✗ %-14s %v\n", name, err)
			return
		}
		fmt.Fprintf(stdout, "✓ %-14s %s\n", name, detail)
	}

	for _, bin := range []struct{ name, path string }{
		{"ffmpeg", a.cfg.Engine.FFmpegBin},
		{"ffprobe", a.ffprobeBin()},
	} {
		path, err := exec.LookPath(bin.path)
		check(bin.name, err, path)
	}

	caps, err := engine.DetectEncoders(ctx, a.cfg.Engine.FFmpegBin)
	detail := caps.String()
	if err == nil && !caps.Any() {
		detail = "none (libx264 only)"
	}
	check("encoders", err, detail)

	check("work root", os.MkdirAll(a.cfg.WorkRoot, 0o755), a.cfg.WorkRoot)

	if a.cfg.History.Path == "" {
		fmt.Fprintf(stdout, "- %-14s disabled\n", "history")
	} else if _, statErr := os.Stat(a.cfg.History.Path); statErr != nil {
		fmt.Fprintf(stdout, "- %-14s %s (not created yet)\n", "history", a.cfg.History.Path)
	} else {
		issues, err := history.VerifyIntegrity(ctx, a.cfg.History.Path, full)
		if err == nil && len(issues) > 0 {
			err = fmt.Errorf("integrity check failed: %s", strings.Join(issues, "; "))
		}
		check("history", err, a.cfg.History.Path)
	}

	if !ok {
		return exitFailure
	}
	return exitOK
}
