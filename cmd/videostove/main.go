// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command videostove renders narrated videos from project directories.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitCancel  = 130
)

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "render":
		return runRender(ctx, rest, stdout, stderr)
	case "batch":
		return runBatch(ctx, rest, stdout, stderr)
	case "scan":
		return runScan(rest, stdout, stderr)
	case "presets":
		return runPresets(rest, stdout, stderr)
	case "doctor":
		return runDoctor(ctx, rest, stdout, stderr)
	case "history":
		return runHistory(ctx, rest, stdout, stderr)
	case "version", "--version", "-version":
		return runVersion(rest, stdout, stderr)
	case "help", "-h", "--help":
		printUsage(stdout)
		return exitOK
	}
	fmt.Fprintf(stderr, "Unknown command: %s\n\n", cmd)
	printUsage(stderr)
	return exitUsage
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  videostove render  [flags] <project-dir>")
	fmt.Fprintln(w, "  videostove batch   [flags] <job.yaml>")
	fmt.Fprintln(w, "  videostove scan    [--mode slideshow|montage|videos_only] <root>")
	fmt.Fprintln(w, "  videostove presets <dir>...")
	fmt.Fprintln(w, "  videostove doctor  [--config file]")
	fmt.Fprintln(w, "  videostove history [--project name] [--status s] [--limit n]")
	fmt.Fprintln(w, "  videostove version [--json]")
}
