// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/metrics"
	"github.com/ManuGH/videostove/internal/procgroup"
	"golang.org/x/time/rate"
)

const (
	stderrLines      = 64
	progressInterval = 5 * time.Second
	defaultKillGrace = 5 * time.Second
)

var globalArgs = []string{"-hide_banner", "-nostdin", "-y", "-progress", "pipe:1", "-nostats"}

// Runner executes requests with the ffmpeg binary.
type Runner struct {
	bin   string
	grace time.Duration
	stall time.Duration
}

// NewRunner creates a runner. grace bounds how long a cancelled process may
// take to exit after SIGTERM; a positive stall kills processes whose progress
// stops advancing for that long.
func NewRunner(bin string, grace, stall time.Duration) *Runner {
	if bin == "" {
		bin = "ffmpeg"
	}
	if grace <= 0 {
		grace = defaultKillGrace
	}
	return &Runner{bin: bin, grace: grace, stall: stall}
}

// Bin returns the engine binary path.
func (r *Runner) Bin() string { return r.bin }

// CommandLine returns the full argument list for req.
func (r *Runner) CommandLine(req Request) []string {
	return append(append([]string(nil), globalArgs...), req.Args()...)
}

// Run executes req and blocks until the process exits or ctx is cancelled.
func (r *Runner) Run(ctx context.Context, req Request) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", req.Kind(), err)
	}
	logger := log.WithComponentFromContext(ctx, "engine").With().Str(log.FieldRequest, req.Kind()).Logger()
	logger.Debug().Str("describe", req.Describe()).Strs("args", req.Args()).Msg("engine start")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	wd := newWatchdog(r.stall)
	go wd.run(runCtx, func() {
		logger.Warn().Dur("stall_timeout", r.stall).Msg("engine progress stalled, terminating")
		cancel()
	})

	progress := rate.Sometimes{Interval: progressInterval}
	start := time.Now()
	tail, err := execute(runCtx, r.bin, r.grace, r.CommandLine(req), func(out io.Reader) {
		sc := bufio.NewScanner(out)
		for sc.Scan() {
			if pos, ok := wd.observe(sc.Text()); ok {
				progress.Do(func() {
					logger.Info().Float64(log.FieldDuration, pos.Seconds()).Msg("engine progress")
				})
			}
		}
	})
	elapsed := time.Since(start)

	switch {
	case err == nil:
		metrics.RecordEngineRun(req.Kind(), "ok", elapsed)
		logger.Debug().Dur("elapsed", elapsed).Msg("engine done")
		return nil
	case ctx.Err() != nil:
		metrics.RecordEngineRun(req.Kind(), "cancelled", elapsed)
		return fmt.Errorf("%s: %w", req.Kind(), ctx.Err())
	case wd.Stalled():
		err = ErrStalled
	}

	metrics.RecordEngineRun(req.Kind(), "error", elapsed)
	runErr := &RunError{Kind: req.Kind(), ExitCode: exitCode(err), Tail: tail, Err: err}
	logger.Warn().Err(err).Int("exit_code", runErr.ExitCode).Str("stderr", runErr.Diagnostics()).Msg("engine failed")
	return runErr
}

// Capture runs bin with args and returns its stdout. Used for probes and
// capability queries; it honours the registry and cancellation like Run.
func Capture(ctx context.Context, bin string, grace time.Duration, args ...string) ([]byte, error) {
	if grace <= 0 {
		grace = defaultKillGrace
	}
	var stdout bytes.Buffer
	tail, err := execute(ctx, bin, grace, args, func(out io.Reader) {
		_, _ = io.Copy(&stdout, out)
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RunError{Kind: "capture", ExitCode: exitCode(err), Tail: tail, Err: err}
	}
	return stdout.Bytes(), nil
}

// execute starts bin in its own process group, streams stdout to consume and
// returns the stderr tail. On cancellation the process group is terminated.
func execute(ctx context.Context, bin string, grace time.Duration, args []string, consume func(io.Reader)) ([]string, error) {
	cmd := exec.Command(bin, args...)
	procgroup.Set(cmd)
	ring := NewLineRing(stderrLines)
	cmd.Stderr = ring
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	reg := RegistryFrom(ctx)
	if err := reg.track(cmd); err != nil {
		waitCh := make(chan error, 1)
		go func() {
			_, _ = io.Copy(io.Discard, stdout)
			waitCh <- cmd.Wait()
		}()
		_ = procgroup.Terminate(cmd, waitCh, grace)
		return nil, err
	}
	defer reg.untrack(cmd)

	waitCh := make(chan error, 1)
	go func() {
		consume(stdout)
		_, _ = io.Copy(io.Discard, stdout)
		waitCh <- cmd.Wait()
	}()

	select {
	case err := <-waitCh:
		return ring.LastN(stderrLines), err
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, grace)
		return ring.LastN(stderrLines), ctx.Err()
	}
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
