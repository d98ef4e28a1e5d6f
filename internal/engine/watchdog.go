// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ErrStalled is reported when an engine process stops making progress.
var ErrStalled = errors.New("engine progress stalled")

type clock interface {
	Now() time.Time
	NewTicker(d time.Duration) ticker
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realClock struct{}

func (realClock) Now() time.Time                   { return time.Now() }
func (realClock) NewTicker(d time.Duration) ticker { return &realTicker{time.NewTicker(d)} }

type realTicker struct {
	*time.Ticker
}

func (rt *realTicker) C() <-chan time.Time { return rt.Ticker.C }

// watchdog tracks `-progress` heartbeats and reports a stall when neither
// out_time_ms nor total_size advances for the stall timeout.
type watchdog struct {
	mu sync.Mutex

	stall   time.Duration
	outUS   int64
	size    int64
	last    time.Time
	done    bool
	stalled bool

	clock clock
}

func newWatchdog(stall time.Duration) *watchdog {
	return &watchdog{stall: stall, clock: realClock{}}
}

// observe processes one progress line and returns the output position when
// the line advanced it.
func (w *watchdog) observe(line string) (time.Duration, bool) {
	key, val, ok := strings.Cut(line, "=")
	if !ok {
		return 0, false
	}
	val = strings.TrimSpace(val)

	w.mu.Lock()
	defer w.mu.Unlock()
	switch strings.TrimSpace(key) {
	case "out_time_ms":
		// microseconds despite the name
		us, err := strconv.ParseInt(val, 10, 64)
		if err == nil && us > w.outUS {
			w.outUS = us
			w.last = w.clock.Now()
			return time.Duration(us) * time.Microsecond, true
		}
	case "total_size":
		size, err := strconv.ParseInt(val, 10, 64)
		if err == nil && size > w.size {
			w.size = size
			w.last = w.clock.Now()
		}
	case "progress":
		if val == "end" {
			w.done = true
		}
	}
	return 0, false
}

// run blocks until ctx ends or a stall is detected, calling onStall once.
func (w *watchdog) run(ctx context.Context, onStall func()) {
	if w.stall <= 0 {
		return
	}
	w.mu.Lock()
	w.last = w.clock.Now()
	w.mu.Unlock()

	t := w.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			if w.check() {
				onStall()
				return
			}
		}
	}
}

func (w *watchdog) check() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done {
		return false
	}
	if w.clock.Now().Sub(w.last) > w.stall {
		w.stalled = true
	}
	return w.stalled
}

func (w *watchdog) Stalled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stalled
}
