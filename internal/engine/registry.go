// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"github.com/ManuGH/videostove/internal/log"
	"github.com/ManuGH/videostove/internal/procgroup"
)

// ErrRegistryClosed is returned when a process is started after its render
// has shut down.
var ErrRegistryClosed = errors.New("process registry closed")

// Registry tracks the engine processes of one render so the render can tear
// all of them down on exit.
type Registry struct {
	mu     sync.Mutex
	procs  map[int]*exec.Cmd
	closed bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{procs: make(map[int]*exec.Cmd)}
}

type registryKey struct{}

// WithRegistry attaches reg to ctx; Runner registers its processes there.
func WithRegistry(ctx context.Context, reg *Registry) context.Context {
	return context.WithValue(ctx, registryKey{}, reg)
}

// RegistryFrom returns the registry carried by ctx, or nil.
func RegistryFrom(ctx context.Context) *Registry {
	reg, _ := ctx.Value(registryKey{}).(*Registry)
	return reg
}

func (r *Registry) track(cmd *exec.Cmd) error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	r.procs[cmd.Process.Pid] = cmd
	return nil
}

func (r *Registry) untrack(cmd *exec.Cmd) {
	if r == nil || cmd.Process == nil {
		return
	}
	r.mu.Lock()
	delete(r.procs, cmd.Process.Pid)
	r.mu.Unlock()
}

// Active returns the number of tracked processes.
func (r *Registry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.procs)
}

// Shutdown closes the registry and kills every process still tracked. Later
// starts fail with ErrRegistryClosed.
func (r *Registry) Shutdown(grace time.Duration) {
	r.mu.Lock()
	r.closed = true
	pids := make([]int, 0, len(r.procs))
	for pid := range r.procs {
		pids = append(pids, pid)
	}
	r.mu.Unlock()

	logger := log.WithComponent("engine")
	for _, pid := range pids {
		if err := procgroup.KillGroup(pid, grace, grace); err != nil {
			logger.Warn().Err(err).Int(log.FieldPID, pid).Msg("failed to kill engine process group")
		}
	}
}
