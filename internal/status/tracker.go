// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package status

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/videostove/internal/batch"
	"github.com/ManuGH/videostove/internal/render"
)

// LiveRender is a render in progress.
type LiveRender struct {
	RenderID  string    `json:"render_id"`
	Project   string    `json:"project"`
	Stage     string    `json:"stage"`
	Index     int       `json:"stage_index"`
	Total     int       `json:"stage_total"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectState is the last known state of a batch project.
type ProjectState struct {
	Name   string `json:"name"`
	Mode   string `json:"mode,omitempty"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Output string `json:"output,omitempty"`
}

// Snapshot is a copy of the tracker state.
type Snapshot struct {
	Active   []LiveRender   `json:"active"`
	Projects []ProjectState `json:"projects"`
}

// Tracker collects progress events from renders and batch runs. Its
// methods match render.Options.Progress and batch.Options.OnUpdate.
type Tracker struct {
	mu       sync.RWMutex
	now      func() time.Time
	active   map[string]*LiveRender
	projects map[string]ProjectState
	order    []string
}

func NewTracker() *Tracker {
	return &Tracker{
		now:      time.Now,
		active:   make(map[string]*LiveRender),
		projects: make(map[string]ProjectState),
	}
}

// Progress records that a render entered a stage.
func (t *Tracker) Progress(p render.Progress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	lr, ok := t.active[p.RenderID]
	if !ok {
		lr = &LiveRender{RenderID: p.RenderID, Project: p.Project, StartedAt: now}
		t.active[p.RenderID] = lr
	}
	lr.Stage, lr.Index, lr.Total, lr.UpdatedAt = p.Stage, p.Index, p.Total, now
}

// Finish drops a render from the active set.
func (t *Tracker) Finish(renderID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.active, renderID)
}

// Project records a batch project update. Terminal states also clear the
// project's live renders.
func (t *Tracker) Project(res batch.ProjectResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.projects[res.Name]; !ok {
		t.order = append(t.order, res.Name)
	}
	t.projects[res.Name] = ProjectState{
		Name:   res.Name,
		Mode:   res.Mode,
		Status: string(res.Status),
		Reason: res.Reason,
		Output: res.Output,
	}
	if res.Status != batch.StatusRunning && res.Status != batch.StatusPending {
		for id, lr := range t.active {
			if lr.Project == res.Name {
				delete(t.active, id)
			}
		}
	}
}

func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Snapshot{Active: []LiveRender{}, Projects: make([]ProjectState, 0, len(t.order))}
	for _, lr := range t.active {
		s.Active = append(s.Active, *lr)
	}
	slices.SortFunc(s.Active, func(a, b LiveRender) int {
		if c := a.StartedAt.Compare(b.StartedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RenderID, b.RenderID)
	})
	for _, name := range t.order {
		s.Projects = append(s.Projects, t.projects[name])
	}
	return s
}
