// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/history"
	"github.com/ManuGH/videostove/internal/render"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRenderer struct {
	mu       sync.Mutex
	requests []render.Request
	fn       func(ctx context.Context, req render.Request) (render.Result, error)
}

func (s *stubRenderer) Render(ctx context.Context, req render.Request) (render.Result, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(ctx, req)
	}
	return render.Result{RenderID: "r-" + req.Name, OutputPath: "/out/" + req.Name + ".mp4", Duration: 20, Mode: req.Mode}, nil
}

func (s *stubRenderer) byName() map[string]render.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]render.Request, len(s.requests))
	for _, r := range s.requests {
		out[r.Name] = r
	}
	return out
}

type memRecorder struct {
	mu      sync.Mutex
	entries []history.Entry
}

func (m *memRecorder) Record(_ context.Context, e history.Entry) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return int64(len(m.entries)), nil
}

func project(t *testing.T, files ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte(f), 0o644))
	}
	return dir
}

func TestParse(t *testing.T) {
	job, err := Parse([]byte(`
batch:
  preset_file: presets/reels.json:Reels
  gpu_mode: cpu
  concurrency: 2
  projects:
    - name: one
      inputs_dir: projects/one
    - name: two
      mode: montage
      inputs_dir: /abs/two
      output: out/two.mp4
`))
	require.NoError(t, err)
	assert.Equal(t, 2, job.Concurrency)
	require.Len(t, job.Projects, 2)
	assert.Equal(t, "montage", job.Projects[1].Mode)

	job.resolve("/jobs")
	assert.Equal(t, "/jobs/presets/reels.json:Reels", job.PresetFile)
	assert.Equal(t, "/jobs/projects/one", job.Projects[0].InputsDir)
	assert.Equal(t, "/abs/two", job.Projects[1].InputsDir)
	assert.Equal(t, "/jobs/out/two.mp4", job.Projects[1].Output)
	assert.Empty(t, job.Projects[0].Output)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown key", "batch:\n  projects:\n    - name: a\n      inputs_dir: x\n      colour: red\n"},
		{"empty", ""},
		{"no projects", "batch:\n  gpu_mode: cpu\n"},
		{"bad mode", "batch:\n  projects:\n    - name: a\n      inputs_dir: x\n      mode: collage\n"},
		{"duplicate", "batch:\n  projects:\n    - {name: a, inputs_dir: x}\n    - {name: a, inputs_dir: y}\n"},
		{"missing dir", "batch:\n  projects:\n    - name: a\n"},
		{"bad gpu", "batch:\n  gpu_mode: voodoo\n  projects:\n    - {name: a, inputs_dir: x}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte("batch:\n  projects: []\n  extra: 1\n"))
	assert.ErrorIs(t, err, config.ErrUnknownConfigField)
}

func TestRunContinuesAfterFailure(t *testing.T) {
	slides := project(t, "01.jpg", "02.jpg", "main.mp3")
	broken := project(t, "clip.mp4", "main.mp3")
	mixed := project(t, "01.jpg", "clip.mp4", "main.mp3")

	r := &stubRenderer{fn: func(_ context.Context, req render.Request) (render.Result, error) {
		if req.Name == "broken" {
			return render.Result{}, failure.New(failure.ErrMix, "mix_audio", "", errors.New("boom"))
		}
		return render.Result{RenderID: "id-" + req.Name, OutputPath: "/out/" + req.Name + ".mp4", Duration: 20}, nil
	}}
	rec := &memRecorder{}
	var updates atomic.Int32
	runner := NewRunner(Options{
		Renderer: r,
		Recorder: rec,
		Base:     config.DefaultRenderConfig(),
		OnUpdate: func(ProjectResult) { updates.Add(1) },
	})

	rep, err := runner.Run(context.Background(), Job{Projects: []Project{
		{Name: "slides", InputsDir: slides},
		{Name: "broken", InputsDir: broken, Mode: "videos_only"},
		{Name: "mixed", InputsDir: mixed, Mode: "slideshow"},
	}})
	require.NoError(t, err)
	require.Len(t, rep.Projects, 3)

	assert.Equal(t, StatusDone, rep.Projects[0].Status)
	assert.Equal(t, "slideshow", rep.Projects[0].Mode, "mode detected from an images-only directory")
	assert.Equal(t, "/out/slides.mp4", rep.Projects[0].Output)

	assert.Equal(t, StatusFailed, rep.Projects[1].Status)
	assert.ErrorIs(t, rep.Projects[1].Err, failure.ErrMix)

	assert.Equal(t, StatusSkipped, rep.Projects[2].Status)
	assert.Contains(t, rep.Projects[2].Reason, "videos")

	reqs := r.byName()
	require.Contains(t, reqs, "slides")
	assert.Equal(t, render.Slideshow, reqs["slides"].Mode)
	assert.Len(t, reqs["slides"].Inputs.Images, 2)
	require.NotNil(t, reqs["slides"].Inputs.MainAudio)
	assert.NotContains(t, reqs, "mixed")

	require.Len(t, rec.entries, 3)
	kinds := map[string]string{}
	for _, e := range rec.entries {
		assert.Equal(t, rep.BatchID, e.BatchID)
		kinds[e.Project] = e.Status + "/" + e.ErrorKind
	}
	assert.Equal(t, map[string]string{
		"slides": "done/",
		"broken": "failed/mix",
		"mixed":  "skipped/",
	}, kinds)
	assert.GreaterOrEqual(t, int(updates.Load()), 5)
}

func TestRunHonoursConcurrencyLimit(t *testing.T) {
	var running, peak atomic.Int32
	r := &stubRenderer{fn: func(_ context.Context, req render.Request) (render.Result, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		running.Add(-1)
		return render.Result{OutputPath: req.Name}, nil
	}}

	var projects []Project
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		projects = append(projects, Project{Name: name, InputsDir: project(t, "x.jpg", "main.mp3")})
	}
	rep, err := NewRunner(Options{Renderer: r, Base: config.DefaultRenderConfig(), Concurrency: 4}).
		Run(context.Background(), Job{Concurrency: 2, Projects: projects})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Count(StatusDone))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := &memRecorder{}

	rep, err := NewRunner(Options{Renderer: &stubRenderer{}, Recorder: rec, Base: config.DefaultRenderConfig()}).
		Run(ctx, Job{Projects: []Project{{Name: "a", InputsDir: project(t, "x.jpg")}}})
	assert.ErrorIs(t, err, failure.ErrCancelled)
	assert.Equal(t, 1, rep.Count(StatusCancelled))
	assert.Len(t, rec.entries, 1)
}

func TestRunAppliesPresetAndOverrides(t *testing.T) {
	presetPath := filepath.Join(t.TempDir(), "p.json")
	require.NoError(t, os.WriteFile(presetPath, []byte(`{"preset": {
		"Reels": {"project_type": "slideshow", "use_crossfade": false, "use_bg_music": true},
		"Other": {"project_type": "montage"}
	}}`), 0o644))
	dir := project(t, "01.jpg", "main.mp3", "ambient.mp3")
	bg := filepath.Join(t.TempDir(), "override.mp3")
	require.NoError(t, os.WriteFile(bg, nil, 0o644))

	r := &stubRenderer{}
	rep, err := NewRunner(Options{Renderer: r, Base: config.DefaultRenderConfig()}).Run(context.Background(), Job{
		PresetFile: presetPath + ":Reels",
		GPUMode:    "cpu",
		BgMusic:    bg,
		Projects:   []Project{{Name: "p", InputsDir: dir}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusDone, rep.Projects[0].Status)

	req := r.byName()["p"]
	assert.Equal(t, render.Slideshow, req.Mode)
	assert.False(t, req.Config.Crossfade.Enabled)
	assert.Equal(t, "cpu", req.Config.Encoder.GPUMode)
	require.NotNil(t, req.Inputs.BackgroundMusic)
	assert.Equal(t, bg, req.Inputs.BackgroundMusic.Path)

	_, err = NewRunner(Options{Renderer: r}).Run(context.Background(), Job{
		PresetFile: presetPath,
		Projects:   []Project{{Name: "p", InputsDir: dir}},
	})
	assert.Error(t, err, "two profiles and none named")
}

func TestRunTakesSnapshotPerProject(t *testing.T) {
	var calls atomic.Int32
	r := &stubRenderer{}
	_, err := NewRunner(Options{
		Renderer: r,
		Snapshot: func() config.RenderConfig {
			c := config.DefaultRenderConfig()
			c.ImageDuration = float64(4 + calls.Add(1))
			return c
		},
	}).Run(context.Background(), Job{Projects: []Project{
		{Name: "a", InputsDir: project(t, "x.jpg", "main.mp3")},
		{Name: "b", InputsDir: project(t, "x.jpg", "main.mp3")},
	}})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	reqs := r.byName()
	assert.ElementsMatch(t, []float64{5, 6}, []float64{reqs["a"].Config.ImageDuration, reqs["b"].Config.ImageDuration})
}
