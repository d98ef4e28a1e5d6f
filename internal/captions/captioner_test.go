// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/engine/enginetest"
)

type stubTranscriber struct {
	segments  []Segment
	err       error
	wantWords bool
	audio     string
}

func (s *stubTranscriber) Transcribe(_ context.Context, audioPath string, wantWords bool) ([]Segment, error) {
	s.audio, s.wantWords = audioPath, wantWords
	return s.segments, s.err
}

func setup(t *testing.T) (*enginetest.Fake, string, config.CaptionsConfig) {
	t.Helper()
	fake := enginetest.New()
	video := filepath.Join(t.TempDir(), "final.mp4")
	require.NoError(t, os.WriteFile(video, []byte("original"), 0o644))
	fake.SetDuration(video, 10)
	fake.SetAudio(video)
	cfg := config.DefaultRenderConfig().Captions
	cfg.Enabled = true
	return fake, video, cfg
}

func burns(f *enginetest.Fake) []engine.SubtitleBurnRequest {
	var out []engine.SubtitleBurnRequest
	for _, r := range f.Requests() {
		if b, ok := r.(engine.SubtitleBurnRequest); ok {
			out = append(out, b)
		}
	}
	return out
}

func onlyFile(t *testing.T, path string) {
	t.Helper()
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{filepath.Base(path)}, names, "no scratch or pending files left")
}

func TestApplyBurnsSRT(t *testing.T) {
	fake, video, cfg := setup(t)
	tr := &stubTranscriber{segments: []Segment{{Text: "Hello world.", Start: 0.5, End: 2}}}
	c := New(Options{Engine: fake, Transcriber: tr, FontsDir: "/fonts"})

	require.NoError(t, c.Apply(context.Background(), video, cfg))

	assert.Equal(t, []string{"extract_audio", "subtitle_burn"}, fake.Kinds())
	assert.False(t, tr.wantWords)
	assert.True(t, strings.HasSuffix(tr.audio, ".wav"))

	b := burns(fake)
	require.Len(t, b, 1)
	assert.Equal(t, video, b[0].Input)
	assert.Equal(t, ".srt", filepath.Ext(b[0].Subtitles))
	assert.Contains(t, b[0].ForceStyle, "FontName=Arial")
	assert.Equal(t, "/fonts", b[0].FontsDir)
	assert.Equal(t, "mp4", b[0].Format)

	data, err := os.ReadFile(video)
	require.NoError(t, err)
	assert.Contains(t, string(data), "burn", "video replaced by the captioned version")
	onlyFile(t, video)

	info, err := fake.Probe(context.Background(), video)
	require.NoError(t, err)
	assert.Equal(t, 10.0, info.Duration)
}

func TestApplyKaraoke(t *testing.T) {
	fake, video, cfg := setup(t)
	cfg.Karaoke = true
	tr := &stubTranscriber{segments: []Segment{{
		Text: "sing along", Start: 0, End: 1,
		Words: []Word{{Text: "sing", Start: 0, End: 0.4}, {Text: "along", Start: 0.5, End: 1}},
	}}}
	c := New(Options{Engine: fake, Transcriber: tr})

	require.NoError(t, c.Apply(context.Background(), video, cfg))
	assert.True(t, tr.wantWords)
	b := burns(fake)
	require.Len(t, b, 1)
	assert.Equal(t, ".ass", filepath.Ext(b[0].Subtitles))
	assert.Empty(t, b[0].ForceStyle, "ASS carries its own style")
}

func TestApplyLivePacingAsksForWords(t *testing.T) {
	fake, video, cfg := setup(t)
	cfg.Pacing = "live"
	tr := &stubTranscriber{segments: []Segment{{Text: "a b", Start: 0, End: 1}}}

	require.NoError(t, New(Options{Engine: fake, Transcriber: tr}).Apply(context.Background(), video, cfg))
	assert.True(t, tr.wantWords)
}

func TestApplySkips(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		fake, video, cfg := setup(t)
		cfg.Enabled = false
		require.NoError(t, New(Options{Engine: fake, Transcriber: &stubTranscriber{}}).Apply(context.Background(), video, cfg))
		assert.Empty(t, fake.Requests())
	})

	t.Run("no speech", func(t *testing.T) {
		fake, video, cfg := setup(t)
		require.NoError(t, New(Options{Engine: fake, Transcriber: &stubTranscriber{}}).Apply(context.Background(), video, cfg))
		assert.Equal(t, []string{"extract_audio"}, fake.Kinds())
		data, err := os.ReadFile(video)
		require.NoError(t, err)
		assert.Equal(t, "original", string(data))
	})

	t.Run("karaoke without word timing", func(t *testing.T) {
		fake, video, cfg := setup(t)
		cfg.Karaoke = true
		tr := &stubTranscriber{segments: []Segment{{Text: "no words", Start: 0, End: 1}}}
		require.NoError(t, New(Options{Engine: fake, Transcriber: tr}).Apply(context.Background(), video, cfg))
		assert.Equal(t, 0, fake.Count("subtitle_burn"))
	})
}

func TestApplyFailures(t *testing.T) {
	t.Run("burn", func(t *testing.T) {
		fake, video, cfg := setup(t)
		fake.FailKind("subtitle_burn", errors.New("libass missing"))
		tr := &stubTranscriber{segments: []Segment{{Text: "Hello world.", Start: 0, End: 2}}}

		err := New(Options{Engine: fake, Transcriber: tr}).Apply(context.Background(), video, cfg)
		require.Error(t, err)
		data, rerr := os.ReadFile(video)
		require.NoError(t, rerr)
		assert.Equal(t, "original", string(data))
		onlyFile(t, video)
	})

	t.Run("transcriber", func(t *testing.T) {
		fake, video, cfg := setup(t)
		tr := &stubTranscriber{err: errors.New("model not found")}
		err := New(Options{Engine: fake, Transcriber: tr}).Apply(context.Background(), video, cfg)
		assert.ErrorContains(t, err, "model not found")
	})

	t.Run("not configured", func(t *testing.T) {
		fake, video, cfg := setup(t)
		err := New(Options{Engine: fake}).Apply(context.Background(), video, cfg)
		assert.ErrorIs(t, err, ErrNoTranscriber)
		assert.Empty(t, fake.Requests())
	})
}

func TestApplySidecar(t *testing.T) {
	fake, video, cfg := setup(t)
	cfg.Transcriber.Sidecar = true
	sidecar := SidecarPath(video)
	require.NoError(t, os.WriteFile(sidecar,
		[]byte(`{"segments":[{"text":"From a file.","start":0,"end":1.5}]}`), 0o644))

	require.NoError(t, New(Options{Engine: fake}).Apply(context.Background(), video, cfg))
	assert.Equal(t, 1, fake.Count("subtitle_burn"))
}
