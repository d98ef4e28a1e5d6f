// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func TestKindOf(t *testing.T) {
	tests := map[string]Kind{
		"a.JPG": KindImage, "b.webp": KindImage, "c.MoV": KindVideo,
		"d.mkv": KindVideo, "e.flac": KindAudio, "f.m4a": KindAudio,
	}
	for path, want := range tests {
		got, ok := KindOf(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := KindOf("notes.txt")
	assert.False(t, ok)
}

func TestNaturalSort(t *testing.T) {
	names := []string{"img10.jpg", "img2.jpg", "IMG1.jpg", "img02b.jpg", "a.jpg"}
	slices.SortFunc(names, NaturalCompare)
	assert.Equal(t, []string{"a.jpg", "IMG1.jpg", "img2.jpg", "img02b.jpg", "img10.jpg"}, names)
}

func TestScanProject(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "img10.png"))
	touch(t, filepath.Join(dir, "img2.png"))
	touch(t, filepath.Join(dir, "sub", "img3.jpg"))
	touch(t, filepath.Join(dir, "intro.mp4"))
	touch(t, filepath.Join(dir, "particles_overlay.mp4"))
	touch(t, filepath.Join(dir, "a_voice.mp3"))
	touch(t, filepath.Join(dir, "voice_main.wav"))
	touch(t, filepath.Join(dir, "ambient.mp3"))
	touch(t, filepath.Join(dir, "out", "old.mp4"))
	touch(t, filepath.Join(dir, "assets", "x.png"))
	touch(t, filepath.Join(dir, "readme.txt"))

	s, err := ScanProject(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "img2.png"), filepath.Join(dir, "img10.png"), filepath.Join(dir, "sub", "img3.jpg")}, s.Images)
	assert.Equal(t, []string{filepath.Join(dir, "intro.mp4")}, s.Videos)
	assert.Equal(t, []string{filepath.Join(dir, "particles_overlay.mp4")}, s.Overlays)
	assert.Equal(t, filepath.Join(dir, "voice_main.wav"), s.MainAudio)
	assert.Equal(t, filepath.Join(dir, "ambient.mp3"), s.BackgroundMusic)
	assert.EqualValues(t, 8, s.TotalSize)

	in := s.Inputs(InputOptions{BackgroundMusic: true, Overlay: true})
	require.NotNil(t, in.MainAudio)
	require.NotNil(t, in.BackgroundMusic)
	require.NotNil(t, in.Overlay)
	assert.Len(t, in.Images, 3)
	assert.NoError(t, in.Validate(Needs{Videos: true}))

	in = s.Inputs(InputOptions{})
	assert.Nil(t, in.BackgroundMusic)
	assert.Nil(t, in.Overlay)
}

func TestMainAudioFallsBackToFirst(t *testing.T) {
	assert.Equal(t, "a.mp3", selectMainAudio([]string{"a.mp3", "b.mp3"}))
	assert.Equal(t, "b.mp3", selectBackground([]string{"a.mp3", "b.mp3"}, "a.mp3"))
	assert.Empty(t, selectBackground([]string{"a.mp3"}, "a.mp3"))
	assert.Empty(t, selectMainAudio(nil))
}

func TestEligibility(t *testing.T) {
	tests := []struct {
		name     string
		scan     Scan
		mode     string
		eligible bool
	}{
		{"slideshow images only", Scan{Images: []string{"a"}}, "slideshow", true},
		{"slideshow with video", Scan{Images: []string{"a"}, Videos: []string{"v"}}, "slideshow", false},
		{"slideshow empty", Scan{}, "slideshow", false},
		{"montage needs video", Scan{Images: []string{"a"}}, "montage", false},
		{"montage", Scan{Images: []string{"a"}, Videos: []string{"v"}}, "montage", true},
		{"videos only", Scan{Videos: []string{"v"}}, "videos_only", true},
		{"unknown", Scan{Videos: []string{"v"}}, "gif", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tt.scan.Eligibility(tt.mode)
			assert.Equal(t, tt.eligible, e.Eligible)
			assert.NotEmpty(t, e.Reason)
		})
	}
}

func TestValidateInputs(t *testing.T) {
	dir := t.TempDir()
	audio := Asset{Path: touch(t, filepath.Join(dir, "main.mp3")), Kind: KindAudio}
	img := Asset{Path: touch(t, filepath.Join(dir, "a.png")), Kind: KindImage}

	assert.ErrorIs(t, ProjectInputs{}.Validate(Needs{}), ErrNoMainAudio)
	assert.ErrorIs(t, ProjectInputs{MainAudio: &audio}.Validate(Needs{Images: true}), ErrNoImages)
	assert.ErrorIs(t, ProjectInputs{MainAudio: &audio, Images: []Asset{img}}.Validate(Needs{Videos: true}), ErrNoVideos)
	assert.ErrorIs(t, ProjectInputs{MainAudio: &audio}.Validate(Needs{ImagesOrVideos: true}), ErrNoVisuals)
	assert.NoError(t, ProjectInputs{MainAudio: &audio, Images: []Asset{img}}.Validate(Needs{Images: true}))

	missing := Asset{Path: filepath.Join(dir, "gone.png"), Kind: KindImage}
	in := ProjectInputs{MainAudio: &audio, Images: []Asset{img, missing}}
	require.NoError(t, in.Validate(Needs{Images: true}), "structure only")

	err := in.CheckFiles()
	var me *MissingError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, missing, me.Asset)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	gone := Asset{Path: filepath.Join(dir, "gone.mp3"), Kind: KindAudio}
	err = ProjectInputs{MainAudio: &gone, Images: []Asset{missing}}.CheckFiles()
	require.ErrorAs(t, err, &me)
	assert.Equal(t, KindAudio, me.Asset.Kind, "main audio is checked first")

	assert.NoError(t, ProjectInputs{MainAudio: &audio, Images: []Asset{img}}.CheckFiles())
}

func TestListProjects(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"p10", "p2", "out", ".hidden"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	touch(t, filepath.Join(root, "file.txt"))

	dirs, err := ListProjects(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "p2"), filepath.Join(root, "p10")}, dirs)
}

type countingProber struct {
	calls int
	info  ProbeInfo
	err   error
}

func (p *countingProber) Probe(context.Context, string) (ProbeInfo, error) {
	p.calls++
	return p.info, p.err
}

func TestProbeCacheMemoises(t *testing.T) {
	p := &countingProber{info: ProbeInfo{Duration: 12.5, HasAudio: true}}
	c := NewProbeCache(p)
	ctx := context.Background()

	d, err := c.Duration(ctx, "a.mp4")
	require.NoError(t, err)
	assert.Equal(t, 12.5, d)
	has, err := c.HasAudio(ctx, "a.mp4")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, 1, p.calls)

	c.Forget("a.mp4")
	_, _ = c.Duration(ctx, "a.mp4")
	assert.Equal(t, 2, p.calls)
}

func TestProbeCacheDoesNotCacheErrors(t *testing.T) {
	p := &countingProber{err: errors.New("boom")}
	c := NewProbeCache(p)
	_, err := c.Duration(context.Background(), "a.mp4")
	require.Error(t, err)
	_, _ = c.Duration(context.Background(), "a.mp4")
	assert.Equal(t, 2, p.calls)
}
