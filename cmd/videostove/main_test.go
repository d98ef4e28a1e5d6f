// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0o600))
	}
}

func TestRunUsage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Usage:")

	code, _, stderr = runCLI(t, "transmogrify")
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "Unknown command: transmogrify")

	code, stdout, _ := runCLI(t, "help")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "videostove render")
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.NotEmpty(t, stdout)

	code, stdout, _ = runCLI(t, "version", "--json")
	require.Equal(t, exitOK, code)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.NotEmpty(t, got)
}

func TestRunScan(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "holiday"), "1.jpg", "2.png", "main.mp3")
	touch(t, filepath.Join(root, "clips"), "a.mp4", "b.jpg")

	code, stdout, stderr := runCLI(t, "scan", root)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "holiday")
	assert.Contains(t, stdout, "clips")
	assert.Contains(t, stdout, "main.mp3")

	code, stdout, _ = runCLI(t, "scan", "-mode", "slideshow", root)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "slideshow")
	assert.NotContains(t, stdout, "montage")

	code, _, _ = runCLI(t, "scan")
	assert.Equal(t, exitUsage, code)

	code, _, _ = runCLI(t, "scan", filepath.Join(root, "missing"))
	assert.Equal(t, exitFailure, code)
}

func TestRunRenderDryRun(t *testing.T) {
	t.Setenv("VIDEOSTOVE_CONFIG", "")
	t.Setenv("VIDEOSTOVE_HISTORY_PATH", "")
	dir := filepath.Join(t.TempDir(), "holiday")
	touch(t, dir, "1.jpg", "2.jpg", "main.mp3")

	code, stdout, stderr := runCLI(t, "render", "-env-file", "", "-dry-run", dir)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "Project:     holiday")
	assert.Contains(t, stdout, "Mode:        slideshow")
	assert.Contains(t, stdout, "Images:      2")
	assert.Contains(t, stdout, "main.mp3")
}

func TestRunRenderRejectsIneligibleMode(t *testing.T) {
	t.Setenv("VIDEOSTOVE_CONFIG", "")
	t.Setenv("VIDEOSTOVE_HISTORY_PATH", "")
	dir := filepath.Join(t.TempDir(), "stills")
	touch(t, dir, "1.jpg", "main.mp3")

	code, _, stderr := runCLI(t, "render", "-env-file", "", "-dry-run", "-mode", "montage", dir)
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "no videos found")
}

func TestRunPresets(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "warm.json"),
		[]byte(`{"project_type":"slideshow","image_duration":6}`), 0o600))

	code, stdout, stderr := runCLI(t, "presets", "-v", dir)
	require.Equal(t, exitOK, code, stderr)
	assert.Contains(t, stdout, "warm")
	assert.Contains(t, stdout, "slideshow")
}
