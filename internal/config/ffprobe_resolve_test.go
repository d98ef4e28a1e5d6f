// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFFprobeBin(t *testing.T) {
	dir := t.TempDir()
	withProbe := filepath.Join(dir, "with")
	require.NoError(t, os.MkdirAll(withProbe, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(withProbe, "ffprobe"), []byte("stub"), 0o755))

	tests := []struct {
		name    string
		ffprobe string
		ffmpeg  string
		want    string
	}{
		{"explicit wins", " /custom/ffprobe ", "/custom/ffmpeg", "/custom/ffprobe"},
		{"sibling derived", "", filepath.Join(withProbe, "ffmpeg"), filepath.Join(withProbe, "ffprobe")},
		{"sibling missing", "", filepath.Join(dir, "ffmpeg"), "ffprobe"},
		{"bare ffmpeg uses PATH", "", "ffmpeg", "ffprobe"},
		{"non-ffmpeg name", "", filepath.Join(withProbe, "avconv"), "ffprobe"},
		{"empty", "", "", "ffprobe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveFFprobeBin(tt.ffprobe, tt.ffmpeg))
		})
	}
}
