// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "list.txt")
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "it's.mp4")

	require.NoError(t, WriteConcatList(list, []string{a, b}))
	data, err := os.ReadFile(list)
	require.NoError(t, err)
	want := "file '" + a + "'\n" + "file '" + filepath.Join(dir, `it'\''s.mp4`) + "'\n"
	assert.Equal(t, want, string(data))
}
