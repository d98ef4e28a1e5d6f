// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Range(t *testing.T) {
	tests := []struct {
		name    string
		value   int
		wantErr bool
	}{
		{"min", 0, false},
		{"max", 51, false},
		{"below", -1, true},
		{"above", 52, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Range("crf", tt.value, 0, 51)
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_FloatRange(t *testing.T) {
	tests := []struct {
		name    string
		value   float64
		wantErr bool
	}{
		{"lower bound", 0.1, false},
		{"inside", 8, false},
		{"upper bound", 3600, false},
		{"zero", 0, true},
		{"too long", 3600.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.FloatRange("imageDuration", tt.value, 0.1, 3600)
			assert.Equal(t, tt.wantErr, !v.IsValid())
		})
	}
}

func TestValidator_ListenAddr(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"", false},
		{":9090", false},
		{"127.0.0.1:8080", false},
		{"localhost", true},
		{"host:99999", true},
		{"host:http", true},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			v := New()
			v.ListenAddr("listen", tt.addr)
			assert.Equal(t, tt.wantErr, !v.IsValid(), "%v", v.Err())
		})
	}
}

func TestValidator_Directory(t *testing.T) {
	tmp := t.TempDir()

	v := New()
	v.Directory("work", filepath.Join(tmp, "new"), false)
	require.True(t, v.IsValid())
	info, err := os.Stat(filepath.Join(tmp, "new"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	v = New()
	v.Directory("work", filepath.Join(tmp, "missing"), true)
	assert.False(t, v.IsValid())

	file := filepath.Join(tmp, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	v = New()
	v.Directory("work", file, true)
	assert.False(t, v.IsValid())
}

func TestValidator_File(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "overlay.mp4")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	v := New()
	v.File("overlay", "")
	v.File("overlay", file)
	assert.True(t, v.IsValid())

	v.File("overlay", tmp)
	v.File("overlay", filepath.Join(tmp, "nope"))
	assert.Len(t, v.Errors(), 2)
}

func TestValidator_OneOf(t *testing.T) {
	v := New()
	v.OneOf("mode", "cpu", []string{"auto", "cpu"})
	assert.True(t, v.IsValid())
	v.OneOf("mode", "tpu", []string{"auto", "cpu"})
	assert.False(t, v.IsValid())
}

func TestValidator_WithPrefix(t *testing.T) {
	v := New()
	render := v.WithPrefix("render.")
	render.Range("crf", 99, 0, 51)
	render.WithPrefix("overlay.").FloatRange("opacity", 2, 0, 1)
	v.NotEmpty("workRoot", " ")

	errs := v.Errors()
	require.Len(t, errs, 3)
	assert.Equal(t, "render.crf", errs[0].Field)
	assert.Equal(t, "render.overlay.opacity", errs[1].Field)
	assert.Equal(t, "workRoot", errs[2].Field)
	assert.False(t, render.IsValid())
}

func TestValidationError(t *testing.T) {
	v := New()
	assert.NoError(t, v.Err())

	v.Positive("concurrency", 0)
	err := v.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed for concurrency: value must be positive, got 0", err.Error())

	v.Custom("x", 1, func(interface{}) error { return errors.New("bad") })
	var verr ValidationError
	require.ErrorAs(t, v.Err(), &verr)
	assert.Len(t, verr.Errors(), 2)
	assert.Contains(t, verr.Error(), "; ")
}

func TestParseLogLevel(t *testing.T) {
	l, err := ParseLogLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, l)

	_, err = ParseLogLevel("trace")
	assert.ErrorIs(t, err, ErrInvalidLogLevel)
}
