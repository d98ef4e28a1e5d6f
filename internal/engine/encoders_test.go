// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const encoderList = `Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
 V....D h264_amf             AMD AMF H.264 Encoder (codec h264)
 V....D h264_nvenc           NVIDIA NVENC H.264 encoder (codec h264)
 A....D aac                  AAC (Advanced Audio Coding)
`

func TestParseEncoderList(t *testing.T) {
	c := ParseEncoderList(encoderList)
	assert.Equal(t, Capabilities{NVENC: true, AMF: true}, c)
	assert.True(t, c.Any())
	assert.Equal(t, "h264_amf,h264_nvenc", c.String())
	assert.Equal(t, "none", Capabilities{}.String())
}

func TestEncoderSettings(t *testing.T) {
	all := Capabilities{NVENC: true, AMF: true, QSV: true}
	tests := []struct {
		name     string
		mode     GPUMode
		detected Capabilities
		want     string
	}{
		{"auto prefers amd", GPUAuto, all, "h264_amf"},
		{"auto nvidia", GPUAuto, Capabilities{NVENC: true, QSV: true}, "h264_nvenc"},
		{"auto intel", GPUAuto, Capabilities{QSV: true}, "h264_qsv"},
		{"auto falls back to cpu", GPUAuto, Capabilities{}, "libx264"},
		{"forced nvidia without detection", GPUNvidia, Capabilities{}, "h264_nvenc"},
		{"forced cpu with gpus", GPUCPU, all, "libx264"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncoderSettings(tt.mode, tt.detected, 20, "medium").Codec)
		})
	}

	cpu := EncoderSettings(GPUCPU, all, 20, "medium")
	assert.Equal(t, []string{"-c:v", "libx264", "-preset", "medium", "-crf", "20"}, cpu.Args())
	assert.False(t, cpu.Hardware())
	assert.Equal(t, []string{"-c:v", "h264_amf", "-quality", "speed", "-rc", "cbr", "-b:v", "8M"}, EncoderSettings(GPUAMD, Capabilities{}, 0, "").Args())
}

func TestZeroEncoderIsCPU(t *testing.T) {
	var e Encoder
	assert.Equal(t, []string{"-c:v", "libx264", "-preset", "fast", "-crf", "22"}, e.Args())
	assert.Equal(t, "libx264", e.String())
}

func TestParseGPUMode(t *testing.T) {
	m, err := ParseGPUMode(" NVIDIA ")
	require.NoError(t, err)
	assert.Equal(t, GPUNvidia, m)

	m, err = ParseGPUMode("")
	require.NoError(t, err)
	assert.Equal(t, GPUAuto, m)

	_, err = ParseGPUMode("voodoo")
	assert.Error(t, err)
}
