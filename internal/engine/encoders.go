// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// GPUMode is the operator's encoder back end preference.
type GPUMode string

const (
	GPUAuto   GPUMode = "auto"
	GPUNvidia GPUMode = "nvidia"
	GPUAMD    GPUMode = "amd"
	GPUIntel  GPUMode = "intel"
	GPUCPU    GPUMode = "cpu"
)

// ParseGPUMode parses a mode name. Empty means auto.
func ParseGPUMode(s string) (GPUMode, error) {
	switch m := GPUMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return GPUAuto, nil
	case GPUAuto, GPUNvidia, GPUAMD, GPUIntel, GPUCPU:
		return m, nil
	}
	return "", fmt.Errorf("unknown gpu mode %q", s)
}

// Capabilities lists the hardware encoders the engine build offers.
type Capabilities struct {
	NVENC bool
	AMF   bool
	QSV   bool
}

// Any reports whether any hardware encoder is available.
func (c Capabilities) Any() bool { return c.NVENC || c.AMF || c.QSV }

func (c Capabilities) String() string {
	var names []string
	if c.AMF {
		names = append(names, "h264_amf")
	}
	if c.NVENC {
		names = append(names, "h264_nvenc")
	}
	if c.QSV {
		names = append(names, "h264_qsv")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseEncoderList scans `ffmpeg -encoders` output.
func ParseEncoderList(out string) Capabilities {
	var c Capabilities
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[1] {
		case "h264_nvenc":
			c.NVENC = true
		case "h264_amf":
			c.AMF = true
		case "h264_qsv":
			c.QSV = true
		}
	}
	return c
}

const detectTimeout = 15 * time.Second

// DetectEncoders asks the engine binary which hardware encoders it has.
func DetectEncoders(ctx context.Context, bin string) (Capabilities, error) {
	ctx, cancel := context.WithTimeout(ctx, detectTimeout)
	defer cancel()

	out, err := Capture(ctx, bin, 0, "-hide_banner", "-encoders")
	if err != nil {
		return Capabilities{}, fmt.Errorf("detect encoders: %w", err)
	}
	return ParseEncoderList(string(out)), nil
}

// Encoder is a video encoder selection rendered as engine arguments.
type Encoder struct {
	Codec string
	args  []string
}

// Args returns the encoder arguments. The zero Encoder is libx264 fast/22.
func (e Encoder) Args() []string {
	if e.Codec == "" {
		return CPUEncoder(22, "fast").Args()
	}
	return append([]string(nil), e.args...)
}

func (e Encoder) String() string {
	if e.Codec == "" {
		return "libx264"
	}
	return e.Codec
}

// Hardware reports whether the encoder runs on a GPU.
func (e Encoder) Hardware() bool {
	return e.Codec != "" && e.Codec != "libx264"
}

// CPUEncoder is libx264 with the given quality knobs.
func CPUEncoder(crf int, preset string) Encoder {
	if preset == "" {
		preset = "fast"
	}
	return Encoder{Codec: "libx264", args: []string{"-c:v", "libx264", "-preset", preset, "-crf", strconv.Itoa(crf)}}
}

var (
	nvencEncoder = Encoder{Codec: "h264_nvenc", args: []string{"-c:v", "h264_nvenc", "-preset", "fast", "-b:v", "8M"}}
	amfEncoder   = Encoder{Codec: "h264_amf", args: []string{"-c:v", "h264_amf", "-quality", "speed", "-rc", "cbr", "-b:v", "8M"}}
	qsvEncoder   = Encoder{Codec: "h264_qsv", args: []string{"-c:v", "h264_qsv", "-preset", "fast", "-b:v", "8M"}}
)

// EncoderSettings picks the encoder for a mode. Forced GPU modes never fall
// back; auto prefers AMD, then NVIDIA, then Intel, then the CPU.
func EncoderSettings(mode GPUMode, detected Capabilities, crf int, preset string) Encoder {
	switch mode {
	case GPUCPU:
		return CPUEncoder(crf, preset)
	case GPUNvidia:
		return nvencEncoder
	case GPUAMD:
		return amfEncoder
	case GPUIntel:
		return qsvEncoder
	}
	switch {
	case detected.AMF:
		return amfEncoder
	case detected.NVENC:
		return nvencEncoder
	case detected.QSV:
		return qsvEncoder
	}
	return CPUEncoder(crf, preset)
}
