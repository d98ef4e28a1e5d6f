// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/metrics"
)

// ProbeInfo is what the renderer needs to know about a media file.
type ProbeInfo struct {
	Duration   float64
	HasAudio   bool
	HasVideo   bool
	Width      int
	Height     int
	FormatName string
}

// Prober reads media metadata.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

const defaultProbeTimeout = 30 * time.Second

// FFprobe implements Prober with the ffprobe binary.
type FFprobe struct {
	bin     string
	timeout time.Duration
	grace   time.Duration
}

// NewFFprobe creates a prober. Each call is bounded by timeout.
func NewFFprobe(bin string, timeout, grace time.Duration) *FFprobe {
	if bin == "" {
		bin = "ffprobe"
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &FFprobe{bin: bin, timeout: timeout, grace: grace}
}

// Probe runs ffprobe on path. Any failure wraps failure.ErrProbe.
func (p *FFprobe) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	if _, err := os.Stat(path); err != nil {
		metrics.IncProbe("error")
		return ProbeInfo{}, failure.New(failure.ErrProbe, "probe", path, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := engine.Capture(ctx, p.bin, p.grace,
		"-v", "error", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		metrics.IncProbe("error")
		return ProbeInfo{}, failure.New(failure.ErrProbe, "probe", path, err)
	}

	info, err := ParseProbe(out)
	if err != nil {
		metrics.IncProbe("error")
		return ProbeInfo{}, failure.New(failure.ErrProbe, "probe", path, err)
	}
	metrics.IncProbe("ok")
	return info, nil
}

type probeData struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Duration  string `json:"duration,omitempty"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration   string `json:"duration"`
		FormatName string `json:"format_name"`
	} `json:"format"`
}

// ParseProbe decodes ffprobe JSON. The container duration wins; a stream
// duration is used when the container reports none. Non-positive or missing
// durations are errors.
func ParseProbe(data []byte) (ProbeInfo, error) {
	var pd probeData
	if err := json.Unmarshal(data, &pd); err != nil {
		return ProbeInfo{}, fmt.Errorf("decode ffprobe output: %w", err)
	}

	info := ProbeInfo{FormatName: strings.Split(pd.Format.FormatName, ",")[0]}
	var streamDur float64
	for _, s := range pd.Streams {
		switch s.CodecType {
		case "video":
			info.HasVideo = true
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
			}
		case "audio":
			info.HasAudio = true
		}
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > streamDur {
			streamDur = d
		}
	}

	dur, err := strconv.ParseFloat(strings.TrimSpace(pd.Format.Duration), 64)
	if err != nil || dur <= 0 {
		dur = streamDur
	}
	if dur <= 0 {
		return ProbeInfo{}, fmt.Errorf("no usable duration (format %q)", pd.Format.Duration)
	}
	info.Duration = dur
	return info, nil
}
