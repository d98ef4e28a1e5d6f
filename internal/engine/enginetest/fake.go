// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package enginetest provides an in-memory engine for pipeline tests. It
// records every request, writes a small placeholder output file and tracks
// the duration each output would have, so probes of produced files are
// deterministic. Durations are also keyed by file content, so byte copies
// and renamed outputs keep their duration.
package enginetest

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/ManuGH/videostove/internal/engine"
	"github.com/ManuGH/videostove/internal/failure"
	"github.com/ManuGH/videostove/internal/media"
)

// Fake implements engine.Engine and media.Prober.
type Fake struct {
	mu        sync.Mutex
	requests  []engine.Request
	durations map[string]float64
	audio     map[string]bool
	byContent map[string]float64
	failWhen  []func(engine.Request) error
	probes    int
}

var (
	_ engine.Engine = (*Fake)(nil)
	_ media.Prober  = (*Fake)(nil)
)

// New returns an empty fake.
func New() *Fake {
	return &Fake{durations: make(map[string]float64), audio: make(map[string]bool), byContent: make(map[string]float64)}
}

// SetDuration registers the duration of an input file.
func (f *Fake) SetDuration(path string, seconds float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.durations[path] = seconds
}

// SetAudio marks an input file as carrying audio.
func (f *Fake) SetAudio(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio[path] = true
}

// FailKind makes every request of kind fail with err.
func (f *Fake) FailKind(kind string, err error) {
	f.FailWhen(func(r engine.Request) error {
		if r.Kind() == kind {
			return err
		}
		return nil
	})
}

// FailWhen installs a predicate consulted before each request runs.
func (f *Fake) FailWhen(fn func(engine.Request) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWhen = append(f.failWhen, fn)
}

// Requests returns a copy of the recorded requests in order.
func (f *Fake) Requests() []engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]engine.Request(nil), f.requests...)
}

// Kinds returns the kinds of the recorded requests in order.
func (f *Fake) Kinds() []string {
	var kinds []string
	for _, r := range f.Requests() {
		kinds = append(kinds, r.Kind())
	}
	return kinds
}

// Count returns how many requests of kind were recorded.
func (f *Fake) Count(kind string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Kind() == kind {
			n++
		}
	}
	return n
}

// Probes returns the number of Probe calls.
func (f *Fake) Probes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.probes
}

// Run records req, then writes its output unless a failure rule matches.
// A failing request still records, and leaves no output behind.
func (f *Fake) Run(ctx context.Context, req engine.Request) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", req.Kind(), err)
	}
	f.mu.Lock()
	f.requests = append(f.requests, req)
	rules := append([]func(engine.Request) error(nil), f.failWhen...)
	f.mu.Unlock()

	for _, rule := range rules {
		if err := rule(req); err != nil {
			return &engine.RunError{Kind: req.Kind(), ExitCode: 1, Tail: []string{err.Error()}, Err: err}
		}
	}

	out, dur, hasAudio, err := f.outcome(req)
	if err != nil {
		return &engine.RunError{Kind: req.Kind(), ExitCode: 1, Tail: []string{err.Error()}, Err: err}
	}
	content := out + ": " + req.Describe() + "\n"
	if err := os.WriteFile(out, []byte(content), 0o644); err != nil {
		return err
	}
	f.mu.Lock()
	f.durations[out] = dur
	f.byContent[content] = dur
	if hasAudio {
		f.audio[out] = true
	} else {
		delete(f.audio, out)
	}
	f.mu.Unlock()
	return nil
}

func (f *Fake) dur(path string) (float64, error) {
	f.mu.Lock()
	d, ok := f.durations[path]
	f.mu.Unlock()
	if ok {
		return d, nil
	}
	if data, err := os.ReadFile(path); err == nil {
		f.mu.Lock()
		d, ok = f.byContent[string(data)]
		f.mu.Unlock()
		if ok {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%s: no such file or unknown duration", path)
}

func (f *Fake) sum(paths []string) (float64, error) {
	total := 0.0
	for _, p := range paths {
		d, err := f.dur(p)
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}

func capAt(d, limit float64) float64 {
	if limit > 0 && limit < d {
		return limit
	}
	return d
}

// outcome computes the output path and duration the real engine would produce.
func (f *Fake) outcome(req engine.Request) (string, float64, bool, error) {
	switch r := req.(type) {
	case engine.AudioTranscodeRequest:
		d, err := f.dur(r.Input)
		return r.Output, d, true, err
	case engine.MotionRequest:
		if _, err := os.Stat(r.Image); err != nil {
			return "", 0, false, err
		}
		return r.Output, r.Duration, false, nil
	case engine.NormalizeVideoRequest:
		d, err := f.dur(r.Input)
		return r.Output, capAt(d, r.Trim), false, err
	case engine.ConcatRequest:
		inputs, err := readConcatList(r.ListPath)
		if err != nil {
			return "", 0, false, err
		}
		d, err := f.sum(inputs)
		return r.Output, capAt(d, r.Duration), false, err
	case engine.ConcatFilterRequest:
		d, err := f.sum(r.Inputs)
		return r.Output, capAt(d, r.Duration), false, err
	case engine.XfadeRequest:
		d, err := f.sum([]string{r.First, r.Second})
		return r.Output, d - r.Duration, false, err
	case engine.LoopTrimRequest:
		d, err := f.dur(r.Input)
		if err != nil {
			return "", 0, false, err
		}
		passes := math.Max(1, float64(r.Loops))
		return r.Output, math.Min(d*passes, r.Target), false, nil
	case engine.BlendRequest:
		if _, err := f.dur(r.Base); err != nil {
			return "", 0, false, err
		}
		if _, err := f.dur(r.Overlay); err != nil {
			return "", 0, false, err
		}
		return r.Output, r.Target, false, nil
	case engine.FadeRequest:
		d, err := f.dur(r.Input)
		return r.Output, d, false, err
	case engine.BlackFadeJoinRequest:
		d, err := f.sum([]string{r.Intro, r.Main})
		return r.Output, d, false, err
	case engine.MixRequest:
		if _, err := f.dur(r.Main); err != nil {
			return "", 0, false, err
		}
		return r.Output, r.Duration, true, nil
	case engine.MuxRequest:
		d, err := f.dur(r.Video)
		if err != nil {
			return "", 0, false, err
		}
		if _, err := f.dur(r.Audio); err != nil {
			return "", 0, false, err
		}
		return r.Output, capAt(d, r.Duration), true, nil
	case engine.ExtractAudioRequest:
		d, err := f.dur(r.Input)
		return r.Output, d, true, err
	case engine.SubtitleBurnRequest:
		d, err := f.dur(r.Input)
		f.mu.Lock()
		has := f.audio[r.Input]
		f.mu.Unlock()
		return r.Output, d, has, err
	}
	return "", 0, false, fmt.Errorf("enginetest: unsupported request %T", req)
}

func readConcatList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var inputs []string
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "file '") {
			continue
		}
		p := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
		inputs = append(inputs, strings.ReplaceAll(p, `'\''`, "'"))
	}
	return inputs, sc.Err()
}

// Probe answers from the durations recorded by Run and SetDuration.
func (f *Fake) Probe(ctx context.Context, path string) (media.ProbeInfo, error) {
	if err := ctx.Err(); err != nil {
		return media.ProbeInfo{}, err
	}
	f.mu.Lock()
	f.probes++
	has := f.audio[path]
	f.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return media.ProbeInfo{}, failure.New(failure.ErrProbe, "probe", path, err)
	}
	d, err := f.dur(path)
	if err != nil || d <= 0 {
		return media.ProbeInfo{}, failure.New(failure.ErrProbe, "probe", path, fmt.Errorf("no duration"))
	}
	return media.ProbeInfo{Duration: d, HasAudio: has, HasVideo: !has || strings.HasSuffix(path, ".mp4"), FormatName: "fake"}, nil
}
