// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/ManuGH/videostove/internal/batch"
	"github.com/ManuGH/videostove/internal/render"
)

func newBar(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// stageBar shows the stages of one render. A nil *stageBar is a no-op.
type stageBar struct {
	w    io.Writer
	name string
	bar  *progressbar.ProgressBar
}

func newStageBar(w io.Writer, name string) *stageBar {
	return &stageBar{w: w, name: name}
}

func (s *stageBar) update(p render.Progress) {
	if s == nil {
		return
	}
	if s.bar == nil {
		s.bar = newBar(s.w, p.Total, s.name)
	}
	s.bar.Describe(fmt.Sprintf("%s: %s", s.name, p.Stage))
	_ = s.bar.Set(p.Index)
}

func (s *stageBar) finish() {
	if s == nil || s.bar == nil {
		return
	}
	_ = s.bar.Finish()
	fmt.Fprintln(s.w)
}

// batchBar counts finished batch projects. Updates arrive concurrently.
type batchBar struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func newBatchBar(w io.Writer, total int) *batchBar {
	return &batchBar{bar: newBar(w, total, "batch")}
}

func (b *batchBar) update(res batch.ProjectResult) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	switch res.Status {
	case batch.StatusRunning:
		b.bar.Describe("batch: " + res.Name)
	case batch.StatusDone, batch.StatusFailed, batch.StatusSkipped, batch.StatusCancelled:
		_ = b.bar.Add(1)
	}
}

func (b *batchBar) finish() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_ = b.bar.Finish()
}
