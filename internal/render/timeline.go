// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package render

import "math"

// TimelineSegment places a source on the output timeline.
type TimelineSegment struct {
	Source   string
	Start    float64
	Duration float64
}

// Timeline is an append-only sequence of back-to-back segments.
type Timeline struct {
	segments []TimelineSegment
}

// Append adds a segment after the current end.
func (t *Timeline) Append(source string, duration float64) {
	t.segments = append(t.segments, TimelineSegment{Source: source, Start: t.Total(), Duration: duration})
}

// Total is the end of the last segment.
func (t *Timeline) Total() float64 {
	if len(t.segments) == 0 {
		return 0
	}
	last := t.segments[len(t.segments)-1]
	return last.Start + last.Duration
}

// Remaining is the time left until target, never negative.
func (t *Timeline) Remaining(target float64) float64 {
	return math.Max(0, target-t.Total())
}

// Segments returns a copy of the segments.
func (t *Timeline) Segments() []TimelineSegment {
	return append([]TimelineSegment(nil), t.segments...)
}

// MontagePlan is the duration arithmetic of a montage render.
type MontagePlan struct {
	IntroTotal float64
	// Remaining is the audio time left for the image cycle.
	Remaining float64
	// Cycle is the expected length of one pass over the images, after
	// crossfade overlaps.
	Cycle float64
	// UseImages is false when the intros already cover the audio or there
	// are no images.
	UseImages bool
	// LoopCycle is set when one pass is shorter than Remaining.
	LoopCycle bool
	// FadeOutLastImage is set when one pass fills Remaining to the frame,
	// so the last image ends the video. Otherwise the fade-out is applied
	// to the joined master.
	FadeOutLastImage bool
	// FadeInFirstImage is set when there are no intros to fade in.
	FadeInFirstImage bool
	// FadeOutLastIntro is set when the intros end the video.
	FadeOutLastIntro bool
}

// CycleDuration is the length of n clips of d seconds joined with
// crossfade overlaps of xfade seconds.
func CycleDuration(n int, d, xfade float64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*d - float64(n-1)*xfade
}

// PlanMontage computes the montage layout from intro durations, the audio
// length, the image count and the crossfade overlap (zero when disabled).
func PlanMontage(intros []float64, audio float64, images int, imageDuration, xfade float64) MontagePlan {
	var tl Timeline
	for _, d := range intros {
		tl.Append("intro", d)
	}
	p := MontagePlan{
		IntroTotal:       tl.Total(),
		Remaining:        audio - tl.Total(),
		FadeInFirstImage: len(intros) == 0,
		FadeOutLastIntro: images == 0,
	}
	p.UseImages = images > 0 && p.Remaining > 0
	if p.UseImages {
		p.Cycle = CycleDuration(images, imageDuration, xfade)
		p.LoopCycle = p.Remaining > p.Cycle+frameTolerance
		p.FadeOutLastImage = !p.LoopCycle && p.Remaining >= p.Cycle-frameTolerance
	}
	return p
}
