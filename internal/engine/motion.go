// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"fmt"
	"strings"
)

// MotionKind names a Ken Burns style camera move.
type MotionKind string

const (
	MotionNone         MotionKind = "none"
	MotionZoomIn       MotionKind = "zoom_in"
	MotionZoomOut      MotionKind = "zoom_out"
	MotionPanLeft      MotionKind = "pan_left"
	MotionPanRight     MotionKind = "pan_right"
	MotionPanUp        MotionKind = "pan_up"
	MotionPanDown      MotionKind = "pan_down"
	MotionExtendedZoom MotionKind = "extended_zoom"
)

// Zoom directions for MotionExtendedZoom.
const (
	ZoomIn    = "in"
	ZoomOut   = "out"
	ZoomInOut = "in_out"
)

// Motion describes the camera move of one still image.
type Motion struct {
	Kind MotionKind
	// Direction and AmountPercent apply to MotionExtendedZoom only.
	Direction     string
	AmountPercent float64
}

func (m Motion) String() string {
	if m.Kind == MotionExtendedZoom {
		return fmt.Sprintf("%s(%s,%s%%)", m.Kind, m.Direction, num(m.AmountPercent, 2))
	}
	return string(m.Kind)
}

const (
	zoomStep   = "0.0015"
	zoomMax    = "1.2"
	zoomFrame  = "3840x2160"
	panScaleW  = 2304
	coverScale = "scale=1920:1080:force_original_aspect_ratio=increase"
	canonical  = "setsar=1,format=yuv420p"
)

// Frames returns the number of output frames for a clip of d seconds.
func Frames(d float64) int {
	return int(d * FPS)
}

// MotionFilter builds the video filter chain for m over a clip of duration d.
func MotionFilter(m Motion, d float64) string {
	frames := Frames(d)
	if frames < 1 {
		frames = 1
	}
	zoompan := func(z string) string {
		return strings.Join([]string{
			coverScale,
			fmt.Sprintf("crop=%d:%d:(iw-ow)/2:(ih-oh)/2", FrameWidth, FrameHeight),
			"scale=3840:2160",
			fmt.Sprintf("zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:fps=%d:s=%s", z, frames, FPS, zoomFrame),
			fmt.Sprintf("scale=%d:%d", FrameWidth, FrameHeight),
			canonical,
		}, ",")
	}
	pan := func(x, y string) string {
		return fmt.Sprintf("scale=%d:-1,crop=%d:%d:x='%s':y='%s',%s", panScaleW, FrameWidth, FrameHeight, x, y, canonical)
	}
	ds := Seconds(d)

	switch m.Kind {
	case MotionZoomIn:
		return zoompan("min(zoom+" + zoomStep + "," + zoomMax + ")")
	case MotionZoomOut:
		return zoompan("max(zoom-" + zoomStep + ",1.0)")
	case MotionExtendedZoom:
		return zoompan(extendedZoomExpr(m, frames))
	case MotionPanRight:
		return pan("(iw-ow)*t/"+ds, "(ih-oh)/2")
	case MotionPanLeft:
		return pan("(iw-ow)*(1-t/"+ds+")", "(ih-oh)/2")
	case MotionPanDown:
		return pan("(iw-ow)/2", "(ih-oh)*t/"+ds)
	case MotionPanUp:
		return pan("(iw-ow)/2", "(ih-oh)*(1-t/"+ds+")")
	}
	return fmt.Sprintf("%s,crop=%d:%d,%s", coverScale, FrameWidth, FrameHeight, canonical)
}

func extendedZoomExpr(m Motion, frames int) string {
	amount := m.AmountPercent / 100
	if amount <= 0 {
		amount = 0.3
	}
	top := num(1+amount, 4)
	switch m.Direction {
	case ZoomOut:
		return fmt.Sprintf("max(zoom-%s,1.0)", num(amount/float64(frames), 7))
	case ZoomInOut:
		mid := frames / 2
		if mid < 1 {
			mid = 1
		}
		r := num(amount/float64(mid), 7)
		return fmt.Sprintf("if(lt(on,%d),min(1+%s*on,%s),max(%s-%s*(on-%d),1))", mid, r, top, top, r, mid)
	}
	return fmt.Sprintf("min(zoom+%s,%s)", num(amount/float64(frames), 7), top)
}

func fadeFilters(fadeIn, fadeOut bool, total float64) string {
	var b strings.Builder
	if fadeIn {
		fmt.Fprintf(&b, ",fade=t=in:st=0:d=%s", Seconds(FadeDuration))
	}
	if fadeOut {
		st := total - FadeDuration
		if st < 0 {
			st = 0
		}
		fmt.Fprintf(&b, ",fade=t=out:st=%s:d=%s", Seconds(st), Seconds(FadeDuration))
	}
	return b.String()
}
