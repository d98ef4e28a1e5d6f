// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"fmt"
	"math"
	"strings"

	"github.com/google/renameio/v2"

	"github.com/ManuGH/videostove/internal/config"
)

func split(seconds float64, unit int) (h, m, s, frac int) {
	total := int(math.Round(math.Max(0, seconds) * float64(unit)))
	frac = total % unit
	secs := total / unit
	return secs / 3600, secs % 3600 / 60, secs % 60, frac
}

// SRTTime formats seconds as HH:MM:SS,mmm.
func SRTTime(seconds float64) string {
	h, m, s, ms := split(seconds, 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ASSTime formats seconds as H:MM:SS.cc.
func ASSTime(seconds float64) string {
	h, m, s, cs := split(seconds, 100)
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

// FormatSRT renders cues as an SRT document.
func FormatSRT(cues []Cue) string {
	var b strings.Builder
	for i, c := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, SRTTime(c.Start), SRTTime(c.End), c.Text)
	}
	return b.String()
}

// WriteSRT writes cues to path atomically.
func WriteSRT(path string, cues []Cue) error {
	return renameio.WriteFile(path, []byte(FormatSRT(cues)), 0o644)
}

// ASSHeader builds the script header with a Default style from c.
func ASSHeader(c config.CaptionStyleConfig) string {
	font := c.FontFamily
	if font == "" {
		font = "Arial"
	}
	size := c.FontSize
	if size <= 0 {
		size = 24
	}
	bold := 0
	if strings.EqualFold(c.FontWeight, "bold") {
		bold = 1
	}
	// Vertical position only; karaoke lines stay horizontally centered.
	align := Alignment(c.VerticalPosition, "center")

	var b strings.Builder
	b.WriteString("[Script Info]\nTitle: videostove captions\nScriptType: v4.00+\n\n")
	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, " +
		"Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, " +
		"Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(&b, "Style: Default,%s,%d,%s,&H000000FF,%s,&H80000000,%d,0,0,0,100,100,0,0,1,%d,0,%d,%d,%d,%d,1\n\n",
		font, size,
		strings.Replace(assColor(c.TextColor, "FFFFFF"), "&H", "&H00", 1),
		strings.Replace(assColor(c.OutlineColor, "000000"), "&H", "&H00", 1),
		bold, c.OutlineWidth, align, c.MarginHorizontal, c.MarginHorizontal, c.MarginVertical)
	b.WriteString("[Events]\nFormat: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	return b.String()
}

// Dialogue is one ASS event line.
type Dialogue struct {
	Start float64
	End   float64
	Text  string
}

func (d Dialogue) String() string {
	return fmt.Sprintf("Dialogue: 0,%s,%s,Default,,0,0,0,,%s", ASSTime(d.Start), ASSTime(d.End), d.Text)
}

// FormatASS renders a complete ASS document.
func FormatASS(header string, lines []Dialogue) string {
	var b strings.Builder
	b.WriteString(header)
	for _, l := range lines {
		b.WriteString(l.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteASS writes an ASS document to path atomically.
func WriteASS(path, header string, lines []Dialogue) error {
	return renameio.WriteFile(path, []byte(FormatASS(header, lines)), 0o644)
}
