// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package captions

import (
	"fmt"
	"strings"

	"github.com/ManuGH/videostove/internal/config"
)

// Style names a caption look.
type Style string

const (
	Classic Style = "classic"
	Basic   Style = "basic"
	Outline Style = "outline"
	Boxed   Style = "boxed"
	Karaoke Style = "karaoke"
	Custom  Style = "custom"
)

var presetStyles = map[Style]string{
	Basic:   "FontName=Arial,FontSize=28,Bold=1,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=1,Shadow=1",
	Outline: "FontName=Arial,FontSize=28,Bold=1,PrimaryColour=&HFFFFFF&,OutlineColour=&H000000&,Outline=2,Shadow=0",
	Boxed:   "FontName=Arial,FontSize=28,Bold=1,PrimaryColour=&HFFFFFF&,BackColour=&H80000000&,Outline=0,Shadow=0",
	Karaoke: "FontName=Comic Sans MS,FontSize=32,Bold=1,PrimaryColour=&H00FFFF&,OutlineColour=&H3900C7&,Outline=2,Shadow=0",
}

// ParseStyle accepts style names case-insensitively. Unknown names are
// treated as Custom.
func ParseStyle(s string) Style {
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case Classic, Basic, Outline, Boxed, Karaoke, Custom:
		return st
	}
	return Custom
}

// ForceStyle returns the force_style override for SRT burning. Classic
// burns the subtitles unstyled and returns "".
func ForceStyle(st Style, c config.CaptionStyleConfig) string {
	if st == Classic {
		return ""
	}
	if preset, ok := presetStyles[st]; ok {
		return preset
	}

	font := c.FontFamily
	if font == "" {
		font = "Arial"
	}
	size := c.FontSize
	if size <= 0 {
		size = 24
	}
	parts := []string{
		"FontName=" + font,
		fmt.Sprintf("FontSize=%d", size),
		"PrimaryColour=" + assColor(c.TextColor, "FFFFFF") + "&",
		"OutlineColour=" + assColor(c.OutlineColor, "000000") + "&",
		"BackColour=&H80000000&",
		"BorderStyle=1",
		fmt.Sprintf("Outline=%d", c.OutlineWidth),
		fmt.Sprintf("Alignment=%d", Alignment(c.VerticalPosition, c.HorizontalPosition)),
		fmt.Sprintf("MarginV=%d", c.MarginVertical),
		fmt.Sprintf("MarginL=%d", c.MarginHorizontal),
		fmt.Sprintf("MarginR=%d", c.MarginHorizontal),
	}
	switch strings.ToLower(c.FontWeight) {
	case "bold":
		parts = append(parts, "Bold=1")
	case "italic":
		parts = append(parts, "Italic=1")
	case "bold italic":
		parts = append(parts, "Bold=1", "Italic=1")
	}
	if c.ShadowEnabled {
		parts = append(parts, "Shadow=2")
	} else {
		parts = append(parts, "Shadow=0")
	}
	if c.Background && c.BackgroundOpacity > 0 {
		alpha := int(255 * (1 - c.BackgroundOpacity))
		bgr := strings.TrimPrefix(assColor(c.BackgroundColor, "000000"), "&H")
		parts = append(parts, fmt.Sprintf("BackColour=&H%02X%s&", alpha, bgr), "BorderStyle=3")
	}
	return strings.Join(parts, ",")
}

// assColor converts #RRGGBB to the ASS &HBBGGRR form. Malformed colors
// fall back to def, given as RRGGBB.
func assColor(hex, def string) string {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 || strings.Trim(strings.ToUpper(h), "0123456789ABCDEF") != "" {
		h = def
	}
	h = strings.ToUpper(h)
	return "&H" + h[4:6] + h[2:4] + h[0:2]
}

// Alignment maps a position to the ASS numpad alignment 1..9. Unknown
// values mean bottom and center.
func Alignment(vertical, horizontal string) int {
	row := 1
	switch strings.ToLower(vertical) {
	case "top":
		row = 7
	case "middle":
		row = 4
	}
	switch strings.ToLower(horizontal) {
	case "left":
		return row
	case "right":
		return row + 2
	}
	return row + 1
}
