// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Seconds formats a duration in seconds with millisecond precision and no
// trailing zeros ("20", "7.5", "0.6").
func Seconds(v float64) string {
	return num(v, 3)
}

func num(v float64, prec int) string {
	s := strconv.FormatFloat(v, 'f', prec, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}

// filterPath escapes a path for use inside a single-quoted filter argument.
func filterPath(p string) string {
	p = strings.ReplaceAll(p, `\`, `/`)
	p = strings.ReplaceAll(p, `:`, `\:`)
	p = strings.ReplaceAll(p, `'`, `\'`)
	return p
}

// ContainerFormat names the muxer for an output path by its extension.
// Outputs are written under temporary names, so the muxer is always explicit.
func ContainerFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mov":
		return "mov"
	case ".mkv":
		return "matroska"
	}
	return "mp4"
}
