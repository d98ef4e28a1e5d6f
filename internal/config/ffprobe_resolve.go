// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveFFprobeBin returns the effective ffprobe binary.
//
// Resolution order:
//  1. explicit ffprobeBin (VIDEOSTOVE_FFPROBE_BIN or engine.ffprobeBin)
//  2. sibling of a concrete ffmpeg path (.../ffmpeg -> .../ffprobe) if it exists
//  3. "ffprobe", resolved from PATH at exec time
func ResolveFFprobeBin(ffprobeBin, ffmpegBin string) string {
	return resolveFFprobeBinWithStat(ffprobeBin, ffmpegBin, os.Stat)
}

func resolveFFprobeBinWithStat(ffprobeBin, ffmpegBin string, stat func(string) (os.FileInfo, error)) string {
	if v := strings.TrimSpace(ffprobeBin); v != "" {
		return v
	}

	ffmpegBin = strings.TrimSpace(ffmpegBin)
	// A bare "ffmpeg" comes from PATH; guessing a sibling would be wrong.
	if strings.ContainsRune(ffmpegBin, filepath.Separator) {
		base := strings.TrimSuffix(filepath.Base(ffmpegBin), filepath.Ext(ffmpegBin))
		if base == "ffmpeg" {
			candidate := filepath.Join(filepath.Dir(ffmpegBin), "ffprobe"+filepath.Ext(ffmpegBin))
			if fi, err := stat(candidate); err == nil && !fi.IsDir() {
				return candidate
			}
		}
	}
	return "ffprobe"
}
