// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package media holds the render inputs: assets, clips, probing and the
// project directory scanner.
package media

import (
	"path/filepath"
	"strings"
)

// Kind classifies an asset.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var (
	imageExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".bmp": true, ".tif": true, ".tiff": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".mkv": true, ".webm": true, ".avi": true, ".m4v": true, ".wmv": true, ".flv": true}
	audioExtensions = map[string]bool{".mp3": true, ".wav": true, ".flac": true, ".m4a": true, ".aac": true}
)

// KindOf classifies path by extension.
func KindOf(path string) (Kind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case imageExtensions[ext]:
		return KindImage, true
	case videoExtensions[ext]:
		return KindVideo, true
	case audioExtensions[ext]:
		return KindAudio, true
	}
	return "", false
}

// Asset is a user-supplied input file. Durations are resolved through a
// ProbeCache, never stored on the asset.
type Asset struct {
	Path string
	Kind Kind
}

// NewAsset classifies path. Unknown extensions keep an empty Kind.
func NewAsset(path string) Asset {
	k, _ := KindOf(path)
	return Asset{Path: path, Kind: k}
}

// Name returns the base file name.
func (a Asset) Name() string { return filepath.Base(a.Path) }

// Clip is an intermediate segment in a render's working directory.
type Clip struct {
	Path     string
	Duration float64
	// HasFades records that fades were baked into the clip.
	HasFades bool
}
