// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"errors"
	"fmt"
	"os"
)

// ProjectInputs is the media selected for one render.
type ProjectInputs struct {
	Images          []Asset
	Videos          []Asset
	MainAudio       *Asset
	BackgroundMusic *Asset
	Overlay         *Asset
}

// Needs states what a render mode requires from its inputs.
type Needs struct {
	Images         bool
	Videos         bool
	ImagesOrVideos bool
}

var (
	ErrNoMainAudio = errors.New("main audio is required")
	ErrNoImages    = errors.New("at least one image is required")
	ErrNoVideos    = errors.New("at least one video is required")
	ErrNoVisuals   = errors.New("at least one image or video is required")
)

// MissingError reports a selected input file that cannot be read.
type MissingError struct {
	Asset Asset
	Err   error
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s input %s: %v", e.Asset.Kind, e.Asset.Path, e.Err)
}

func (e *MissingError) Unwrap() error { return e.Err }

// Validate checks that the inputs satisfy needs. It does not touch the
// filesystem; see CheckFiles.
func (in ProjectInputs) Validate(needs Needs) error {
	if in.MainAudio == nil || in.MainAudio.Path == "" {
		return ErrNoMainAudio
	}
	switch {
	case needs.Images && len(in.Images) == 0:
		return ErrNoImages
	case needs.Videos && len(in.Videos) == 0:
		return ErrNoVideos
	case needs.ImagesOrVideos && len(in.Images) == 0 && len(in.Videos) == 0:
		return ErrNoVisuals
	}
	return nil
}

// CheckFiles returns a *MissingError for the first unreadable file, looking
// at the main audio, then images, then videos.
func (in ProjectInputs) CheckFiles() error {
	assets := make([]Asset, 0, 1+len(in.Images)+len(in.Videos))
	if in.MainAudio != nil {
		assets = append(assets, *in.MainAudio)
	}
	assets = append(assets, in.Images...)
	assets = append(assets, in.Videos...)
	for _, a := range assets {
		if _, err := os.Stat(a.Path); err != nil {
			return &MissingError{Asset: a, Err: err}
		}
	}
	return nil
}
