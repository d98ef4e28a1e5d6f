// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package engine

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/renameio/v2"
)

// ConcatList renders a concat demuxer manifest with absolute paths.
func ConcatList(inputs []string) (string, error) {
	var b strings.Builder
	for _, in := range inputs {
		abs, err := filepath.Abs(in)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", in, err)
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String(), nil
}

// WriteConcatList writes the manifest for inputs to path atomically.
func WriteConcatList(path string, inputs []string) error {
	body, err := ConcatList(inputs)
	if err != nil {
		return err
	}
	return renameio.WriteFile(path, []byte(body), 0o644)
}
