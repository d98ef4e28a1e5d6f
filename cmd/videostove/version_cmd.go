// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/ManuGH/videostove/internal/version"
)

func runVersion(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove version", flag.ContinueOnError)
	fs.SetOutput(stderr)
	asJSON := fs.Bool("json", false, "print JSON")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	info := version.Get()
	if *asJSON {
		_ = json.NewEncoder(stdout).Encode(info)
		return exitOK
	}
	fmt.Fprintln(stdout, info.String())
	return exitOK
}
