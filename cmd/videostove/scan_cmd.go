// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"text/tabwriter"

	"github.com/ManuGH/videostove/internal/config"
	"github.com/ManuGH/videostove/internal/media"
	"github.com/ManuGH/videostove/internal/preset"
)

// runScan lists the projects under a root with their eligibility.
func runScan(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var mode string
	fs.StringVar(&mode, "mode", "", "only report eligibility for this mode")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "Error: exactly one root directory is required")
		return exitUsage
	}
	modes := config.ProjectTypes
	if mode != "" {
		modes = []string{mode}
	}

	dirs, err := media.ListProjects(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if len(dirs) == 0 {
		fmt.Fprintln(stdout, "No projects found.")
		return exitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprint(tw, "PROJECT\tIMAGES\tVIDEOS\tAUDIO\tMAIN AUDIO")
	for _, m := range modes {
		fmt.Fprintf(tw, "\t%s", m)
	}
	fmt.Fprintln(tw)
	for _, dir := range dirs {
		s, err := media.ScanProject(dir)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\n", filepath.Base(dir), err)
			continue
		}
		mainAudio := "-"
		if s.MainAudio != "" {
			mainAudio = filepath.Base(s.MainAudio)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s", filepath.Base(dir), len(s.Images), len(s.Videos), len(s.Audio), mainAudio)
		for _, m := range modes {
			mark := "no"
			if s.Eligibility(m).Eligible {
				mark = "yes"
			}
			fmt.Fprintf(tw, "\t%s", mark)
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	return exitOK
}

// runPresets lists the presets found in the given directories.
func runPresets(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove presets", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var verbose bool
	fs.BoolVar(&verbose, "v", false, "show the key settings of each preset")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	dirs := fs.Args()
	if len(dirs) == 0 {
		dirs = []string{"presets"}
	}

	entries := preset.Find(dirs)
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No presets found.")
		return exitOK
	}
	for _, e := range entries {
		ref := e.Path
		if e.Profile != "" {
			ref += ":" + e.Profile
		}
		fmt.Fprintf(stdout, "%s\t%s\n", e.Name, ref)
		if !verbose {
			continue
		}
		p, err := preset.LoadRef(ref)
		if err != nil {
			fmt.Fprintf(stdout, "  error: %v\n", err)
			continue
		}
		for _, s := range p.Summary() {
			fmt.Fprintf(stdout, "  %-24s %s\n", s.Label+":", s.Value)
		}
		for _, issue := range p.Validate() {
			fmt.Fprintf(stdout, "  ! %s: %s\n", issue.Field, issue.Message)
		}
	}
	return exitOK
}
