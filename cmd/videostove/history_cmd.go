// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ManuGH/videostove/internal/history"
)

func runHistory(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("videostove history", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		common  commonFlags
		f       history.Filter
		asJSON  bool
		pruneTo time.Duration
	)
	common.register(fs)
	fs.StringVar(&f.Project, "project", "", "only this project")
	fs.StringVar(&f.Status, "status", "", "only this status (done, failed, skipped, cancelled)")
	fs.StringVar(&f.BatchID, "batch", "", "only this batch id")
	fs.IntVar(&f.Limit, "limit", 20, "maximum number of rows")
	fs.BoolVar(&asJSON, "json", false, "print JSON")
	fs.DurationVar(&pruneTo, "prune", 0, "delete entries older than this age instead of listing")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	a, err := loadApp(ctx, common, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer a.close()

	store, err := a.openHistory()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if store == nil {
		fmt.Fprintln(stderr, "History is disabled (set history.path or VIDEOSTOVE_HISTORY_PATH).")
		return exitFailure
	}
	defer store.Close()

	if pruneTo > 0 {
		n, err := store.Prune(ctx, time.Now().Add(-pruneTo))
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "Deleted %d entries.\n", n)
		return exitOK
	}

	entries, err := store.List(ctx, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []history.Entry{}
		}
		_ = enc.Encode(entries)
		return exitOK
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFINISHED\tPROJECT\tMODE\tSTATUS\tDURATION\tDETAIL")
	for _, e := range entries {
		detail := e.OutputPath
		if e.Error != "" {
			detail = e.Error
		}
		if len(e.Degraded) > 0 {
			detail += " (degraded: " + strings.Join(e.Degraded, ", ") + ")"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.1fs\t%s\n",
			e.ID, e.FinishedAt.Format(time.DateTime), e.Project, e.Mode, e.Status, e.DurationS, detail)
	}
	_ = tw.Flush()
	return exitOK
}
