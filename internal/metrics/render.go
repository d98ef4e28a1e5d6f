// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the render pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// No render_id or path labels: cardinality stays bounded by mode/stage/kind.

var (
	// RendersTotal counts finished renders by mode and outcome.
	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_renders_total",
		Help: "Total number of finished renders, by mode and outcome (success/failed/cancelled).",
	}, []string{"mode", "outcome"})

	// RenderFailuresTotal counts fatal render failures by error kind.
	RenderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_render_failures_total",
		Help: "Total number of fatal render failures, by mode and error kind.",
	}, []string{"mode", "kind"})

	// RenderDuration tracks wall-clock time of whole renders.
	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videostove_render_duration_seconds",
		Help:    "Wall-clock duration of renders, by mode.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
	}, []string{"mode"})

	// StageDuration tracks the duration of each pipeline stage.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videostove_stage_duration_seconds",
		Help:    "Duration of render pipeline stages, by mode and stage.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7min
	}, []string{"mode", "stage"})

	// OverlayDegradedTotal counts overlay passes that fell back to the base clip.
	OverlayDegradedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_overlay_degraded_total",
		Help: "Total number of overlay applications that fell back to the unmodified base, by blend mode.",
	}, []string{"blend"})

	// MotionNormalizationsTotal counts direction strings normalized to the default pan.
	MotionNormalizationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "videostove_motion_normalizations_total",
		Help: "Total number of unknown or empty motion directions normalized to the default pan.",
	})

	// CaptionCuesTotal counts generated caption cues by pacing policy.
	CaptionCuesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_caption_cues_total",
		Help: "Total number of caption cues generated, by pacing policy.",
	}, []string{"pacing"})

	// BatchProjectsTotal counts batch projects by final status.
	BatchProjectsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_batch_projects_total",
		Help: "Total number of batch projects processed, by status (done/failed/skipped/cancelled).",
	}, []string{"status"})

	// ActiveRenders tracks renders currently in progress.
	ActiveRenders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "videostove_active_renders",
		Help: "Current number of renders in progress.",
	})
)

// RecordRender records the outcome of a finished render.
func RecordRender(mode, outcome, kind string, elapsed time.Duration) {
	RendersTotal.WithLabelValues(mode, outcome).Inc()
	RenderDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if outcome == "failed" {
		RenderFailuresTotal.WithLabelValues(mode, kind).Inc()
	}
}

// ObserveStage records the duration of one pipeline stage.
func ObserveStage(mode, stage string, elapsed time.Duration) {
	StageDuration.WithLabelValues(mode, stage).Observe(elapsed.Seconds())
}

// IncOverlayDegraded increments the overlay fallback counter.
func IncOverlayDegraded(blend string) {
	OverlayDegradedTotal.WithLabelValues(blend).Inc()
}

// IncMotionNormalization increments the direction normalization counter.
func IncMotionNormalization() {
	MotionNormalizationsTotal.Inc()
}

// AddCaptionCues adds n generated cues for the pacing policy.
func AddCaptionCues(pacing string, n int) {
	CaptionCuesTotal.WithLabelValues(pacing).Add(float64(n))
}

// IncBatchProject counts one finished batch project.
func IncBatchProject(status string) {
	BatchProjectsTotal.WithLabelValues(status).Inc()
}

// IncActiveRenders marks a render as started.
func IncActiveRenders() { ActiveRenders.Inc() }

// DecActiveRenders marks a render as finished.
func DecActiveRenders() { ActiveRenders.Dec() }

// GetActiveRenders returns the current number of in-progress renders.
func GetActiveRenders() float64 {
	var m dto.Metric
	if err := ActiveRenders.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}
