// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngineInvocationsTotal counts engine (ffmpeg/ffprobe) invocations by request kind and result.
	EngineInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_engine_invocations_total",
		Help: "Total number of transcoding engine invocations, by request kind and result (ok/error/cancelled).",
	}, []string{"kind", "result"})

	// EngineDuration tracks how long each engine invocation ran.
	EngineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "videostove_engine_duration_seconds",
		Help:    "Duration of transcoding engine invocations, by request kind.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"kind"})

	// ProbeTotal counts probe calls by result.
	ProbeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_probe_total",
		Help: "Total number of media probes, by result (ok/error/cached).",
	}, []string{"result"})

	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_proc_terminate_total",
		Help: "Process group termination signals, by signal and result (sent/esrch/error).",
	}, []string{"signal", "result"})

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "videostove_proc_wait_total",
		Help: "Process exits observed during termination, by outcome.",
	}, []string{"outcome"})
)

// RecordEngineRun records one engine invocation.
func RecordEngineRun(kind, result string, elapsed time.Duration) {
	EngineInvocationsTotal.WithLabelValues(kind, result).Inc()
	EngineDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// IncProbe increments the probe counter.
func IncProbe(result string) {
	ProbeTotal.WithLabelValues(result).Inc()
}

// IncProcTerminate records a termination signal attempt.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process exited.
func IncProcWait(outcome string) {
	procWaitTotal.WithLabelValues(outcome).Inc()
}
