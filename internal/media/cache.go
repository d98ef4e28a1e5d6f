// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"sync"

	"github.com/ManuGH/videostove/internal/metrics"
)

// ProbeCache memoises probe results for the lifetime of one render. Failed
// probes are not cached.
type ProbeCache struct {
	prober Prober

	mu      sync.Mutex
	results map[string]ProbeInfo
}

// NewProbeCache wraps prober.
func NewProbeCache(prober Prober) *ProbeCache {
	return &ProbeCache{prober: prober, results: make(map[string]ProbeInfo)}
}

// Probe returns the cached info for path, probing on first use.
func (c *ProbeCache) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	c.mu.Lock()
	info, ok := c.results[path]
	c.mu.Unlock()
	if ok {
		metrics.IncProbe("cached")
		return info, nil
	}

	info, err := c.prober.Probe(ctx, path)
	if err != nil {
		return ProbeInfo{}, err
	}
	c.mu.Lock()
	c.results[path] = info
	c.mu.Unlock()
	return info, nil
}

// Duration returns the duration of path in seconds.
func (c *ProbeCache) Duration(ctx context.Context, path string) (float64, error) {
	info, err := c.Probe(ctx, path)
	return info.Duration, err
}

// HasAudio reports whether path carries an audio stream.
func (c *ProbeCache) HasAudio(ctx context.Context, path string) (bool, error) {
	info, err := c.Probe(ctx, path)
	return info.HasAudio, err
}

// Forget drops the cached entry for path, used when a file is rewritten.
func (c *ProbeCache) Forget(path string) {
	c.mu.Lock()
	delete(c.results, path)
	c.mu.Unlock()
}
