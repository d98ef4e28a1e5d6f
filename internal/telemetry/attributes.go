// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// Render attributes
	RenderIDKey      = "render.id"
	RenderModeKey    = "render.mode"
	RenderProjectKey = "render.project"
	RenderAudioKey   = "render.audio_s"
	RenderImagesKey  = "render.images"
	RenderVideosKey  = "render.videos"

	// Process attributes, set on the resource
	WorkRootKey         = "videostove.work_root"
	BatchConcurrencyKey = "videostove.batch_concurrency"
	GPUModeKey          = "videostove.gpu_mode"

	// Stage attributes
	StageNameKey = "stage.name"

	// Engine attributes
	EngineRequestKey = "engine.request"
	EngineEncoderKey = "engine.encoder"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// RenderAttributes creates render-level span attributes.
func RenderAttributes(renderID, mode, project string, images, videos int, audioSeconds float64) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(RenderIDKey, renderID),
		attribute.String(RenderModeKey, mode),
		attribute.Int(RenderImagesKey, images),
		attribute.Int(RenderVideosKey, videos),
	}
	if project != "" {
		attrs = append(attrs, attribute.String(RenderProjectKey, project))
	}
	if audioSeconds > 0 {
		attrs = append(attrs, attribute.Float64(RenderAudioKey, audioSeconds))
	}
	return attrs
}

// StageAttributes creates per-stage span attributes.
func StageAttributes(stage, mode string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(StageNameKey, stage),
		attribute.String(RenderModeKey, mode),
	}
}

// EngineAttributes creates engine-invocation span attributes.
func EngineAttributes(request, encoder string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(EngineRequestKey, request)}
	if encoder != "" {
		attrs = append(attrs, attribute.String(EngineEncoderKey, encoder))
	}
	return attrs
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
