// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey string

const (
	renderIDKey ctxKey = "render_id"
	projectKey  ctxKey = "project"
)

// ContextWithRenderID stores the provided render ID in the context.
func ContextWithRenderID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, renderIDKey, id)
}

// ContextWithProject stores the batch project name in the context.
func ContextWithProject(ctx context.Context, name string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, projectKey, name)
}

// RenderIDFromContext extracts the render ID from context if present.
func RenderIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(renderIDKey).(string); ok {
		return v
	}
	return ""
}

// ProjectFromContext extracts the project name from context if present.
func ProjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(projectKey).(string); ok {
		return v
	}
	return ""
}

// WithContext enriches the supplied logger with correlation fields from context.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	if ctx == nil {
		return logger
	}
	builder := logger.With()
	added := false
	if rid := RenderIDFromContext(ctx); rid != "" {
		builder = builder.Str(FieldRenderID, rid)
		added = true
	}
	if p := ProjectFromContext(ctx); p != "" {
		builder = builder.Str(FieldProject, p)
		added = true
	}
	if !added {
		return logger
	}
	return builder.Logger()
}

// WithComponentFromContext returns a logger annotated with the component
// name and enriched with correlation fields from ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
