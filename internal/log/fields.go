// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldService  = "service"
	FieldVersion  = "version"
	FieldRenderID = "render_id"
	FieldProject  = "project"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldMode      = "mode"
	FieldRequest   = "request"
	FieldPID       = "pid"

	// Media fields
	FieldDuration = "duration_s"
	FieldTarget   = "target_s"
	FieldEncoder  = "encoder"
	FieldEffect   = "effect"
	FieldLoops    = "loops"

	// Path fields
	FieldPath       = "path"
	FieldOutputPath = "output_path"
	FieldWorkDir    = "work_dir"
)
