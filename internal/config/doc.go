// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the application config and the default render
// settings.
//
// Precedence is ENV > file > defaults. The file is strict YAML: unknown keys
// and trailing documents are rejected. A Holder keeps the live AppConfig and
// reloads it when the file changes; renders take a RenderConfig snapshot by
// value and never see later reloads.
package config
