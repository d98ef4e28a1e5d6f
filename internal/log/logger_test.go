// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureAttachesServiceAndComponent(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "vs-test", Version: "v0.0.1"})

	l := WithComponent("engine")
	l.Info().Str(FieldStage, "mix").Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "vs-test", entry[FieldService])
	assert.Equal(t, "v0.0.1", entry[FieldVersion])
	assert.Equal(t, "engine", entry[FieldComponent])
	assert.Equal(t, "mix", entry[FieldStage])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigureFirstCallWins(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	var first, second bytes.Buffer
	Configure(Config{Output: &first})
	Configure(Config{Output: &second, Level: "warn"})

	l := Base()
	l.Warn().Msg("kept")
	assert.NotEmpty(t, first.String())
	assert.Empty(t, second.String())
}

func TestDerive(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)

	var buf bytes.Buffer
	Configure(Config{Output: &buf, Level: "info"})
	l := Derive(nil)
	l.Info().Msg("plain")
	assert.Contains(t, buf.String(), "plain")
}
