// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLast(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestConfigureAttachesServiceAndRunID(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "motioncam-test", Version: "v1.2.3"})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("hello")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "motioncam-test", entry["service"])
	assert.Equal(t, "v1.2.3", entry["version"])
	assert.Equal(t, RunID(), entry[FieldRunID])
	assert.Equal(t, "hello", entry["message"])
}

func TestConfigureInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "chatty", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	l := Base()
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestWithCamera(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithCamera("front")
	l.Info().Str(FieldEvent, "camera.connected").Msg("connected")

	entry := decodeLast(t, &buf)
	assert.Equal(t, "front", entry[FieldCamera])
	assert.Equal(t, "camera", entry[FieldComponent])
	assert.Equal(t, "camera.connected", entry[FieldEvent])
}

func TestDerive(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Derive(func(c *zerolog.Context) {
		*c = c.Str(FieldAddress, "192.168.1.20")
	})
	l.Info().Msg("x")

	assert.Equal(t, "192.168.1.20", decodeLast(t, &buf)[FieldAddress])
}

func TestConsoleOutputIsNotJSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf, Console: true})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("pool")
	l.Info().Msg("tick")

	assert.Contains(t, buf.String(), "tick")
	assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())))
}
