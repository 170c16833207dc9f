// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/motioncam/internal/validate"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motioncam.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	rec := t.TempDir()
	path := writeConfig(t, `
log_level: debug
defaults:
  segment_size: 2s
  detect_nth_frame: 1
cameras:
  - name: garage
    mac: "A4:13:4E:00:11:22"
    password: secret
    folder: `+filepath.Join(rec, "garage")+`
  - name: porch
    mac: "a4:13:4e:00:11:33"
    password: secret
    folder: `+filepath.Join(rec, "porch")+`
    segment_size: 30s
    realtime: true
    monotonic_index: true
`)

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Version)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, DefaultListen, cfg.Listen)
	assert.Equal(t, DefaultIdleSleep, cfg.IdleSleep)
	require.Len(t, cfg.Cameras, 2)

	garage := cfg.Cameras[0]
	assert.Equal(t, "a4:13:4e:00:11:22", garage.MAC)
	assert.Equal(t, 2*time.Second, garage.SegmentSize)
	assert.Equal(t, 1, garage.DetectNthFrame)
	assert.Equal(t, DefaultScaleFactor, garage.ScaleFactor)
	assert.Equal(t, DefaultURLTemplate, garage.URLTemplate)
	assert.True(t, garage.Evidence)
	assert.False(t, garage.Realtime)

	porch, ok := cfg.Camera("porch")
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, porch.SegmentSize)
	assert.Equal(t, 1, porch.DetectNthFrame)
	assert.True(t, porch.Realtime)
	assert.True(t, porch.MonotonicIndex)

	assert.DirExists(t, filepath.Join(rec, "garage"))
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	path := writeConfig(t, `
cameras: []
segmnet_size: 5s
`)
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_MultipleDocumentsFail(t *testing.T) {
	path := writeConfig(t, "log_level: info\n---\nlog_level: debug\n")
	_, err := NewLoader(path, "test").Load()
	require.ErrorIs(t, err, ErrMultipleDocuments)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "motioncam.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "test").Load()
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_InvalidTypeFails(t *testing.T) {
	path := writeConfig(t, "defaults:\n  detect_nth_frame: often\n")
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrUnknownConfigField))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	rec := t.TempDir()
	path := writeConfig(t, `
listen: ":9000"
cameras:
  - name: garage
    mac: "a4:13:4e:00:11:22"
    folder: `+rec+`
`)
	t.Setenv(EnvListen, "127.0.0.1:9100")
	t.Setenv(EnvSegmentSize, "7s")
	t.Setenv(EnvDisplay, "yes")
	t.Setenv(EnvSegmentSize+"_UNUSED", "x")

	l := NewLoader(path, "test")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9100", cfg.Listen)
	assert.True(t, cfg.Display)
	assert.Equal(t, 7*time.Second, cfg.Cameras[0].SegmentSize)
	assert.Contains(t, l.ConsumedEnvKeys, EnvListen)
	assert.NotContains(t, l.ConsumedEnvKeys, EnvSegmentSize+"_UNUSED")
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	rec := t.TempDir()
	path := writeConfig(t, `
cameras:
  - name: garage
    mac: "a4:13:4e:00:11:22"
    folder: `+rec+`
`)
	t.Setenv(EnvSegmentSize, "soon")

	cfg, err := NewLoader(path, "test").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSegmentSize, cfg.Cameras[0].SegmentSize)
}

func TestLoad_ValidationCollectsAllErrors(t *testing.T) {
	path := writeConfig(t, `
defaults:
  scale_factor: 0
  detect_nth_frame: 0
cameras:
  - name: garage
    mac: nope
    debug: true
  - name: garage
    mac: "a4:13:4e:00:11:22"
    debug: true
classifier:
  backend: tflite
`)
	_, err := NewLoader(path, "test").Load()
	require.Error(t, err)

	var verr validate.ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Errors()))
	for _, e := range verr.Errors() {
		fields = append(fields, e.Field)
	}
	want := []string{
		"cameras[0].mac",
		"cameras[0].scale_factor",
		"cameras[0].detect_nth_frame",
		"cameras[1].scale_factor",
		"cameras[1].detect_nth_frame",
		"cameras[1].name",
		"classifier.backend",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("validation fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoCameras(t *testing.T) {
	_, err := NewLoader("", "test").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one camera")
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "recordings"), expandHome("~/recordings"))
	assert.Equal(t, "/srv/rec", expandHome("/srv/rec"))
	assert.Equal(t, "", expandHome(""))
}
