// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ManuGH/motioncam/internal/camera"
	"github.com/ManuGH/motioncam/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Health_NoCheckers(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)
}

func TestManager_Health_WithCheckers(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "healthy", status: StatusHealthy})
	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})

	resp := m.Health(context.Background(), false)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 2)
	assert.Equal(t, StatusHealthy, resp.Checks["healthy"].Status)
	assert.Equal(t, StatusDegraded, resp.Checks["degraded"].Status)
}

func TestManager_UnhealthyWinsOverDegraded(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "a", status: StatusUnhealthy})
	m.RegisterChecker(&mockChecker{name: "b", status: StatusDegraded})

	assert.Equal(t, StatusUnhealthy, m.Health(context.Background(), true).Status)
	ready := m.Ready(context.Background())
	assert.False(t, ready.Ready)
	assert.Equal(t, StatusUnhealthy, ready.Status)
}

func TestManager_Ready(t *testing.T) {
	m := NewManager("v1.0.0")
	resp := m.Ready(context.Background())
	assert.True(t, resp.Ready)
	assert.Nil(t, resp.Checks)

	m.RegisterChecker(&mockChecker{name: "degraded", status: StatusDegraded})
	resp = m.Ready(context.Background())
	assert.True(t, resp.Ready, "degraded is still ready")
	assert.Equal(t, StatusDegraded, resp.Status)
}

func TestManager_ServeHealth(t *testing.T) {
	m := NewManager("v1.0.0")
	m.RegisterChecker(&mockChecker{name: "test", status: StatusUnhealthy})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	m.ServeHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Nil(t, resp.Checks)

	req = httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil)
	w = httptest.NewRecorder()
	m.ServeHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code, "liveness stays 200 even when a component is unhealthy")
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestManager_ServeReady(t *testing.T) {
	tests := []struct {
		name           string
		checker        Checker
		expectedStatus int
		expectedReady  bool
	}{
		{"healthy", &mockChecker{name: "test", status: StatusHealthy}, http.StatusOK, true},
		{"degraded", &mockChecker{name: "test", status: StatusDegraded}, http.StatusOK, true},
		{"unhealthy", &mockChecker{name: "test", status: StatusUnhealthy}, http.StatusServiceUnavailable, false},
		{"informational", Informational(&mockChecker{name: "test", status: StatusUnhealthy}), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v1.0.0")
			m.RegisterChecker(tt.checker)

			req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
			w := httptest.NewRecorder()
			m.ServeReady(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)

			var resp ReadinessResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.expectedReady, resp.Ready)
		})
	}
}

func TestManager_ServeEncodingError(t *testing.T) {
	m := NewManager("v1.0.0")
	w := &brokenWriter{header: make(http.Header)}

	m.ServeHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	m.ServeReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
}

func TestSessionsChecker(t *testing.T) {
	connected := camera.Status{Name: "garage", State: camera.StateConnected}
	offline := camera.Status{Name: "porch", State: camera.StateDisconnected}

	tests := []struct {
		name     string
		statuses []camera.Status
		want     Status
		errHas   string
	}{
		{"none configured", nil, StatusHealthy, ""},
		{"all connected", []camera.Status{connected}, StatusHealthy, ""},
		{"some offline", []camera.Status{connected, offline}, StatusDegraded, "porch"},
		{"all offline", []camera.Status{offline}, StatusUnhealthy, "porch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewSessionsChecker(func() []camera.Status { return tt.statuses })
			assert.Equal(t, "sessions", c.Name())
			res := c.Check(context.Background())
			assert.Equal(t, tt.want, res.Status)
			if tt.errHas != "" {
				assert.Contains(t, res.Error, tt.errHas)
			}
		})
	}
}

func TestWritableDirChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	ok := NewWritableDirChecker("storage_garage", dir).Check(context.Background())
	assert.Equal(t, StatusHealthy, ok.Status)
	_, err := os.Stat(filepath.Join(dir, ".motioncam_write_test"))
	assert.True(t, os.IsNotExist(err), "probe file is removed")

	missing := NewWritableDirChecker("x", filepath.Join(dir, "missing")).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, missing.Status)
	assert.Contains(t, missing.Error, "does not exist")

	notDir := NewWritableDirChecker("x", file).Check(context.Background())
	assert.Equal(t, StatusUnhealthy, notDir.Status)
	assert.Contains(t, notDir.Error, "not a directory")
}

func TestPingChecker(t *testing.T) {
	c := NewPingChecker("catalog", time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok, "ping runs with a deadline")
		return nil
	})
	assert.Equal(t, "catalog", c.Name())
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	failing := NewPingChecker("catalog", 0, func(context.Context) error { return errors.New("database is locked") })
	res := failing.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Equal(t, "database is locked", res.Error)
}

func TestPerformStartupChecks(t *testing.T) {
	orig := LookPath
	t.Cleanup(func() { LookPath = orig })

	dir := t.TempDir()
	cfg := config.AppConfig{
		Listen:     ":8090",
		Cameras:    []config.CameraConfig{{Name: "garage", Folder: filepath.Join(dir, "garage")}},
		Classifier: config.ClassifierConfig{Backend: config.BackendNone},
		FFmpeg:     config.FFmpegConfig{Bin: "ffmpeg", ProbeBin: "ffprobe"},
	}

	LookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	require.NoError(t, PerformStartupChecks(context.Background(), cfg))
	assert.DirExists(t, filepath.Join(dir, "garage"), "folder is created")

	LookPath = func(file string) (string, error) { return "", errors.New("not found") }
	err := PerformStartupChecks(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg")

	LookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	cfg.Listen = "nonsense"
	assert.Error(t, PerformStartupChecks(context.Background(), cfg))

	cfg.Listen = ""
	cfg.Classifier = config.ClassifierConfig{Backend: config.BackendGoCV, Model: filepath.Join(dir, "missing.pb")}
	err = PerformStartupChecks(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "classifier model")
}

type mockChecker struct {
	name    string
	status  Status
	message string
	err     string
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(_ context.Context) CheckResult {
	return CheckResult{
		Status:  m.status,
		Message: m.message,
		Error:   m.err,
	}
}

// brokenWriter is a ResponseWriter that always fails to write
type brokenWriter struct {
	header http.Header
}

func (w *brokenWriter) Header() http.Header {
	return w.header
}

func (w *brokenWriter) Write([]byte) (int, error) {
	return 0, assert.AnError
}

func (w *brokenWriter) WriteHeader(int) {}
