// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	return m.GetGauge().GetValue()
}

func TestSegmentCounter(t *testing.T) {
	c := segmentsTotal.WithLabelValues("metrics-test", "discarded")
	before := counterValue(t, c)

	IncSegment("metrics-test", "discarded")
	IncSegment("metrics-test", "discarded")

	assert.Equal(t, before+2, counterValue(t, c))
}

func TestSetConnected(t *testing.T) {
	SetConnected("metrics-test", true)
	assert.Equal(t, 1.0, gaugeValue(t, cameraConnected.WithLabelValues("metrics-test")))
	SetConnected("metrics-test", false)
	assert.Equal(t, 0.0, gaugeValue(t, cameraConnected.WithLabelValues("metrics-test")))
}

func TestAddFramesDroppedIgnoresZero(t *testing.T) {
	c := framesDropped.WithLabelValues("metrics-drop")
	AddFramesDropped("metrics-drop", 0)
	assert.Equal(t, 0.0, counterValue(t, c))
	AddFramesDropped("metrics-drop", 3)
	assert.Equal(t, 3.0, counterValue(t, c))
}

func TestCircuitBreakerStateIsExclusive(t *testing.T) {
	SetCircuitBreakerState("classifier-test", "open")
	assert.Equal(t, 1.0, gaugeValue(t, circuitBreakerState.WithLabelValues("classifier-test", "open")))
	assert.Equal(t, 0.0, gaugeValue(t, circuitBreakerState.WithLabelValues("classifier-test", "closed")))
}

func TestPromhttpExposure(t *testing.T) {
	IncDetectionOutcome("empty")
	ObserveDetection("http", 20*time.Millisecond)
	ObserveTick(time.Millisecond)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	for _, name := range []string{
		"motioncam_detection_outcomes_total",
		"motioncam_detection_duration_seconds",
		"motioncam_tick_duration_seconds",
	} {
		assert.True(t, strings.Contains(body, name), "missing %s", name)
	}
}
