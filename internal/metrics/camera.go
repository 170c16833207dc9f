// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_frames_total",
		Help: "Total number of frames processed, by camera.",
	}, []string{"camera"})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_frames_dropped_total",
		Help: "Frames overwritten in the freshest-frame slot before being consumed, by camera.",
	}, []string{"camera"})

	segmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_segments_total",
		Help: "Closed segments, by camera and outcome (kept, discarded, finalized_on_shutdown, failed).",
	}, []string{"camera", "outcome"})

	reconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_reconnect_attempts_total",
		Help: "Connection setup attempts, by camera and result (connected, resolution_failed, connect_failed).",
	}, []string{"camera", "result"})

	cameraConnected = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "motioncam_camera_connected",
		Help: "Whether the camera session is connected (1) or disconnected (0).",
	}, []string{"camera"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "motioncam_tick_duration_seconds",
		Help:    "Duration of one driver loop tick across all sessions.",
		Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
)

// IncFrames records one processed frame.
func IncFrames(camera string) {
	framesTotal.WithLabelValues(camera).Inc()
}

// AddFramesDropped records frames the consumer never saw.
func AddFramesDropped(camera string, n uint64) {
	if n == 0 {
		return
	}
	framesDropped.WithLabelValues(camera).Add(float64(n))
}

// IncSegment records a closed segment.
func IncSegment(camera, outcome string) {
	segmentsTotal.WithLabelValues(camera, outcome).Inc()
}

// IncReconnect records a setup attempt.
func IncReconnect(camera, result string) {
	reconnectAttempts.WithLabelValues(camera, result).Inc()
}

// SetConnected records the connection state of a camera session.
func SetConnected(camera string, connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	cameraConnected.WithLabelValues(camera).Set(v)
}

// ObserveTick records the duration of a driver loop tick.
func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}
