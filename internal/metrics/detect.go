// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	detectionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "motioncam_detection_duration_seconds",
		Help:    "Classifier call latency, by backend.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
	}, []string{"backend"})

	detectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_detections_total",
		Help: "Detections returned by the classifier, by label.",
	}, []string{"label"})

	detectionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_detection_outcomes_total",
		Help: "Classifier invocations, by outcome (ok, empty, malformed, failed, throttled, unavailable).",
	}, []string{"outcome"})
)

// ObserveDetection records the latency of one classifier call.
func ObserveDetection(backend string, d time.Duration) {
	detectionDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// IncDetection records one interpreted detection.
func IncDetection(label string) {
	detectionsTotal.WithLabelValues(label).Inc()
}

// IncDetectionOutcome records the outcome of one classifier invocation.
func IncDetectionOutcome(outcome string) {
	detectionOutcomes.WithLabelValues(outcome).Inc()
}
