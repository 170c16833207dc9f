// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "motioncam_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "motioncam_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	liveClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "motioncam_live_clients",
		Help: "Connected live view websocket clients, by camera.",
	}, []string{"camera"})
)

// ObserveHTTPRequest records a served HTTP request. path must be a route pattern.
func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

// HTTPInFlight adjusts the in-flight request gauge by delta.
func HTTPInFlight(delta float64) {
	httpRequestsInFlight.Add(delta)
}

// LiveClients adjusts the live client gauge of a camera by delta.
func LiveClients(camera string, delta float64) {
	liveClients.WithLabelValues(camera).Add(delta)
}
