// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procTerminate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_proc_terminate_total",
		Help: "Signals sent to helper process groups, by signal and result (sent, esrch, error).",
	}, []string{"signal", "result"})

	procWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_proc_wait_total",
		Help: "Helper process exits observed during termination, by result.",
	}, []string{"result"})

	procStart = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "motioncam_proc_start_total",
		Help: "Helper process starts, by role (decoder, encoder, probe) and result.",
	}, []string{"role", "result"})
)

// IncProcTerminate records a termination signal.
func IncProcTerminate(signal, result string) {
	procTerminate.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process exited.
func IncProcWait(result string) {
	procWait.WithLabelValues(result).Inc()
}

// IncProcStart records a helper process start.
func IncProcStart(role, result string) {
	procStart.WithLabelValues(role, result).Inc()
}
