// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics provides the Prometheus collectors for motioncam.
//
// Labels are bounded by configuration (camera names, detection labels,
// fixed outcome sets); no per-segment or per-request identifiers are used.
package metrics
