// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package detect runs object detection on camera frames.
//
// A Classifier backend returns raw detections (1-based class index,
// confidence, box). Interpret turns them into labelled detections and counts
// malformed entries. Service wraps a backend with a call budget, a circuit
// breaker and tracing, and is shared read-only by every camera session.
package detect

import (
	"context"
	"errors"
	"image"
)

// PersonLabel is the label that makes a segment worth keeping.
const PersonLabel = "person"

// ErrBackendUnavailable is returned when a backend cannot be built in this binary.
var ErrBackendUnavailable = errors.New("classifier backend unavailable")

// Raw is one detection as returned by a backend. Box is [x, y, w, h] in
// frame pixel coordinates.
type Raw struct {
	ClassIndex int       `json:"class_index"`
	Confidence float64   `json:"confidence"`
	Box        []float64 `json:"box"`
}

// Classifier is a detection backend.
type Classifier interface {
	// Detect returns detections with confidence >= threshold.
	Detect(ctx context.Context, img image.Image, threshold float64) ([]Raw, error)
	// Name identifies the backend in metrics and spans.
	Name() string
	Close() error
}

// Detection is an interpreted detection.
type Detection struct {
	Label      string
	ClassIndex int
	Confidence float64
	Box        image.Rectangle
}

// IsPerson reports whether the detection is a person.
func (d Detection) IsPerson() bool {
	return d.Label == PersonLabel
}

// Outcome classifies one classifier invocation. Every outcome is an
// anticipated value; none aborts the caller.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeEmpty       Outcome = "empty"
	OutcomeMalformed   Outcome = "malformed"
	OutcomeFailed      Outcome = "failed"
	OutcomeThrottled   Outcome = "throttled"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeDisabled    Outcome = "disabled"
)

// Result is what a session gets back for one submitted frame.
type Result struct {
	Outcome    Outcome
	Detections []Detection
	Malformed  int
	Err        error
}

// HasPerson reports whether any detection is a person.
func (r Result) HasPerson() bool {
	for _, d := range r.Detections {
		if d.IsPerson() {
			return true
		}
	}
	return false
}
