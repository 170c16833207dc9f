// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Attribute keys shared by spans.
const (
	CameraKey          = "motioncam.camera"
	SegmentIndexKey    = "motioncam.segment.index"
	DetectBackendKey   = "detect.backend"
	DetectThresholdKey = "detect.threshold"
	DetectCountKey     = "detect.count"
	DetectOutcomeKey   = "detect.outcome"
	ResolverBackendKey = "resolver.backend"
	ErrorTypeKey       = "error.type"
)

// DetectAttributes creates classifier span attributes.
func DetectAttributes(backend string, threshold float64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(DetectBackendKey, backend),
		attribute.Float64(DetectThresholdKey, threshold),
	}
}

// CameraAttributes creates per-camera span attributes.
func CameraAttributes(camera string, segmentIndex int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(CameraKey, camera)}
	if segmentIndex > 0 {
		attrs = append(attrs, attribute.Int(SegmentIndexKey, segmentIndex))
	}
	return attrs
}
