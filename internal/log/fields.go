// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRunID     = "run_id"
	FieldRequestID = "request_id"
	FieldCamera    = "camera"
	FieldMAC       = "mac"
	FieldAddress   = "address"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPID       = "pid"

	// Segment fields
	FieldSegment      = "segment"
	FieldSegmentIndex = "segment_index"
	FieldPath         = "path"
	FieldFrames       = "frames"

	// Media / stream fields
	FieldResolution = "resolution"
	FieldFPS        = "fps"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldAttempt  = "attempt"
)
