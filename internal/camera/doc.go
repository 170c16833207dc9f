// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package camera implements the per-camera recording session.
//
// A Session is DISCONNECTED or CONNECTED. While disconnected it retries setup
// (resolve the MAC, open the stream) every retry interval, forever. While
// connected each Step reads one frame, appends a reduced copy to the current
// segment, rotates the segment once segment_size has elapsed, and every Nth
// frame asks the classifier whether a person is visible. A segment that saw a
// person is kept; any other segment is deleted at rotation and, unless
// monotonic indices are enabled, its index is handed to the next segment.
//
// A Session is driven by a single goroutine. Status may be called from any
// goroutine.
package camera
