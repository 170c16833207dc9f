// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ffmpeg runs the ffmpeg and ffprobe helpers used to decode camera
// streams and encode segments. Every helper runs in its own process group and
// keeps the tail of its stderr for diagnostics.
package ffmpeg
