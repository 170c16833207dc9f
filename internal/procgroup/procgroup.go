// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package procgroup starts helper processes (ffmpeg, ffprobe) in their own
// process group so that a whole decoder or encoder tree can be stopped at once.
package procgroup

import (
	"errors"
	"syscall"
)

// ErrKillFailed is returned when a process group survives SIGKILL.
var ErrKillFailed = errors.New("kill operation failed")

func isGone(err error) bool {
	return errors.Is(err, syscall.ESRCH) || errors.Is(err, errProcessDone)
}
