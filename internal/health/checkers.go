// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ManuGH/motioncam/internal/camera"
)

// SessionsChecker reports how many cameras are connected.
// Some cameras offline is degraded; all offline is unhealthy.
type SessionsChecker struct {
	statuses func() []camera.Status
}

// NewSessionsChecker creates a checker over the pool's status snapshot.
func NewSessionsChecker(statuses func() []camera.Status) *SessionsChecker {
	return &SessionsChecker{statuses: statuses}
}

func (c *SessionsChecker) Name() string { return "sessions" }

func (c *SessionsChecker) Check(_ context.Context) CheckResult {
	all := c.statuses()
	if len(all) == 0 {
		return CheckResult{Status: StatusHealthy, Message: "no cameras configured"}
	}

	var offline []string
	for _, st := range all {
		if st.State != camera.StateConnected {
			offline = append(offline, st.Name)
		}
	}

	switch {
	case len(offline) == 0:
		return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("%d/%d connected", len(all), len(all))}
	case len(offline) == len(all):
		return CheckResult{
			Status:  StatusUnhealthy,
			Message: "no camera connected",
			Error:   "offline: " + strings.Join(offline, ","),
		}
	default:
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("%d/%d connected", len(all)-len(offline), len(all)),
			Error:   "offline: " + strings.Join(offline, ","),
		}
	}
}

// WritableDirChecker verifies that a recording folder accepts new files.
type WritableDirChecker struct {
	name string
	path string
}

// NewWritableDirChecker creates a checker for a directory that must be writable.
func NewWritableDirChecker(name, path string) *WritableDirChecker {
	return &WritableDirChecker{name: name, path: path}
}

func (c *WritableDirChecker) Name() string { return c.name }

func (c *WritableDirChecker) Check(_ context.Context) CheckResult {
	if err := checkWritable(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Message: c.path, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: c.path}
}

// PingChecker wraps a ping function with a bounded timeout.
type PingChecker struct {
	name    string
	timeout time.Duration
	ping    func(context.Context) error
}

// NewPingChecker creates a checker that fails when ping returns an error.
func NewPingChecker(name string, timeout time.Duration, ping func(context.Context) error) *PingChecker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &PingChecker{name: name, timeout: timeout, ping: ping}
}

func (c *PingChecker) Name() string { return c.name }

func (c *PingChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.ping(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// Informational downgrades unhealthy results of c to degraded so they never
// flip readiness.
func Informational(c Checker) Checker {
	return informational{c}
}

type informational struct{ Checker }

func (i informational) Check(ctx context.Context) CheckResult {
	res := i.Checker.Check(ctx)
	if res.Status == StatusUnhealthy {
		res.Status = StatusDegraded
	}
	return res
}

func checkWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	probe := filepath.Join(path, ".motioncam_write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(probe)
	return nil
}
