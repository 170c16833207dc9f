// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/procgroup"
)

// ErrNotRunning is returned when a pipe of a finished process is requested.
var ErrNotRunning = errors.New("process not running")

// Spec describes a helper process.
type Spec struct {
	Bin    string
	Args   []string
	Role   string // decoder, encoder, probe; used for metrics
	Stdin  bool
	Stdout bool
}

// Process is a running helper in its own process group.
type Process struct {
	cmd    *exec.Cmd
	role   string
	ring   *LineRing
	stdin  io.WriteCloser
	stdout io.ReadCloser

	done    chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

// Start launches the helper. The caller owns the returned process and must
// call Stop or CloseAndWait.
func Start(spec Spec) (*Process, error) {
	// #nosec G204 -- binary and arguments come from operator config and fixed templates
	cmd := exec.Command(spec.Bin, spec.Args...)
	procgroup.Set(cmd)

	p := &Process{
		cmd:  cmd,
		role: spec.Role,
		ring: NewLineRing(64),
		done: make(chan struct{}),
	}
	cmd.Stderr = p.ring

	var err error
	if spec.Stdin {
		if p.stdin, err = cmd.StdinPipe(); err != nil {
			return nil, fmt.Errorf("stdin pipe: %w", err)
		}
	}
	if spec.Stdout {
		if p.stdout, err = cmd.StdoutPipe(); err != nil {
			return nil, fmt.Errorf("stdout pipe: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		metrics.IncProcStart(spec.Role, "error")
		return nil, fmt.Errorf("start %s: %w", spec.Bin, err)
	}
	metrics.IncProcStart(spec.Role, "ok")

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Pid returns the process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Stdin returns the write end of the process's stdin.
func (p *Process) Stdin() io.WriteCloser {
	return p.stdin
}

// Stdout returns the read end of the process's stdout.
func (p *Process) Stdout() io.Reader {
	return p.stdout
}

// Done is closed once the process has exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// StderrTail returns the last n lines written to stderr.
func (p *Process) StderrTail(n int) []string {
	return p.ring.LastN(n)
}

// Stop terminates the process group: SIGTERM, then SIGKILL after grace.
// It is idempotent and returns the exit error of the first call.
func (p *Process) Stop(grace time.Duration) error {
	p.stopOnce.Do(func() {
		if p.stdin != nil {
			_ = p.stdin.Close()
		}
		if p.Exited() {
			p.stopErr = p.waitErr
			return
		}
		p.stopErr = procgroup.Terminate(p.cmd, p.waitCh(), grace)
	})
	return p.stopErr
}

// CloseAndWait closes stdin so the process can flush and exit on its own,
// and falls back to Stop when it does not exit within grace.
func (p *Process) CloseAndWait(grace time.Duration) error {
	if p.stdin != nil {
		_ = p.stdin.Close()
	}
	select {
	case <-p.done:
		p.stopOnce.Do(func() { p.stopErr = p.waitErr })
		return p.Stop(grace)
	case <-time.After(grace):
		return p.Stop(grace)
	}
}

func (p *Process) waitCh() <-chan error {
	ch := make(chan error, 1)
	go func() {
		<-p.done
		ch <- p.waitErr
	}()
	return ch
}
