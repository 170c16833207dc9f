// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pool drives every camera session from one goroutine.
package pool

import (
	"context"
	"time"

	"github.com/ManuGH/motioncam/internal/camera"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/rs/zerolog"
)

// DefaultIdleSleep is the pause after a tick in which no session produced a frame.
const DefaultIdleSleep = 10 * time.Millisecond

// Session is the part of camera.Session the loop needs.
type Session interface {
	Name() string
	Step(ctx context.Context) *vision.Frame
	Release()
	CloseSegment(ctx context.Context)
	Status() camera.Status
}

// Presenter receives processed frames keyed by camera name.
type Presenter interface {
	Present(camera string, f *vision.Frame)
}

// Options configure the loop.
type Options struct {
	IdleSleep time.Duration
	// Display enables the presentation step.
	Display   bool
	Presenter Presenter
}

// Pool owns the sessions for the lifetime of Run.
type Pool struct {
	sessions  []Session
	idleSleep time.Duration
	present   Presenter
	logger    zerolog.Logger
}

// New creates a pool over sessions, visited in the given order.
func New(sessions []Session, opts Options) *Pool {
	p := &Pool{
		sessions:  sessions,
		idleSleep: opts.IdleSleep,
		logger:    log.WithComponent("pool"),
	}
	if p.idleSleep <= 0 {
		p.idleSleep = DefaultIdleSleep
	}
	if opts.Display {
		p.present = opts.Presenter
	}
	return p
}

// Statuses returns a snapshot of every session, in configuration order.
func (p *Pool) Statuses() []camera.Status {
	out := make([]camera.Status, len(p.sessions))
	for i, s := range p.sessions {
		out[i] = s.Status()
	}
	return out
}

// Status returns the snapshot of the named session.
func (p *Pool) Status(name string) (camera.Status, bool) {
	for _, s := range p.sessions {
		if s.Name() == name {
			return s.Status(), true
		}
	}
	return camera.Status{}, false
}

// Run ticks until ctx is cancelled, then releases every session and
// finalizes its current segment.
func (p *Pool) Run(ctx context.Context) error {
	p.logger.Info().
		Str(log.FieldEvent, "pool.start").
		Int("cameras", len(p.sessions)).
		Bool("display", p.present != nil).
		Msg("driver loop started")

	idle := time.NewTimer(p.idleSleep)
	idle.Stop()
	defer idle.Stop()

	for ctx.Err() == nil {
		if !p.tick(ctx) {
			idle.Reset(p.idleSleep)
			select {
			case <-ctx.Done():
			case <-idle.C:
			}
		}
	}

	p.shutdown(context.WithoutCancel(ctx))
	return nil
}

// tick visits every session once and reports whether any produced a frame.
func (p *Pool) tick(ctx context.Context) bool {
	start := time.Now()
	produced := false
	for _, s := range p.sessions {
		if ctx.Err() != nil {
			break
		}
		f := s.Step(ctx)
		if f == nil {
			continue
		}
		produced = true
		if p.present != nil {
			p.present.Present(s.Name(), f)
		}
	}
	metrics.ObserveTick(time.Since(start))
	return produced
}

func (p *Pool) shutdown(ctx context.Context) {
	p.logger.Info().Str(log.FieldEvent, "pool.stop").Msg("interrupt received, releasing cameras")
	for _, s := range p.sessions {
		s.Release()
		s.CloseSegment(ctx)
	}
}
