// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"context"
	"image"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/vision"
)

// FreshestSource decodes in the background and keeps only the newest frame.
//
// The producer publishes each frame by pointer swap under mu and never
// touches it afterwards. A frame that is overwritten before being consumed
// counts as dropped.
type FreshestSource struct {
	reader *frameReader
	closer func() error
	camera string

	mu      sync.Mutex
	latest  *vision.Frame
	dropped uint64
	err     error

	healthy atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

// NewFreshestSource starts the producer. closer must unblock a pending read
// on r; it is called once on Release.
func NewFreshestSource(r io.Reader, size image.Point, closer func() error, camera string) *FreshestSource {
	ctx, cancel := context.WithCancel(context.Background())
	s := &FreshestSource{
		reader: newFrameReader(r, size),
		closer: closer,
		camera: camera,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.healthy.Store(true)
	go s.produce(ctx)
	return s
}

func (s *FreshestSource) produce(ctx context.Context) {
	defer close(s.done)
	for {
		f, err := s.reader.read()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			s.healthy.Store(false)
			return
		}
		metrics.IncFrames(s.camera)

		s.mu.Lock()
		if s.latest != nil {
			s.dropped++
		}
		s.latest = f
		s.mu.Unlock()
	}
}

// NextFrame returns the newest unconsumed frame without blocking.
func (s *FreshestSource) NextFrame() (*vision.Frame, bool) {
	s.mu.Lock()
	f := s.latest
	s.latest = nil
	dropped := s.dropped
	s.dropped = 0
	s.mu.Unlock()

	metrics.AddFramesDropped(s.camera, dropped)
	return f, f != nil
}

func (s *FreshestSource) Healthy() bool { return s.healthy.Load() }

func (s *FreshestSource) Size() image.Point { return s.reader.size }

// Err returns the read error that stopped the producer, if any.
func (s *FreshestSource) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Release stops the producer and waits for it to exit.
func (s *FreshestSource) Release() error {
	s.releaseOnce.Do(func() {
		s.healthy.Store(false)
		s.cancel()
		if s.closer != nil {
			s.releaseErr = s.closer()
		}
		<-s.done
		s.mu.Lock()
		s.latest = nil
		s.mu.Unlock()
	})
	return s.releaseErr
}
