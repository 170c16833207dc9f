// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package stream

import (
	"image"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/vision"
)

// SyncSource reads one frame per NextFrame call.
type SyncSource struct {
	reader  *frameReader
	closer  func() error
	camera  string
	healthy atomic.Bool
	lastErr atomic.Value

	releaseOnce sync.Once
	releaseErr  error
}

// NewSyncSource reads frames of size from r. closer is called once on Release.
func NewSyncSource(r io.Reader, size image.Point, closer func() error, camera string) *SyncSource {
	s := &SyncSource{reader: newFrameReader(r, size), closer: closer, camera: camera}
	s.healthy.Store(true)
	return s
}

func (s *SyncSource) NextFrame() (*vision.Frame, bool) {
	if !s.healthy.Load() {
		return nil, false
	}
	f, err := s.reader.read()
	if err != nil {
		s.lastErr.Store(err)
		s.healthy.Store(false)
		return nil, false
	}
	metrics.IncFrames(s.camera)
	return f, true
}

func (s *SyncSource) Healthy() bool { return s.healthy.Load() }

func (s *SyncSource) Size() image.Point { return s.reader.size }

// Err returns the read error that made the source unhealthy, if any.
func (s *SyncSource) Err() error {
	err, _ := s.lastErr.Load().(error)
	return err
}

func (s *SyncSource) Release() error {
	s.releaseOnce.Do(func() {
		s.healthy.Store(false)
		if s.closer != nil {
			s.releaseErr = s.closer()
		}
	})
	return s.releaseErr
}
