// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/detect"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/metrics"
	"github.com/ManuGH/motioncam/internal/resolver"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/ManuGH/motioncam/internal/stream"
	"github.com/ManuGH/motioncam/internal/telemetry"
	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// State is the connection state of a session.
type State string

const (
	StateDisconnected State = "DISCONNECTED"
	StateConnected    State = "CONNECTED"
)

// Resolver looks up candidate addresses for a MAC.
type Resolver interface {
	Resolve(ctx context.Context, mac string) ([]string, error)
}

// Connector opens the first working candidate.
type Connector interface {
	Connect(ctx context.Context, candidates []string, credential string) (stream.Source, string, error)
}

// Detector classifies a frame. It never fails; problems are outcomes.
type Detector interface {
	Detect(ctx context.Context, img image.Image, threshold float64) detect.Result
}

// SegmentObserver is told about every closed segment.
type SegmentObserver interface {
	SegmentClosed(ctx context.Context, rec segment.Record)
}

// Clock supplies the time used for rotation and retry decisions.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Deps are the collaborators of a session.
type Deps struct {
	Resolver  Resolver
	Connector Connector
	Detector  Detector        // nil disables detection
	Segments  segment.Factory // ignored in debug mode
	Observer  SegmentObserver // optional
	Clock     Clock           // optional
}

// Session is the recording state machine of one camera.
type Session struct {
	cfg      config.CameraConfig
	resolver Resolver
	connect  Connector
	detector Detector
	segments segment.Factory
	observer SegmentObserver
	clock    Clock
	logger   zerolog.Logger
	tracer   trace.Tracer

	source  stream.Source
	ready   bool
	address string
	lowres  image.Point

	index        int
	writer       segment.Writer
	segPath      string
	segStart     time.Time
	segFailed    bool
	writeFailed  bool
	keep         bool
	persons      int
	evidence     *vision.Frame
	frameCount   uint64
	lastFrameAt  time.Time
	lastAttempt  time.Time
	attempted    bool
	retryCount   int
	attemptCount int

	mu     sync.RWMutex
	status Status
}

// New creates a disconnected session. Call Setup, or let Step do it.
func New(cfg config.CameraConfig, deps Deps) *Session {
	s := &Session{
		cfg:      cfg,
		resolver: deps.Resolver,
		connect:  deps.Connector,
		detector: deps.Detector,
		segments: deps.Segments,
		observer: deps.Observer,
		clock:    deps.Clock,
		logger:   log.WithCamera(cfg.Name),
		tracer:   telemetry.Tracer("motioncam/camera"),
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if cfg.Debug || s.segments == nil {
		s.segments = segment.NopFactory{}
	}
	s.publish()
	return s
}

// Name returns the camera display name.
func (s *Session) Name() string { return s.cfg.Name }

// Config returns the camera configuration.
func (s *Session) Config() config.CameraConfig { return s.cfg }

// Setup resolves the camera and opens its stream. The first successful setup
// opens the first segment; later ones continue the current segment. Every
// call on a disconnected session counts as an attempt for retry gating; on a
// connected session Setup does nothing.
func (s *Session) Setup(ctx context.Context) error {
	if s.ready {
		return nil
	}
	defer s.publish()

	s.lastAttempt = s.clock.Now()
	s.attempted = true
	s.attemptCount++

	addrs, err := s.resolver.Resolve(ctx, s.cfg.MAC)
	if err == nil && len(addrs) == 0 {
		err = resolver.ErrResolution
	}
	if err != nil {
		if !errors.Is(err, resolver.ErrResolution) {
			err = fmt.Errorf("%w: %w", resolver.ErrResolution, err)
		}
		metrics.IncReconnect(s.cfg.Name, "unresolved")
		s.logger.Error().
			Err(err).
			Str(log.FieldEvent, "camera.resolve_failed").
			Str(log.FieldMAC, s.cfg.MAC).
			Msgf("cannot find any address matching mac %q", s.cfg.MAC)
		return err
	}

	src, addr, err := s.connect.Connect(ctx, addrs, s.cfg.Password)
	if err != nil {
		metrics.IncReconnect(s.cfg.Name, "failed")
		s.logger.Error().
			Err(err).
			Str(log.FieldEvent, "camera.connect_failed").
			Strs("candidates", addrs).
			Msg("cannot open video stream")
		return err
	}

	s.source = src
	s.address = addr
	s.ready = true
	s.retryCount = 0
	s.lowres = vision.ScaledSize(src.Size(), s.cfg.ScaleFactor)
	metrics.IncReconnect(s.cfg.Name, "connected")
	metrics.SetConnected(s.cfg.Name, true)

	size := src.Size()
	s.logger.Info().
		Str(log.FieldEvent, "camera.connected").
		Str(log.FieldAddress, addr).
		Str(log.FieldResolution, fmt.Sprintf("%dx%d", size.X, size.Y)).
		Msg("opened video stream successfully")

	// The segment clock starts once the stream is open, not when the attempt began.
	if s.writer == nil {
		s.openSegment(s.clock.Now())
	}
	return nil
}

// Step runs one scheduling tick and returns the processed, possibly
// annotated frame, or nil when no frame was processed.
func (s *Session) Step(ctx context.Context) *vision.Frame {
	if !s.ready {
		s.retry(ctx)
		return nil
	}

	f, ok := s.source.NextFrame()
	if !ok {
		if !s.source.Healthy() {
			s.disconnect()
		}
		return nil
	}
	defer s.publish()

	s.frameCount++
	s.lastFrameAt = f.CapturedAt
	s.write(f)

	now := s.clock.Now()
	if now.Sub(s.segStart) >= s.cfg.SegmentSize {
		s.rotate(ctx, now)
	}

	if s.detector != nil && s.cfg.DetectNthFrame > 0 && s.frameCount%uint64(s.cfg.DetectNthFrame) == 0 {
		return s.detect(ctx, f)
	}
	return f
}

func (s *Session) retry(ctx context.Context) {
	if s.attempted && s.clock.Now().Sub(s.lastAttempt) < s.cfg.RetryInterval {
		return
	}
	if s.attempted {
		s.retryCount++
		s.logger.Warn().
			Str(log.FieldEvent, "camera.retry").
			Int(log.FieldAttempt, s.retryCount).
			Msgf("retrying connection... attempt %d", s.retryCount)
	}
	_ = s.Setup(ctx)
}

func (s *Session) disconnect() {
	var cause error
	if e, ok := s.source.(interface{ Err() error }); ok {
		cause = e.Err()
	}
	if cause == nil {
		cause = stream.ErrRead
	}
	s.logger.Warn().
		Err(cause).
		Str(log.FieldEvent, "camera.disconnected").
		Str(log.FieldAddress, s.address).
		Uint64(log.FieldFrames, s.frameCount).
		Msg("stream lost, will reconnect")
	s.releaseSource()
	s.publish()
}

func (s *Session) releaseSource() {
	if s.source != nil {
		if err := s.source.Release(); err != nil {
			s.logger.Warn().Err(err).Str(log.FieldEvent, "camera.release_failed").Msg("stream release failed")
		}
		s.source = nil
	}
	if s.ready {
		metrics.SetConnected(s.cfg.Name, false)
	}
	s.ready = false
	s.address = ""
}

func (s *Session) write(f *vision.Frame) {
	if s.writer == nil {
		return
	}
	if err := s.writer.Write(vision.Reduce(f.Image, s.lowres)); err != nil {
		if !s.writeFailed {
			s.logger.Error().
				Err(err).
				Str(log.FieldEvent, "segment.write_failed").
				Str(log.FieldSegment, s.segPath).
				Msg("cannot write to segment")
		}
		s.writeFailed = true
	}
}

func (s *Session) rotate(ctx context.Context, now time.Time) {
	_, span := s.tracer.Start(ctx, "camera.rotate",
		trace.WithAttributes(telemetry.CameraAttributes(s.cfg.Name, s.index)...))
	defer span.End()

	s.closeSegment(ctx, now, false)
	s.keep = false
	s.openSegment(now)
}

func (s *Session) openSegment(now time.Time) {
	s.index++
	s.segPath = filepath.Join(s.cfg.Folder, segment.Filename(s.cfg.Name, s.index, now))
	s.segStart = now
	s.segFailed = false
	s.writeFailed = false
	s.persons = 0
	s.evidence = nil

	w, err := s.segments.Open(s.segPath, s.lowres, s.cfg.WriterFPS)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str(log.FieldEvent, "segment.open_failed").
			Str(log.FieldSegment, s.segPath).
			Msg("cannot create segment, frames of this segment are lost")
		w = segment.NewNop(s.segPath)
		s.segFailed = true
	}
	s.writer = w
	s.logger.Debug().
		Str(log.FieldEvent, "segment.opened").
		Int(log.FieldSegmentIndex, s.index).
		Str(log.FieldSegment, s.segPath).
		Msg("new segment")
}

// closeSegment finalizes or discards the current segment and reports it.
func (s *Session) closeSegment(ctx context.Context, now time.Time, shutdown bool) {
	if s.writer == nil {
		return
	}
	rec := segment.Record{
		Camera:   s.cfg.Name,
		Index:    s.index,
		Path:     s.segPath,
		OpenedAt: s.segStart,
		ClosedAt: now,
		Frames:   s.writer.Frames(),
		Persons:  s.persons,
	}

	switch {
	case shutdown:
		rec.Outcome = segment.OutcomeFinalizedOnShutdown
		if err := s.writer.Finalize(); err != nil {
			rec.Outcome, rec.Error = segment.OutcomeFailed, err.Error()
		}
		s.logger.Info().
			Str(log.FieldEvent, "segment.finalized").
			Str(log.FieldSegment, s.segPath).
			Msgf("saving %s", s.segPath)

	case !s.keep:
		s.logger.Warn().
			Str(log.FieldEvent, "segment.discarded").
			Str(log.FieldSegment, s.segPath).
			Msgf("no motion: deleting %s", s.segPath)
		rec.Outcome = segment.OutcomeDiscarded
		if err := s.writer.Discard(); err != nil {
			rec.Outcome, rec.Error = segment.OutcomeFailed, err.Error()
			s.logger.Error().
				Err(err).
				Str(log.FieldEvent, "segment.delete_failed").
				Str(log.FieldSegment, s.segPath).
				Msg("cannot delete segment, its index is retired")
		} else if !s.cfg.MonotonicIndex {
			s.index--
		}

	default:
		s.logger.Info().
			Str(log.FieldEvent, "segment.kept").
			Str(log.FieldSegment, s.segPath).
			Int("persons", s.persons).
			Msgf("saving %s", s.segPath)
		rec.Outcome = segment.OutcomeKept
		if err := s.writer.Finalize(); err != nil {
			rec.Outcome, rec.Error = segment.OutcomeFailed, err.Error()
			s.logger.Error().Err(err).Str(log.FieldEvent, "segment.finalize_failed").Str(log.FieldSegment, s.segPath).Msg("cannot finalize segment")
		}
		rec.Evidence = s.writeEvidence()
	}

	if s.segFailed || s.writeFailed {
		rec.Outcome = segment.OutcomeFailed
	}
	s.writer = nil
	metrics.IncSegment(s.cfg.Name, string(rec.Outcome))
	if s.observer != nil {
		s.observer.SegmentClosed(ctx, rec)
	}
}

func (s *Session) writeEvidence() string {
	if !s.cfg.Evidence || s.cfg.Debug || s.segFailed || s.evidence == nil {
		return ""
	}
	path, err := segment.WriteEvidence(s.segPath, s.evidence.Image)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldEvent, "segment.evidence_failed").Msg("cannot store evidence still")
		return ""
	}
	return path
}

func (s *Session) detect(ctx context.Context, f *vision.Frame) *vision.Frame {
	res := s.detector.Detect(ctx, f.Image, s.cfg.MinConfidence)

	switch res.Outcome {
	case detect.OutcomeOK, detect.OutcomeDisabled:
	case detect.OutcomeFailed, detect.OutcomeUnavailable:
		s.logger.Debug().Err(res.Err).Str(log.FieldEvent, "detect."+string(res.Outcome)).Msg("no detections for frame")
	default:
		s.logger.Debug().
			Str(log.FieldEvent, "detect."+string(res.Outcome)).
			Int("malformed", res.Malformed).
			Msg("no usable detections")
	}
	if res.Malformed > 0 && res.Outcome == detect.OutcomeOK {
		s.logger.Debug().Str(log.FieldEvent, "detect.malformed_entries").Int("malformed", res.Malformed).Msg("skipped malformed detections")
	}
	if len(res.Detections) == 0 {
		return f
	}

	boxes := make([]vision.Box, len(res.Detections))
	for i, d := range res.Detections {
		boxes[i] = vision.Box{Rect: d.Box, Label: d.Label, Confidence: d.Confidence, Highlight: d.IsPerson()}
	}
	annotated := vision.Annotate(f, boxes)

	if res.HasPerson() {
		if !s.keep {
			s.logger.Info().
				Str(log.FieldEvent, "camera.person").
				Int(log.FieldSegmentIndex, s.index).
				Msg("person detected, keeping segment")
		}
		s.keep = true
		s.persons++
		s.evidence = annotated
	}
	return annotated
}

// Release stops the stream. The current segment is left open; the caller
// decides whether to close it. A later Setup starts from a clean connection.
func (s *Session) Release() {
	s.logger.Info().Str(log.FieldEvent, "camera.release").Msg("closing stream")
	s.releaseSource()
	s.publish()
}

// CloseSegment finalizes the current segment at shutdown, whatever its keep
// flag.
func (s *Session) CloseSegment(ctx context.Context) {
	s.closeSegment(ctx, s.clock.Now(), true)
	s.publish()
}
