// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package camera

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/detect"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/ManuGH/motioncam/internal/stream"
	"github.com/ManuGH/motioncam/internal/vision"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeResolver struct {
	addrs []string
	err   error
	calls int
}

func (r *fakeResolver) Resolve(context.Context, string) ([]string, error) {
	r.calls++
	return r.addrs, r.err
}

// fakeSource serves queued frames. When the queue is empty it is idle, or
// unhealthy once fail is set.
type fakeSource struct {
	size     image.Point
	queue    []*vision.Frame
	fail     bool
	healthy  bool
	released bool
}

func (s *fakeSource) NextFrame() (*vision.Frame, bool) {
	if !s.healthy {
		return nil, false
	}
	if len(s.queue) == 0 {
		if s.fail {
			s.healthy = false
		}
		return nil, false
	}
	f := s.queue[0]
	s.queue = s.queue[1:]
	return f, true
}

func (s *fakeSource) Healthy() bool     { return s.healthy }
func (s *fakeSource) Size() image.Point { return s.size }
func (s *fakeSource) Release() error    { s.healthy = false; s.released = true; return nil }

type fakeConnector struct {
	err     error
	sources []*fakeSource
	calls   int

	// clock, when set, is advanced by latency on every Connect.
	clock   *fakeClock
	latency time.Duration
}

func (c *fakeConnector) Connect(_ context.Context, candidates []string, _ string) (stream.Source, string, error) {
	c.calls++
	if c.clock != nil {
		c.clock.Advance(c.latency)
	}
	if c.err != nil {
		return nil, "", c.err
	}
	src := &fakeSource{size: image.Pt(8, 8), healthy: true}
	c.sources = append(c.sources, src)
	return src, candidates[0], nil
}

func (c *fakeConnector) current() *fakeSource {
	return c.sources[len(c.sources)-1]
}

// scriptDetector answers call n (1-based) with script[n], or an empty result.
type scriptDetector struct {
	script map[int]detect.Result
	calls  int
}

func (d *scriptDetector) Detect(context.Context, image.Image, float64) detect.Result {
	d.calls++
	if r, ok := d.script[d.calls]; ok {
		return r
	}
	return detect.Result{Outcome: detect.OutcomeEmpty}
}

func personResult() detect.Result {
	return detect.Result{
		Outcome:    detect.OutcomeOK,
		Detections: []detect.Detection{{Label: detect.PersonLabel, ClassIndex: 1, Confidence: 0.9, Box: image.Rect(1, 1, 6, 6)}},
	}
}

type fakeWriter struct {
	factory    *fakeFactory
	path       string
	frames     int
	finalized  bool
	discarded  bool
	closed     bool
	discardErr error
}

func (w *fakeWriter) Write(*image.Gray) error {
	if w.closed {
		return segment.ErrClosed
	}
	w.frames++
	return nil
}

func (w *fakeWriter) close() {
	if !w.closed {
		w.closed = true
		w.factory.open--
	}
}

func (w *fakeWriter) Finalize() error { w.close(); w.finalized = true; return nil }

func (w *fakeWriter) Discard() error {
	w.close()
	if w.discardErr != nil {
		return w.discardErr
	}
	w.discarded = true
	return nil
}

func (w *fakeWriter) Path() string { return w.path }
func (w *fakeWriter) Frames() int  { return w.frames }

type fakeFactory struct {
	writers    []*fakeWriter
	open       int
	maxOpen    int
	openErr    error
	discardErr error
}

func (f *fakeFactory) Open(path string, _ image.Point, _ int) (segment.Writer, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	w := &fakeWriter{factory: f, path: path, discardErr: f.discardErr}
	f.writers = append(f.writers, w)
	f.open++
	f.maxOpen = max(f.maxOpen, f.open)
	return w, nil
}

type recordObserver struct{ records []segment.Record }

func (o *recordObserver) SegmentClosed(_ context.Context, rec segment.Record) {
	o.records = append(o.records, rec)
}

var errStorageFull = errors.New("no space left on device")

type harness struct {
	clock    *fakeClock
	resolver *fakeResolver
	conn     *fakeConnector
	detector *scriptDetector
	factory  *fakeFactory
	observer *recordObserver
	session  *Session
	seq      uint64
}

func testConfig() config.CameraConfig {
	return config.CameraConfig{
		Name:     "garage",
		MAC:      "a4:13:4e:00:11:22",
		Password: "pw",
		Folder:   "/recordings/garage",
		Settings: config.Settings{
			SegmentSize:    2 * time.Second,
			ScaleFactor:    0.5,
			RetryInterval:  10 * time.Second,
			MinConfidence:  0.5,
			DetectNthFrame: 1,
			WriterFPS:      10,
		},
	}
}

func newHarness(cfg config.CameraConfig) *harness {
	h := &harness{
		clock:    &fakeClock{now: time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)},
		resolver: &fakeResolver{addrs: []string{"192.168.1.40"}},
		conn:     &fakeConnector{},
		detector: &scriptDetector{script: map[int]detect.Result{}},
		factory:  &fakeFactory{},
		observer: &recordObserver{},
	}
	h.session = New(cfg, Deps{
		Resolver:  h.resolver,
		Connector: h.conn,
		Detector:  h.detector,
		Segments:  h.factory,
		Observer:  h.observer,
		Clock:     h.clock,
	})
	return h
}

// feed queues one frame, advances the clock by dt and runs one tick.
func (h *harness) feed(dt time.Duration) *vision.Frame {
	h.seq++
	f, err := vision.NewFrame(make([]byte, 8*8*4), 8, 8, h.seq, h.clock.now)
	if err != nil {
		panic(err)
	}
	src := h.conn.current()
	src.queue = append(src.queue, f)
	h.clock.Advance(dt)
	return h.session.Step(context.Background())
}
