// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pool

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/motioncam/internal/camera"
	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type event struct {
	camera string
	what   string
}

type journal struct {
	mu     sync.Mutex
	events []event
}

func (j *journal) add(camera, what string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, event{camera, what})
}

func (j *journal) snapshot() []event {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]event(nil), j.events...)
}

type fakeSession struct {
	name    string
	j       *journal
	produce bool
	// stopAfter cancels the run after this many steps
	stopAfter int
	cancel    context.CancelFunc
	steps     int
}

func (s *fakeSession) Name() string { return s.name }

func (s *fakeSession) Step(context.Context) *vision.Frame {
	s.steps++
	s.j.add(s.name, "step")
	if s.stopAfter > 0 && s.steps == s.stopAfter {
		s.cancel()
	}
	if !s.produce {
		return nil
	}
	return &vision.Frame{Image: image.NewRGBA(image.Rect(0, 0, 2, 2)), Seq: uint64(s.steps)}
}

func (s *fakeSession) Release()                     { s.j.add(s.name, "release") }
func (s *fakeSession) CloseSegment(context.Context) { s.j.add(s.name, "close") }
func (s *fakeSession) Status() camera.Status        { return camera.Status{Name: s.name, Frames: uint64(s.steps)} }

type presenter struct{ j *journal }

func (p presenter) Present(camera string, _ *vision.Frame) { p.j.add(camera, "present") }

func TestRun_TicksInOrderAndReleasesOnInterrupt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &journal{}
	a := &fakeSession{name: "a", j: j, produce: true}
	b := &fakeSession{name: "b", j: j, produce: true, stopAfter: 2, cancel: cancel}

	p := New([]Session{a, b}, Options{Display: true, Presenter: presenter{j}})
	require.NoError(t, p.Run(ctx))

	assert.Equal(t, []event{
		{"a", "step"}, {"a", "present"}, {"b", "step"}, {"b", "present"},
		{"a", "step"}, {"a", "present"}, {"b", "step"}, {"b", "present"},
		{"a", "release"}, {"a", "close"}, {"b", "release"}, {"b", "close"},
	}, j.snapshot())
}

func TestRun_DisplayOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	j := &journal{}
	a := &fakeSession{name: "a", j: j, produce: true, stopAfter: 1, cancel: cancel}

	p := New([]Session{a}, Options{Display: false, Presenter: presenter{j}})
	require.NoError(t, p.Run(ctx))

	for _, e := range j.snapshot() {
		assert.NotEqual(t, "present", e.what)
	}
}

func TestRun_IdleSleepWithoutFrames(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	j := &journal{}
	a := &fakeSession{name: "a", j: j}

	p := New([]Session{a}, Options{IdleSleep: 20 * time.Millisecond})
	start := time.Now()
	require.NoError(t, p.Run(ctx))

	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.LessOrEqual(t, a.steps, 7, "idle ticks are paced, not spinning")
	assert.GreaterOrEqual(t, a.steps, 2)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j := &journal{}
	a := &fakeSession{name: "a", j: j}

	require.NoError(t, New([]Session{a}, Options{}).Run(ctx))
	assert.Equal(t, []event{{"a", "release"}, {"a", "close"}}, j.snapshot())
}

func TestStatuses(t *testing.T) {
	j := &journal{}
	p := New([]Session{&fakeSession{name: "a", j: j}, &fakeSession{name: "b", j: j}}, Options{})

	sts := p.Statuses()
	require.Len(t, sts, 2)
	assert.Equal(t, "a", sts[0].Name)
	assert.Equal(t, "b", sts[1].Name)

	st, ok := p.Status("b")
	assert.True(t, ok)
	assert.Equal(t, "b", st.Name)
	_, ok = p.Status("zzz")
	assert.False(t, ok)
}
