// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package live is the presentation surface: it holds the latest processed
// frame of every camera and pushes frames to websocket viewers. A viewer can
// interrupt the driver loop, which behaves like SIGINT.
package live

import (
	"slices"
	"sync"

	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/vision"
	"github.com/rs/zerolog"
)

// Hub fans frames out to subscribers. Slow subscribers only ever see the
// newest frame.
type Hub struct {
	mu        sync.RWMutex
	latest    map[string]*vision.Frame
	subs      map[string]map[chan *vision.Frame]struct{}
	interrupt func()
	once      sync.Once
	logger    zerolog.Logger
}

// NewHub creates a hub. interrupt is called once by Interrupt.
func NewHub(interrupt func()) *Hub {
	return &Hub{
		latest:    make(map[string]*vision.Frame),
		subs:      make(map[string]map[chan *vision.Frame]struct{}),
		interrupt: interrupt,
		logger:    log.WithComponent("live"),
	}
}

// Present stores f as the newest frame of camera and forwards it to viewers.
func (h *Hub) Present(camera string, f *vision.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest[camera] = f
	for ch := range h.subs[camera] {
		select {
		case ch <- f:
		default:
			// replace the pending frame
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- f:
			default:
			}
		}
	}
}

// Latest returns the newest frame of camera.
func (h *Hub) Latest(camera string) (*vision.Frame, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	f, ok := h.latest[camera]
	return f, ok
}

// Cameras lists cameras that have presented at least one frame.
func (h *Hub) Cameras() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.latest))
	for name := range h.latest {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Subscribe registers a viewer of camera. The returned cancel func must be
// called when the viewer goes away.
func (h *Hub) Subscribe(camera string) (<-chan *vision.Frame, func()) {
	ch := make(chan *vision.Frame, 1)
	h.mu.Lock()
	if h.subs[camera] == nil {
		h.subs[camera] = make(map[chan *vision.Frame]struct{})
	}
	h.subs[camera][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[camera], ch)
			if len(h.subs[camera]) == 0 {
				delete(h.subs, camera)
			}
			h.mu.Unlock()
		})
	}
}

// Viewers returns the number of subscribers of camera.
func (h *Hub) Viewers(camera string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[camera])
}

// Interrupt stops the driver loop. Only the first call has an effect.
func (h *Hub) Interrupt() {
	h.once.Do(func() {
		h.logger.Warn().Str(log.FieldEvent, "live.interrupt").Msg("interrupt requested from live view")
		if h.interrupt != nil {
			h.interrupt()
		}
	})
}
