// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api serves the recorder's HTTP surface: probes, metrics, camera
// status, the segment catalog and live view.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ManuGH/motioncam/internal/api/middleware"
	"github.com/ManuGH/motioncam/internal/camera"
	"github.com/ManuGH/motioncam/internal/catalog"
	"github.com/ManuGH/motioncam/internal/health"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CameraSource exposes session snapshots.
type CameraSource interface {
	Statuses() []camera.Status
	Status(name string) (camera.Status, bool)
}

// SegmentStore is the read side of the catalog.
type SegmentStore interface {
	List(ctx context.Context, f catalog.Filter) ([]segment.Record, error)
	Counts(ctx context.Context, camera string) (map[segment.Outcome]int, error)
}

// LiveView serves presented frames.
type LiveView interface {
	ServeSnapshot(w http.ResponseWriter, r *http.Request, camera string)
	ServeWebsocket(w http.ResponseWriter, r *http.Request, camera string)
	Interrupt()
}

// Config tunes the HTTP surface.
type Config struct {
	Version string
	// TracingService enables otelhttp spans when non-empty.
	TracingService string
	// RateLimit is requests per minute per client IP on /api; 0 disables.
	RateLimit int
}

// Deps are the components behind the routes. Segments and Live may be nil.
type Deps struct {
	Cameras  CameraSource
	Segments SegmentStore
	Live     LiveView
	Health   *health.Manager
	Metrics  http.Handler
}

// Server owns the router.
type Server struct {
	cfg    Config
	deps   Deps
	router chi.Router
}

// New builds the router.
func New(cfg Config, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.NewManager(cfg.Version)
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	s := &Server{cfg: cfg, deps: deps}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:  true,
		TracingService: s.cfg.TracingService,
		EnableLogging:  true,
	})

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	r.Method(http.MethodGet, "/metrics", s.deps.Metrics)

	r.Route("/api/v1", func(r chi.Router) {
		if s.cfg.RateLimit > 0 {
			r.Use(middleware.RateLimit(middleware.RateLimitConfig{
				RequestLimit: s.cfg.RateLimit,
				WindowSize:   time.Minute,
			}))
		}
		r.Get("/version", s.handleVersion)
		r.Get("/cameras", s.handleCameras)
		r.Route("/cameras/{name}", func(r chi.Router) {
			r.Get("/", s.handleCamera)
			r.Get("/snapshot.jpg", s.handleSnapshot)
			r.Get("/live", s.handleLive)
		})
		r.Get("/segments", s.handleSegments)
		r.Get("/segments/counts", s.handleSegmentCounts)
		r.Post("/interrupt", s.handleInterrupt)
	})
	return r
}
