// SPDX-License-Identifier: MIT

// Package daemon wires the recorder's components and manages their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ManuGH/motioncam/internal/api"
	"github.com/ManuGH/motioncam/internal/camera"
	"github.com/ManuGH/motioncam/internal/catalog"
	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/detect"
	"github.com/ManuGH/motioncam/internal/health"
	"github.com/ManuGH/motioncam/internal/live"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/ManuGH/motioncam/internal/pool"
	"github.com/ManuGH/motioncam/internal/resolver"
	"github.com/ManuGH/motioncam/internal/segment"
	"github.com/ManuGH/motioncam/internal/stream"
	"github.com/ManuGH/motioncam/internal/telemetry"
)

// apiRateLimit is the per-IP request budget per minute on /api/v1.
const apiRateLimit = 600

// Options select what Build wires. Zero values pick the production
// implementations.
type Options struct {
	Config  config.AppConfig
	Holder  *config.Holder
	Version string

	// Opener replaces the ffmpeg stream opener.
	Opener stream.Opener
	// Segments replaces the ffmpeg segment encoder.
	Segments segment.Factory
	// Resolver replaces the configured resolver chain.
	Resolver camera.Resolver
	// Detector replaces the configured classifier.
	Detector camera.Detector
}

// Build constructs every component described by opts.Config and returns the
// app that runs them. On error everything already built is released.
func Build(ctx context.Context, opts Options) (app *App, err error) {
	cfg := opts.Config
	logger := log.WithComponent("daemon")

	var cleanup []func(context.Context) error
	defer func() {
		if err == nil {
			return
		}
		for i := len(cleanup) - 1; i >= 0; i-- {
			_ = cleanup[i](context.WithoutCancel(ctx))
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "motioncam",
		ServiceVersion: opts.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	cleanup = append(cleanup, tp.Shutdown)

	detector := opts.Detector
	var svc *detect.Service
	if detector == nil {
		svc, err = detect.Init(cfg.Classifier)
		if err != nil {
			return nil, fmt.Errorf("classifier: %w", err)
		}
		detector = svc
		cleanup = append(cleanup, func(context.Context) error { return svc.Shutdown() })
	}

	res := opts.Resolver
	if res == nil {
		chain, err := resolver.New(ctx, cfg.Resolver)
		if err != nil {
			return nil, fmt.Errorf("resolver: %w", err)
		}
		logger.Info().Str(log.FieldEvent, "resolver.ready").Str("chain", chain.Name()).Msg("address resolver ready")
		res = chain
		cleanup = append(cleanup, func(context.Context) error { return chain.Close() })
	}

	var cat *catalog.Catalog
	if cfg.CatalogPath != "" {
		cat, err = catalog.Open(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		cleanup = append(cleanup, func(context.Context) error { return cat.Close() })
	}

	factory := opts.Segments
	if factory == nil {
		factory = segment.FFmpegFactory{Bin: cfg.FFmpeg.Bin, KillGrace: cfg.FFmpeg.KillGrace}
	}

	sessions := make([]pool.Session, 0, len(cfg.Cameras))
	for _, cam := range cfg.Cameras {
		opener := opts.Opener
		if opener == nil {
			opener = stream.NewFFmpegOpener(stream.FFmpegOptions{
				Bin:       cfg.FFmpeg.Bin,
				ProbeBin:  cfg.FFmpeg.ProbeBin,
				FPS:       cam.CaptureFPS,
				Timeout:   cam.ConnectTimeout,
				KillGrace: cfg.FFmpeg.KillGrace,
				Realtime:  cam.Realtime,
				Camera:    cam.Name,
			})
		}
		deps := camera.Deps{
			Resolver:  res,
			Connector: stream.NewConnector(opener, cam.URLTemplate, cam.Name),
			Detector:  detector,
			Segments:  factory,
		}
		if cat != nil {
			deps.Observer = cat
		}
		sessions = append(sessions, camera.New(cam, deps))
	}

	a := NewApp(logger, nil, nil, opts.Holder)
	hub := live.NewHub(a.Interrupt)
	drv := pool.New(sessions, pool.Options{
		IdleSleep: cfg.IdleSleep,
		Display:   cfg.Display,
		Presenter: hub,
	})

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewSessionsChecker(drv.Statuses))
	for _, cam := range cfg.Cameras {
		if cam.Debug {
			continue
		}
		hm.RegisterChecker(health.Informational(health.NewWritableDirChecker("storage_"+cam.Name, cam.Folder)))
	}

	apiDeps := api.Deps{Cameras: drv, Health: hm}
	if cat != nil {
		apiDeps.Segments = cat
		hm.RegisterChecker(health.NewPingChecker("catalog", 0, cat.Ping))
	}
	if cfg.Display {
		apiDeps.Live = hub
	}
	apiCfg := api.Config{Version: opts.Version, RateLimit: apiRateLimit}
	if cfg.Telemetry.Enabled {
		apiCfg.TracingService = "motioncam-api"
	}
	srv := api.New(apiCfg, apiDeps)

	mgr, err := NewManager(DefaultServerConfig(cfg.Listen), Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		return nil, err
	}

	// LIFO: the catalog closes first, telemetry last.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	if svc != nil {
		mgr.RegisterShutdownHook("classifier", func(context.Context) error { return svc.Shutdown() })
	}
	if c, ok := res.(interface{ Close() error }); ok && opts.Resolver == nil {
		mgr.RegisterShutdownHook("resolver", func(context.Context) error { return c.Close() })
	}
	if cat != nil {
		mgr.RegisterShutdownHook("catalog", func(context.Context) error { return cat.Close() })
	}

	a.manager = mgr
	a.pool = drv

	logger.Info().
		Str(log.FieldEvent, "daemon.built").
		Int("cameras", len(sessions)).
		Bool("display", cfg.Display).
		Bool("catalog", cat != nil).
		Str("listen", cfg.Listen).
		Msg("recorder assembled")
	return a, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// IsShutdown reports whether err only reflects an orderly stop.
func IsShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
