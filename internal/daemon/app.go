// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/motioncam/internal/config"
	"github.com/ManuGH/motioncam/internal/log"
	"github.com/rs/zerolog"
)

// Runner is the driver loop. Run returns once ctx is done and every session
// has been released.
type Runner interface {
	Run(ctx context.Context) error
}

// App owns the runtime lifecycle: the driver loop, config reload wiring and
// the server manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	pool         Runner
	cfgHolder    *config.Holder
	reloadSignal os.Signal

	interruptOnce sync.Once
	interrupted   chan struct{}
}

// NewApp creates a new App orchestrator. cfgHolder may be nil.
func NewApp(logger zerolog.Logger, manager Manager, pool Runner, cfgHolder *config.Holder) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		pool:         pool,
		cfgHolder:    cfgHolder,
		reloadSignal: syscall.SIGHUP,
		interrupted:  make(chan struct{}),
	}
}

// Interrupt stops Run as if the process received SIGINT.
func (a *App) Interrupt() {
	a.interruptOnce.Do(func() { close(a.interrupted) })
}

// Run blocks until ctx is cancelled, Interrupt is called or a fatal error
// occurs. The driver loop finishes its orderly release before the server is
// stopped and the shutdown hooks run.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}
	if a.pool == nil {
		return ErrMissingPool
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		select {
		case <-a.interrupted:
			a.logger.Info().Str(log.FieldEvent, "app.interrupted").Msg("interrupt requested, stopping")
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if a.cfgHolder != nil {
		if err := a.cfgHolder.StartWatcher(gctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case cfg := <-applyCh:
					a.applyLogLevel(cfg.LogLevel)
				}
			}
		})

		if a.reloadSignal != nil {
			g.Go(func() error {
				hupChan := make(chan os.Signal, 1)
				signal.Notify(hupChan, a.reloadSignal)
				defer signal.Stop(hupChan)

				for {
					select {
					case <-gctx.Done():
						return nil
					case <-hupChan:
						a.logger.Info().
							Str(log.FieldEvent, "config.reload_signal").
							Str("signal", a.reloadSignal.String()).
							Msg("received reload signal, reloading config")
						if err := a.cfgHolder.Reload(gctx); err != nil {
							a.logger.Warn().Err(err).Str(log.FieldEvent, "config.reload_failed").Msg("config reload failed")
						}
					}
				}
			})
		}
	}

	// The server outlives the loop so segment records reach the catalog
	// before its hook closes it.
	serveCtx, stopServe := context.WithCancel(context.WithoutCancel(gctx))
	g.Go(func() error {
		defer stopServe()
		return a.pool.Run(gctx)
	})
	g.Go(func() error {
		err := a.manager.Start(serveCtx)
		if err != nil {
			cancel()
		}
		return err
	})

	return g.Wait()
}

func (a *App) applyLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return
	}
	if zerolog.GlobalLevel() == parsed {
		return
	}
	zerolog.SetGlobalLevel(parsed)
	a.logger.Info().Str(log.FieldEvent, "config.log_level_applied").Str("level", parsed.String()).Msg("log level changed")
}
