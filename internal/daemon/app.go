// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Reloader is a flag source that can re-read its backing document.
type Reloader interface {
	Reload() error
}

// Watcher follows external edits until ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context) error
}

// App owns the long-lived runtime (flag watcher, reload signal) and
// delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	watcher      Watcher
	reloader     Reloader
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. watcher and reloader may be nil.
func NewApp(logger zerolog.Logger, manager Manager, watcher Watcher, reloader Reloader) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		watcher:      watcher,
		reloader:     reloader,
		reloadSignal: syscall.SIGHUP,
	}
}

// Manager returns the server manager, mainly so callers can register
// additional shutdown hooks.
func (a *App) Manager() Manager { return a.manager }

// Run blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// The watcher is best-effort: a failure leaves the last loaded values active.
	if a.watcher != nil {
		g.Go(func() error {
			if err := a.watcher.Watch(ctx); err != nil {
				a.logger.Warn().Err(err).Str("event", "flags.watcher_start_failed").Msg("failed to start flag watcher")
			}
			return nil
		})
	}

	if a.reloader != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "flags.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading flags")
					_ = a.reloader.Reload()
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}
