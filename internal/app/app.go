// Package app builds the process object graph and owns its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"vm-transcriber/internal/api/server"
	"vm-transcriber/internal/app/bot"
	"vm-transcriber/internal/app/logging"
	"vm-transcriber/internal/app/metrics"
	"vm-transcriber/internal/app/pipeline"
	"vm-transcriber/internal/app/repository"
	"vm-transcriber/internal/app/worker"
	"vm-transcriber/internal/config"
)

const adminShutdownTimeout = 5 * time.Second

type gateway interface {
	Open() error
	Close() error
	Wait(ctx context.Context) error
	Abandon()
	OnExit(fn func())
}

type adminServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// App is the running bot process.
type App struct {
	Settings *config.Settings
	Metrics  *metrics.Metrics
	Store    repository.ResultStore
	Pipeline *pipeline.Pipeline

	logger  logging.Logger
	pool    *worker.Pool
	gateway gateway
	admin   adminServer
	sink    *logging.Sink

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApp assembles the process. admin may be nil.
func NewApp(
	settings *config.Settings,
	logger logging.Logger,
	m *metrics.Metrics,
	store repository.ResultStore,
	pool *worker.Pool,
	p *pipeline.Pipeline,
	b *bot.Bot,
	admin *server.Server,
	sink *logging.Sink,
) *App {
	a := &App{
		Settings: settings,
		Metrics:  m,
		Store:    store,
		Pipeline: p,
		logger:   logger,
		pool:     pool,
		gateway:  b,
		sink:     sink,
	}
	if admin != nil {
		a.admin = admin
	}
	return a
}

// Run connects to the gateway and serves until ctx is cancelled or the
// owner issues the exit command, then shuts down in order.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := context.WithCancel(ctx)
	defer stop()
	a.gateway.OnExit(stop)

	g, gctx := errgroup.WithContext(ctx)
	if a.admin != nil {
		g.Go(func() error {
			if err := a.admin.Start(); err != nil {
				return fmt.Errorf("start admin server: %w", err)
			}
			<-gctx.Done()
			return nil
		})
	}
	g.Go(func() error {
		if err := a.gateway.Open(); err != nil {
			return err
		}
		<-gctx.Done()
		return nil
	})

	runErr := g.Wait()
	if runErr != nil {
		a.logger.Error("Startup failed", zap.Error(runErr))
	}
	return errors.Join(runErr, a.Shutdown(context.Background()))
}

// Shutdown stops the gateway, then the admin server, gives in-flight
// transcriptions up to the shutdown grace, closes the store and finally the
// logging sink. Only the first call does any work.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		a.shutdownErr = a.shutdown(ctx)
	})
	return a.shutdownErr
}

func (a *App) shutdown(ctx context.Context) error {
	var errs []error
	a.logger.Info("Shutting down")

	if err := a.gateway.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close gateway: %w", err))
	}

	if a.admin != nil {
		actx, cancel := context.WithTimeout(ctx, adminShutdownTimeout)
		if err := a.admin.Shutdown(actx); err != nil {
			errs = append(errs, fmt.Errorf("stop admin server: %w", err))
		}
		cancel()
	}

	grace, cancel := context.WithTimeout(ctx, a.Settings.Bot.ShutdownGrace)
	err := a.gateway.Wait(grace)
	if err == nil {
		err = a.pool.Drain(grace)
	}
	cancel()
	if err != nil {
		a.logger.Warn("Shutdown grace elapsed, abandoning in-flight transcriptions",
			zap.Duration("grace", a.Settings.Bot.ShutdownGrace),
			zap.Int("active_workers", a.pool.Active()))
	}
	a.gateway.Abandon()
	a.pool.Close()

	if err := a.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close result store: %w", err))
	}

	a.logger.Info("Shutdown complete")
	if err := a.sink.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log sink: %w", err))
	}
	return errors.Join(errs...)
}
