// Package app assembles the host process: it provides every service to a
// samber/do container, boots the modules and runs until its context ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"

	"github.com/nfrund/chaosarena/internal/commentary"
	"github.com/nfrund/chaosarena/internal/config"
	"github.com/nfrund/chaosarena/internal/host"
	"github.com/nfrund/chaosarena/internal/module"
	"github.com/nfrund/chaosarena/internal/modules/arena"
	"github.com/nfrund/chaosarena/internal/modules/caster"
	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/server"
	"github.com/nfrund/chaosarena/internal/snapshot"
	"github.com/nfrund/chaosarena/internal/transport"
)

// ShutdownTimeout bounds the graceful stop.
const ShutdownTimeout = 10 * time.Second

// App is the host process.
type App struct {
	cfg      config.Config
	logger   *slog.Logger
	injector *do.RootScope
	modules  []module.Module
}

// New registers every provider. Nothing is constructed until Run.
func New(cfg config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, injector: do.New()}

	do.ProvideValue(a.injector, cfg)
	do.ProvideValue(a.injector, logger)
	do.Provide(a.injector, provideFs)
	do.Provide(a.injector, provideCatalog)
	do.Provide(a.injector, provideTracing)
	do.Provide(a.injector, provideBus)
	do.Provide(a.injector, provideHost)
	do.Provide(a.injector, provideRegistry)
	do.Provide(a.injector, provideBroadcaster)
	do.Provide(a.injector, provideGenerator)
	do.Provide(a.injector, provideCommentary)
	do.Provide(a.injector, a.provideServer)
	return a
}

// Injector exposes the container, mainly to tests.
func (a *App) Injector() do.Injector {
	return a.injector
}

// Health checks every constructed service that reports health.
func (a *App) Health(ctx context.Context) map[string]error {
	return a.injector.HealthCheckWithContext(ctx)
}

// newModules lists the active modules.
func (a *App) newModules() ([]module.Module, error) {
	h := do.MustInvoke[*host.Host](a.injector)
	bus := do.MustInvoke[*pubsub.WatermillBridge](a.injector)

	mods := []module.Module{
		arena.New(arena.Dependencies{Host: h, Publisher: bus, Subscriber: bus, Logger: a.logger}),
	}
	if a.cfg.CommentaryMode == CommentaryOff {
		a.logger.Info("Commentary disabled")
		return mods, nil
	}

	svc, err := do.Invoke[*commentary.Service](a.injector)
	if err != nil {
		return nil, err
	}
	deps := caster.Dependencies{Service: svc, Subscriber: bus, Logger: a.logger}
	if gen, ok := do.MustInvoke[commentary.Generator](a.injector).(*commentary.ScriptGenerator); ok {
		deps.Watcher = gen
	}
	return append(mods, caster.New(deps)), nil
}

// Run starts the host loop, the socket registry, the broadcaster, the
// modules and the HTTP server, and blocks until ctx is cancelled or one of
// them fails. It always shuts everything down before returning.
func (a *App) Run(ctx context.Context) error {
	h, err := do.Invoke[*host.Host](a.injector)
	if err != nil {
		return fmt.Errorf("build host: %w", err)
	}
	reg := do.MustInvoke[*transport.Registry](a.injector)
	broadcaster := do.MustInvoke[*snapshot.Broadcaster](a.injector)
	srv, err := do.Invoke[*server.Server](a.injector)
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	a.modules, err = a.newModules()
	if err != nil {
		a.shutdown()
		return fmt.Errorf("build modules: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return h.Run(gctx) })
	g.Go(func() error {
		reg.Run(gctx)
		return nil
	})
	g.Go(func() error { return broadcaster.RunEvery(gctx, snapshot.Period(a.cfg.BroadcastHz)) })

	if err := a.bootModules(gctx, srv); err != nil {
		cancel()
		_ = g.Wait()
		a.shutdown()
		return err
	}

	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(stopCtx)
	})

	a.logger.Info("Arena host running", "addr", a.cfg.Addr, "modules", len(a.modules))
	err = g.Wait()
	a.shutdown()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) bootModules(ctx context.Context, srv *server.Server) error {
	for _, m := range a.modules {
		if err := m.Register(a.injector); err != nil {
			return fmt.Errorf("register module %s: %w", m.Name(), err)
		}
	}
	for _, m := range a.modules {
		if err := m.Boot(ctx, srv.API.Group("/"+m.Name()), a.injector); err != nil {
			return fmt.Errorf("boot module %s: %w", m.Name(), err)
		}
		a.logger.Debug("Module booted", "module", m.Name())
	}
	return nil
}

// shutdown stops modules newest first, then lets the container stop every
// service in reverse dependency order.
func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	for i := len(a.modules) - 1; i >= 0; i-- {
		m := a.modules[i]
		if err := m.Shutdown(ctx); err != nil {
			a.logger.Error("Module shutdown failed", "module", m.Name(), "error", err)
		}
	}
	report := a.injector.ShutdownWithContext(ctx)
	a.logger.Info("Arena host stopped", "report", report)
}
