package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/commentary"
	"github.com/nfrund/chaosarena/internal/config"
	"github.com/nfrund/chaosarena/internal/host"
	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/server"
	"github.com/nfrund/chaosarena/internal/snapshot"
	"github.com/nfrund/chaosarena/internal/transport"
)

// Commentary modes.
const (
	CommentaryScript = "script"
	CommentaryHTTP   = "http"
	CommentaryOff    = "off"
)

// Tracing holds the bus tracer and the hook that flushes it.
type Tracing struct {
	Tracer trace.Tracer
	flush  func(context.Context) error
}

// Shutdown flushes pending spans.
func (t *Tracing) Shutdown(ctx context.Context) error {
	return t.flush(ctx)
}

func provideFs(do.Injector) (afero.Fs, error) {
	return afero.NewOsFs(), nil
}

func provideCatalog(i do.Injector) (*catalog.Catalog, error) {
	cfg := do.MustInvoke[config.Config](i)
	if cfg.CatalogPath == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(do.MustInvoke[afero.Fs](i), cfg.CatalogPath)
}

func provideTracing(i do.Injector) (*Tracing, error) {
	cfg := do.MustInvoke[config.Config](i)
	tc := pubsub.DefaultTracingConfig()
	tc.Enabled = cfg.TracingEnabled
	tc.ZipkinURL = cfg.ZipkinURL
	tracer, flush, err := pubsub.SetupOTel(context.Background(), tc)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	return &Tracing{Tracer: tracer, flush: flush}, nil
}

func provideBus(i do.Injector) (*pubsub.WatermillBridge, error) {
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	var opts []pubsub.Option
	if cfg.TracingEnabled {
		opts = append(opts, pubsub.WithTracer(do.MustInvoke[*Tracing](i).Tracer))
	}
	return pubsub.NewWatermillBridge(logger, opts...), nil
}

func provideHost(i do.Injector) (*host.Host, error) {
	cfg := do.MustInvoke[config.Config](i)
	return host.New(host.Options{
		Env: ingest.Env{
			Catalog:         do.MustInvoke[*catalog.Catalog](i),
			Rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
			StartingBalance: cfg.StartingBalance,
			Difficulty:      cfg.Difficulty,
		},
		TickHz:    cfg.TickHz,
		Autopilot: cfg.Autopilot,
		Logger:    do.MustInvoke[*slog.Logger](i),
	}), nil
}

func provideRegistry(i do.Injector) (*transport.Registry, error) {
	return transport.NewRegistry(do.MustInvoke[*pubsub.WatermillBridge](i), do.MustInvoke[*slog.Logger](i)), nil
}

func provideBroadcaster(i do.Injector) (*snapshot.Broadcaster, error) {
	return snapshot.NewBroadcaster(
		do.MustInvoke[*host.Host](i),
		do.MustInvoke[*transport.Registry](i),
		do.MustInvoke[*slog.Logger](i),
	), nil
}

func provideGenerator(i do.Injector) (commentary.Generator, error) {
	cfg := do.MustInvoke[config.Config](i)
	logger := do.MustInvoke[*slog.Logger](i)
	switch cfg.CommentaryMode {
	case CommentaryScript:
		return commentary.NewScriptGenerator(do.MustInvoke[afero.Fs](i), cfg.CommentaryScriptPath, commentary.WithLogger(logger))
	case CommentaryHTTP:
		if cfg.CommentaryURL == "" {
			logger.Warn("COMMENTARY_URL is empty, commentary calls will fail quietly")
		}
		return commentary.NewHTTPGenerator(cfg.CommentaryURL, cfg.CommentaryAPIKey, cfg.CommentaryTimeout), nil
	case CommentaryOff:
		return commentary.NopGenerator{}, nil
	}
	return nil, fmt.Errorf("unknown commentary mode %q", cfg.CommentaryMode)
}

func provideCommentary(i do.Injector) (*commentary.Service, error) {
	cfg := do.MustInvoke[config.Config](i)
	gen, err := do.Invoke[commentary.Generator](i)
	if err != nil {
		return nil, err
	}
	return commentary.NewService(gen, do.MustInvoke[*host.Host](i), commentary.Options{
		Cooldown: cfg.CommentaryCooldown,
		Timeout:  cfg.CommentaryTimeout,
		Logger:   do.MustInvoke[*slog.Logger](i),
	}), nil
}

func (a *App) provideServer(i do.Injector) (*server.Server, error) {
	reg := do.MustInvoke[*transport.Registry](i)
	return server.New(server.Dependencies{
		Config:  do.MustInvoke[config.Config](i),
		Logger:  do.MustInvoke[*slog.Logger](i),
		Host:    do.MustInvoke[*host.Host](i),
		Catalog: do.MustInvoke[*catalog.Catalog](i),
		Sockets: reg.Handler(),
		Health:  a.Health,
	}), nil
}
