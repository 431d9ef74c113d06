// Package arena connects the host actor to the bus: viewer frames become
// host commands, and committed events go back out as topics.
package arena

import (
	"context"
	"log/slog"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/module"
	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/topics"
)

const resultBuffer = 256

// Host is the part of host.Host the module drives.
type Host interface {
	Submit(cmd ingest.Command) error
	OnCommit(l func(ingest.Result))
}

// ArenaModule wires the host to the bus.
type ArenaModule struct {
	module.BaseModule
	host       Host
	publisher  pubsub.Publisher
	subscriber pubsub.Subscriber
	logger     *slog.Logger

	results chan ingest.Result
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Dependencies holds the services the module needs.
type Dependencies struct {
	Host       Host
	Publisher  pubsub.Publisher
	Subscriber pubsub.Subscriber
	Logger     *slog.Logger
}

func New(deps Dependencies) *ArenaModule {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &ArenaModule{
		host:       deps.Host,
		publisher:  deps.Publisher,
		subscriber: deps.Subscriber,
		logger:     deps.Logger.With("module", "arena"),
		results:    make(chan ingest.Result, resultBuffer),
	}
}

func (m *ArenaModule) Name() string {
	return "arena"
}

// Boot subscribes to viewer frames and starts forwarding host results.
func (m *ArenaModule) Boot(ctx context.Context, _ *echo.Group, _ do.Injector) error {
	ctx, m.cancel = context.WithCancel(ctx)

	if err := pubsub.Subscribe(ctx, m.subscriber, topics.ViewerMessage, m.handleViewerMessage); err != nil {
		m.cancel()
		return err
	}
	m.host.OnCommit(m.enqueue)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.forward(ctx)
	}()

	m.logger.Info("Arena module booted")
	return nil
}

func (m *ArenaModule) Shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
