// Package caster feeds committed match events to the commentary service.
package caster

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"

	"github.com/nfrund/chaosarena/internal/module"
	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/topics"
)

// Trigger is the part of commentary.Service the module drives.
type Trigger interface {
	Trigger(ev topics.EventLogged) bool
	Shutdown(ctx context.Context) error
}

// Watcher reloads a script source until ctx ends.
type Watcher interface {
	Watch(ctx context.Context) error
}

// CasterModule subscribes the commentary service to the event log.
type CasterModule struct {
	module.BaseModule
	service    Trigger
	watcher    Watcher
	subscriber pubsub.Subscriber
	logger     *slog.Logger
	cancel     context.CancelFunc
}

// Dependencies holds the services required by the CasterModule. Watcher is
// optional.
type Dependencies struct {
	Service    Trigger
	Watcher    Watcher
	Subscriber pubsub.Subscriber
	Logger     *slog.Logger
}

func New(deps Dependencies) *CasterModule {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &CasterModule{
		service:    deps.Service,
		watcher:    deps.Watcher,
		subscriber: deps.Subscriber,
		logger:     deps.Logger.With("module", "caster"),
	}
}

func (m *CasterModule) Name() string {
	return "caster"
}

// Boot subscribes to logged events and match results.
func (m *CasterModule) Boot(ctx context.Context, _ *echo.Group, _ do.Injector) error {
	ctx, m.cancel = context.WithCancel(ctx)

	err := pubsub.Subscribe(ctx, m.subscriber, topics.Logged, func(_ context.Context, ev topics.EventLogged, _ pubsub.Message) error {
		if m.service.Trigger(ev) {
			m.logger.Debug("Commentary requested", "event_id", ev.ID, "category", ev.Category)
		}
		return nil
	})
	if err != nil {
		m.cancel()
		return err
	}

	err = pubsub.Subscribe(ctx, m.subscriber, topics.Over, func(_ context.Context, over topics.MatchOver, _ pubsub.Message) error {
		paid := 0
		for _, p := range over.Payouts {
			paid += p.Amount
		}
		m.logger.Info("Match settled", "score", over.Score, "time_elapsed", over.TimeElapsed, "winners", len(over.Payouts), "paid", paid)
		return nil
	})
	if err != nil {
		m.cancel()
		return err
	}

	if m.watcher != nil {
		if err := m.watcher.Watch(ctx); err != nil {
			// The script still works, it just won't pick up edits.
			m.logger.Warn("Caster script hot reload disabled", "error", err)
		}
	}

	m.logger.Info("Caster module booted")
	return nil
}

func (m *CasterModule) Shutdown(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}
	return m.service.Shutdown(ctx)
}
