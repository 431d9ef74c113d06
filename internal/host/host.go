// Package host runs the single writer of the match. Every producer (the
// simulation ticker, viewer connections, the control API, commentary) submits
// commands to one inbox; Run applies them one at a time through ingest.Reduce.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/match"
)

// DefaultTickHz approximates a display-driven loop.
const DefaultTickHz = 60

// ErrQueueFull is returned by Submit when the inbox cannot take more work.
var ErrQueueFull = errors.New("host inbox is full")

// Listener observes committed transitions that logged events or ended the
// match. It runs on the host goroutine and must not block.
type Listener = func(ingest.Result)

// Options configures a Host.
type Options struct {
	Env       ingest.Env
	TickHz    int
	Autopilot bool
	InboxSize int
	Logger    *slog.Logger
	Clock     func() time.Time
}

type snapshotQuery struct {
	reply chan match.State
}

// Host owns the authoritative match state.
type Host struct {
	inbox     chan any
	done      chan struct{}
	started   atomic.Bool
	state     match.State
	env       ingest.Env
	tickHz    int
	pilot     *Autopilot
	clock     func() time.Time
	logger    *slog.Logger
	rejected  atomic.Uint64
	mu        sync.Mutex
	listeners []Listener
}

// New creates a host holding a fresh IDLE match.
func New(opts Options) *Host {
	if opts.TickHz <= 0 {
		opts.TickHz = DefaultTickHz
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 1024
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Env.Rand == nil {
		opts.Env.Rand = rand.New(rand.NewSource(opts.Clock().UnixNano()))
	}
	if opts.Env.Now == nil {
		opts.Env.Now = opts.Clock
	}

	h := &Host{
		inbox:  make(chan any, opts.InboxSize),
		done:   make(chan struct{}),
		state:  match.New(opts.Env.Difficulty),
		env:    opts.Env,
		tickHz: opts.TickHz,
		clock:  opts.Clock,
		logger: opts.Logger.With("service", "host"),
	}
	if opts.Autopilot {
		h.pilot = NewAutopilot(opts.TickHz / 6)
	}
	return h
}

// OnCommit registers a listener. Listeners added after Run starts are seen
// from the next transition on.
func (h *Host) OnCommit(l Listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

// Submit enqueues a command without waiting for it to be applied.
func (h *Host) Submit(cmd ingest.Command) error {
	select {
	case <-h.done:
		return domain.ErrHostStopped
	default:
	}
	select {
	case h.inbox <- cmd:
		return nil
	case <-h.done:
		return domain.ErrHostStopped
	default:
		return ErrQueueFull
	}
}

// Snapshot returns a deep copy of the state as of every command submitted
// before the call.
func (h *Host) Snapshot(ctx context.Context) (match.State, error) {
	q := snapshotQuery{reply: make(chan match.State, 1)}
	select {
	case h.inbox <- q:
	case <-h.done:
		return match.State{}, domain.ErrHostStopped
	case <-ctx.Done():
		return match.State{}, ctx.Err()
	}
	select {
	case s := <-q.reply:
		return s, nil
	case <-h.done:
		return match.State{}, domain.ErrHostStopped
	case <-ctx.Done():
		return match.State{}, ctx.Err()
	}
}

// Rejected counts intents dropped by the reducer since start.
func (h *Host) Rejected() uint64 {
	return h.rejected.Load()
}

// Done is closed once Run has returned.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// HealthCheck fails unless the loop is running.
func (h *Host) HealthCheck() error {
	if !h.started.Load() {
		return errors.New("host loop not started")
	}
	select {
	case <-h.done:
		return domain.ErrHostStopped
	default:
		return nil
	}
}

// Shutdown waits for a started loop to return. Cancelling the context passed
// to Run is what stops it.
func (h *Host) Shutdown(ctx context.Context) error {
	if !h.started.Load() {
		return nil
	}
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the simulation from a wall-clock ticker until ctx is cancelled.
func (h *Host) Run(ctx context.Context) error {
	ticker := time.NewTicker(time.Second / time.Duration(h.tickHz))
	defer ticker.Stop()
	return h.RunWithTicks(ctx, ticker.C)
}

// RunWithTicks is Run with an explicit tick source. The delta of each tick is
// the time since the previous one.
func (h *Host) RunWithTicks(ctx context.Context, ticks <-chan time.Time) error {
	if !h.started.CompareAndSwap(false, true) {
		return errors.New("host already running")
	}
	defer close(h.done)

	h.logger.Info("Host loop started", "tick_hz", h.tickHz, "autopilot", h.pilot != nil)
	last := h.clock()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Host loop stopped", "rejected", h.rejected.Load())
			return nil
		case msg := <-h.inbox:
			h.handle(msg)
		case now := <-ticks:
			dt := now.Sub(last).Seconds()
			last = now
			h.step(dt)
		}
	}
}

func (h *Host) handle(msg any) {
	switch m := msg.(type) {
	case snapshotQuery:
		m.reply <- h.state.Clone()
	case ingest.Command:
		h.apply(m)
	default:
		h.logger.Warn("Dropping unexpected inbox message", "type", fmt.Sprintf("%T", m))
	}
}

func (h *Host) step(dt float64) {
	if !h.state.Playing() {
		return
	}
	if h.pilot != nil {
		for _, cmd := range h.pilot.Plan(h.state) {
			h.apply(cmd)
		}
	}
	h.apply(ingest.Tick{DT: dt})
	h.apply(ingest.SpawnAmbient{})
}

func (h *Host) apply(cmd ingest.Command) {
	res := ingest.Reduce(h.state, cmd, h.env)
	if res.Rejection != nil {
		h.rejected.Add(1)
		h.logger.Debug("Intent rejected", "command", commandName(cmd), "reason", res.Rejection)
		return
	}
	h.state = res.State

	if res.MatchOver {
		h.logger.Info("Match over", "score", res.State.Score, "payouts", len(res.Payouts))
	}
	if len(res.Logged) == 0 && !res.MatchOver {
		return
	}
	h.mu.Lock()
	listeners := h.listeners
	h.mu.Unlock()
	for _, l := range listeners {
		l(res)
	}
}

func commandName(cmd ingest.Command) string {
	switch cmd.(type) {
	case ingest.Join:
		return "join"
	case ingest.Purchase:
		return "purchase"
	case ingest.PlaceBet:
		return "bet"
	case ingest.Start:
		return "start"
	case ingest.Reset:
		return "reset"
	case ingest.AppendLog:
		return "append_log"
	default:
		return "sim"
	}
}
