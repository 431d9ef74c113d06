// Package snapshot keeps viewers' copies of the match in step with the host.
// The host side broadcasts the full state on a fixed period; the viewer side
// replaces its copy with every newer snapshot it receives.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/protocol"
)

// Source yields the authoritative state.
type Source interface {
	Snapshot(ctx context.Context) (match.State, error)
}

// Sink fans an encoded snapshot out to connections.
type Sink interface {
	Count() int
	Broadcast(payload []byte)
}

// Period converts a broadcast rate into a tick interval.
func Period(hz int) time.Duration {
	if hz <= 0 {
		hz = protocol.BroadcastHz
	}
	return time.Second / time.Duration(hz)
}

// Broadcaster sends SYNC_STATE to every open connection once per tick.
type Broadcaster struct {
	source Source
	sink   Sink
	logger *slog.Logger

	mu  sync.Mutex
	seq uint64
}

func NewBroadcaster(source Source, sink Sink, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{source: source, sink: sink, logger: logger.With("service", "snapshot")}
}

// RunEvery broadcasts on a wall-clock ticker until ctx is cancelled.
func (b *Broadcaster) RunEvery(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	return b.Run(ctx, ticker.C)
}

// Run broadcasts once per value received on ticks. It returns an error
// wrapping domain.ErrHostStopped once the host is gone; other failures are
// logged and the next tick tries again.
func (b *Broadcaster) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			_, err := b.Step(ctx)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, domain.ErrHostStopped):
				return fmt.Errorf("snapshot broadcaster: %w", err)
			default:
				b.logger.Warn("Snapshot broadcast failed", "error", err)
			}
		}
	}
}

// Step sends one snapshot if anyone is listening and reports whether it did.
func (b *Broadcaster) Step(ctx context.Context) (bool, error) {
	if b.sink.Count() == 0 {
		return false, nil
	}
	state, err := b.source.Snapshot(ctx)
	if err != nil {
		return false, fmt.Errorf("read state: %w", err)
	}

	b.mu.Lock()
	b.seq++
	seq := b.seq
	b.mu.Unlock()

	payload, err := protocol.Encode(protocol.SyncState{Seq: seq, State: state})
	if err != nil {
		return false, fmt.Errorf("encode snapshot %d: %w", seq, err)
	}
	b.sink.Broadcast(payload)
	return true, nil
}

// Seq returns the sequence number of the last broadcast.
func (b *Broadcaster) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// Mirror is a viewer's read-only copy of the match. Snapshots that are not
// newer than the last applied one are discarded.
type Mirror struct {
	mu    sync.RWMutex
	seq   uint64
	state match.State
	ok    bool
}

// Apply replaces the copy if msg is newer and reports whether it did.
func (m *Mirror) Apply(msg protocol.SyncState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ok && msg.Seq <= m.seq {
		return false
	}
	m.seq = msg.Seq
	m.state = msg.State
	m.ok = true
	return true
}

// Latest returns the last applied state. ok is false until the first
// snapshot arrives.
func (m *Mirror) Latest() (state match.State, seq uint64, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Clone(), m.seq, m.ok
}
