package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/protocol"
)

type stateSource struct {
	state match.State
	err   error
}

func (s stateSource) Snapshot(context.Context) (match.State, error) {
	return s.state, s.err
}

type recordingSink struct {
	mu    sync.Mutex
	conns int
	sent  [][]byte
}

func (s *recordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *recordingSink) Broadcast(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, p)
}

func (s *recordingSink) setConns(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns = n
}

func (s *recordingSink) payloads() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.sent...)
}

// simClock advances host time in small steps and emits a tick whenever a
// full period has elapsed, the way a ticker would.
type simClock struct {
	now    time.Time
	next   time.Time
	period time.Duration
	ticks  chan time.Time
}

func newSimClock(period time.Duration) *simClock {
	start := time.Unix(0, 0)
	return &simClock{now: start, next: start.Add(period), period: period, ticks: make(chan time.Time)}
}

func (c *simClock) advance(total, step time.Duration) {
	end := c.now.Add(total)
	for c.now.Before(end) {
		c.now = c.now.Add(step)
		for !c.now.Before(c.next) {
			c.ticks <- c.next
			c.next = c.next.Add(c.period)
		}
	}
}

// runFor runs b over one phase of simulated time. Run has returned, so every
// tick of the phase has been handled, when runFor does.
func runFor(t *testing.T, b *Broadcaster, clock *simClock, total time.Duration) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, clock.ticks) }()
	clock.advance(total, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestBroadcastCadence(t *testing.T) {
	state := match.New(1)
	sink := &recordingSink{}
	b := NewBroadcaster(stateSource{state: state}, sink, nil)
	clock := newSimClock(Period(protocol.BroadcastHz))

	runFor(t, b, clock, time.Second)
	assert.Empty(t, sink.payloads(), "no connections, no snapshots")

	sink.setConns(2)
	runFor(t, b, clock, time.Second)

	sent := sink.payloads()
	assert.Len(t, sent, 20)
	assert.Equal(t, uint64(20), b.Seq())

	msg, err := protocol.Decode(sent[len(sent)-1])
	require.NoError(t, err)
	snap, ok := msg.(protocol.SyncState)
	require.True(t, ok)
	assert.Equal(t, uint64(20), snap.Seq)
	assert.Equal(t, state.Avatar, snap.State.Avatar)
}

func TestBroadcastStopsWhenLastConnectionCloses(t *testing.T) {
	sink := &recordingSink{conns: 1}
	b := NewBroadcaster(stateSource{state: match.New(1)}, sink, nil)
	clock := newSimClock(50 * time.Millisecond)

	runFor(t, b, clock, 250*time.Millisecond)
	sink.setConns(0)
	runFor(t, b, clock, 250*time.Millisecond)

	assert.Len(t, sink.payloads(), 5)
}

func TestStep(t *testing.T) {
	t.Run("skips without connections", func(t *testing.T) {
		sink := &recordingSink{}
		sent, err := NewBroadcaster(stateSource{}, sink, nil).Step(context.Background())
		require.NoError(t, err)
		assert.False(t, sent)
	})

	t.Run("reports source errors", func(t *testing.T) {
		sink := &recordingSink{conns: 1}
		b := NewBroadcaster(stateSource{err: errors.New("stopped")}, sink, nil)
		sent, err := b.Step(context.Background())
		assert.Error(t, err)
		assert.False(t, sent)
		assert.Empty(t, sink.payloads())
		assert.Zero(t, b.Seq())
	})
}

func TestRunEndsWithHost(t *testing.T) {
	t.Run("stops once the host is gone", func(t *testing.T) {
		sink := &recordingSink{conns: 1}
		b := NewBroadcaster(stateSource{err: domain.ErrHostStopped}, sink, nil)
		ticks := make(chan time.Time, 3)
		for i := 0; i < 3; i++ {
			ticks <- time.Unix(int64(i), 0)
		}

		err := b.Run(context.Background(), ticks)
		assert.ErrorIs(t, err, domain.ErrHostStopped)
		assert.Len(t, ticks, 2, "returns on the first failed tick")
	})

	t.Run("keeps going on other errors", func(t *testing.T) {
		sink := &recordingSink{conns: 1}
		b := NewBroadcaster(stateSource{err: errors.New("busy")}, sink, nil)
		ticks := make(chan time.Time, 3)
		for i := 0; i < 3; i++ {
			ticks <- time.Unix(int64(i), 0)
		}
		close(ticks)

		assert.NoError(t, b.Run(context.Background(), ticks))
		assert.Empty(t, ticks)
	})
}

func TestPeriod(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, Period(20))
	assert.Equal(t, 50*time.Millisecond, Period(0))
	assert.Equal(t, 100*time.Millisecond, Period(10))
}

func TestMirrorDiscardsStaleSnapshots(t *testing.T) {
	var m Mirror
	_, _, ok := m.Latest()
	assert.False(t, ok)

	newer := match.New(1)
	newer.Score = 50
	older := match.New(1)
	older.Score = 10

	assert.True(t, m.Apply(protocol.SyncState{Seq: 5, State: newer}))
	assert.False(t, m.Apply(protocol.SyncState{Seq: 4, State: older}), "older snapshot arrived late")
	assert.False(t, m.Apply(protocol.SyncState{Seq: 5, State: older}), "duplicate")

	got, seq, ok := m.Latest()
	require.True(t, ok)
	assert.Equal(t, uint64(5), seq)
	assert.Equal(t, 50, got.Score)

	assert.True(t, m.Apply(protocol.SyncState{Seq: 6, State: older}))
	got, _, _ = m.Latest()
	assert.Equal(t, 10, got.Score)
}

func TestMirrorLatestIsACopy(t *testing.T) {
	var m Mirror
	s := match.New(1)
	s.Viewers = []match.Viewer{{ID: "v1", Balance: 100}}
	m.Apply(protocol.SyncState{Seq: 1, State: s})

	got, _, _ := m.Latest()
	got.Viewers[0].Balance = 0

	again, _, _ := m.Latest()
	assert.Equal(t, 100, again.Viewers[0].Balance)
}
