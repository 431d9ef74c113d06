// Package viewer is the remote side of the arena: it joins a host, mirrors
// the snapshots the host broadcasts and sends purchase and bet intents.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/protocol"
	"github.com/nfrund/chaosarena/internal/snapshot"
	"github.com/nfrund/chaosarena/internal/transport"
)

// Conn is the viewer's channel to its host.
type Conn interface {
	Send(ctx context.Context, payload []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}

// Session is one viewer's stay in a host's room. Losing the host ends it
// for good; a new session has to be started.
type Session struct {
	ID   string
	Name string

	conn    Conn
	catalog *catalog.Catalog
	mirror  snapshot.Mirror
	logger  *slog.Logger

	sendMu sync.Mutex
	done   chan struct{}
	once   sync.Once
	err    error
}

// Options configures a session.
type Options struct {
	// ID defaults to a fresh UUID.
	ID      string
	Catalog *catalog.Catalog
	Logger  *slog.Logger
}

// Dial connects to the host at url and joins as name.
func Dial(ctx context.Context, url, name string, opts Options) (*Session, error) {
	client, err := transport.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	s, err := Join(ctx, client, name, opts)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

// Join starts a session over an open connection by sending VIEWER_JOIN.
func Join(ctx context.Context, conn Conn, name string, opts Options) (*Session, error) {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Session{
		ID:      opts.ID,
		Name:    name,
		conn:    conn,
		catalog: opts.Catalog,
		logger:  opts.Logger.With("service", "viewer", "viewer_id", opts.ID),
		done:    make(chan struct{}),
	}
	if err := s.send(ctx, protocol.Join{ID: s.ID, Name: name}); err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	return s, nil
}

// Run applies incoming snapshots until the host goes away or ctx ends. The
// returned error wraps domain.ErrHostClosed when the host was lost.
func (s *Session) Run(ctx context.Context) error {
	defer s.finish(nil)
	for {
		data, err := s.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.finish(err)
			return err
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			s.logger.Debug("Ignoring undecodable message", "error", err)
			continue
		}
		snap, ok := msg.(protocol.SyncState)
		if !ok {
			s.logger.Debug("Ignoring unexpected message", "type", msg.MessageType())
			continue
		}
		if !s.mirror.Apply(snap) {
			s.logger.Debug("Discarded stale snapshot", "seq", snap.Seq)
		}
	}
}

func (s *Session) finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

// Done is closed when Run returns.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err reports why the session ended, once Done is closed.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

// State returns the last snapshot received.
func (s *Session) State() (match.State, bool) {
	state, _, ok := s.mirror.Latest()
	return state, ok
}

// Me returns this viewer's record as the host last reported it.
func (s *Session) Me() (match.Viewer, bool) {
	state, ok := s.State()
	if !ok {
		return match.Viewer{}, false
	}
	return state.FindViewer(s.ID)
}

// Items lists what can be bought.
func (s *Session) Items() []catalog.Item {
	return s.catalog.Items()
}

// Buy asks the host to purchase itemID. The local copy is checked first so
// obviously unaffordable requests are not sent; the host still decides.
func (s *Session) Buy(ctx context.Context, itemID string) error {
	item, err := s.catalog.Lookup(itemID)
	if err != nil {
		return err
	}
	if me, ok := s.Me(); ok && me.Balance < item.Cost {
		return fmt.Errorf("%s costs %d: %w", item.Name, item.Cost, domain.ErrInsufficientBalance)
	}
	return s.send(ctx, protocol.Purchase{ViewerID: s.ID, ItemID: item.ID, Cost: item.Cost})
}

// Bet wagers amount on side for the current match.
func (s *Session) Bet(ctx context.Context, side match.BetSide, amount int) error {
	if side != match.BetWin && side != match.BetLose || amount <= 0 {
		return domain.ErrInvalidBet
	}
	if me, ok := s.Me(); ok {
		if me.HasBet() {
			return domain.ErrBetAlreadyPlaced
		}
		if me.Balance < amount {
			return domain.ErrInsufficientBalance
		}
	}
	return s.send(ctx, protocol.Bet{ViewerID: s.ID, BetType: side, Amount: amount})
}

// Close leaves the room.
func (s *Session) Close() error {
	return s.conn.Close()
}

func (s *Session) send(ctx context.Context, msg protocol.Message) error {
	select {
	case <-s.done:
		if s.err != nil {
			return s.err
		}
		return domain.ErrHostClosed
	default:
	}
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	if err := s.conn.Send(ctx, data); err != nil {
		if errors.Is(err, domain.ErrHostClosed) {
			s.finish(err)
		}
		return err
	}
	return nil
}
