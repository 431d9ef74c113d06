// Package transport moves wire messages between the host and its viewers
// over WebSocket. The host side is a one-to-many Registry; the viewer side is
// a one-to-one Client.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/chaosarena/internal/pubsub"
	"github.com/nfrund/chaosarena/internal/topics"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	// MaxMessageSize bounds inbound and outbound frames. Snapshots are the
	// largest messages and stay well under it.
	MaxMessageSize = 1 << 20
)

// Conn is one viewer connection held by the registry.
type Conn struct {
	ID   string
	ws   *websocket.Conn
	send chan []byte
}

type inbound struct {
	connID  string
	payload []byte
}

// Registry tracks open viewer connections, fans broadcasts out to them and
// forwards whatever they send onto the bus.
type Registry struct {
	publisher pubsub.Publisher
	logger    *slog.Logger

	conns      map[*Conn]struct{}
	register   chan *Conn
	unregister chan *Conn
	broadcast  chan []byte
	incoming   chan inbound
	done       chan struct{}
	count      atomic.Int64
	runOnce    sync.Once
	wg         sync.WaitGroup
}

// NewRegistry creates a registry publishing inbound frames to publisher.
func NewRegistry(publisher pubsub.Publisher, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		publisher:  publisher,
		logger:     logger.With("service", "transport"),
		conns:      make(map[*Conn]struct{}),
		register:   make(chan *Conn),
		unregister: make(chan *Conn),
		broadcast:  make(chan []byte),
		incoming:   make(chan inbound, 256),
		done:       make(chan struct{}),
	}
}

// Run owns the connection set until ctx is cancelled. Every open connection
// is closed on the way out.
func (r *Registry) Run(ctx context.Context) {
	r.runOnce.Do(func() { r.run(ctx) })
}

func (r *Registry) run(ctx context.Context) {
	r.logger.Info("Connection registry started")
	defer func() {
		close(r.done)
		for c := range r.conns {
			close(c.send)
			delete(r.conns, c)
		}
		r.count.Store(0)
		r.logger.Info("Connection registry stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-r.register:
			r.conns[c] = struct{}{}
			n := r.count.Add(1)
			r.logger.Info("Viewer connection registered", "conn_id", c.ID, "open", n)
			r.publishConnection(ctx, topics.ViewerConnected, c.ID, int(n))

		case c := <-r.unregister:
			if _, ok := r.conns[c]; !ok {
				continue
			}
			delete(r.conns, c)
			close(c.send)
			n := r.count.Add(-1)
			r.logger.Info("Viewer connection unregistered", "conn_id", c.ID, "open", n)
			r.publishConnection(ctx, topics.ViewerDisconnected, c.ID, int(n))

		case payload := <-r.broadcast:
			for c := range r.conns {
				select {
				case c.send <- payload:
				default:
					r.logger.Warn("Viewer send buffer full, dropping snapshot", "conn_id", c.ID)
				}
			}

		case msg := <-r.incoming:
			err := pubsub.Publish(ctx, r.publisher, topics.ViewerMessage, msg.connID, json.RawMessage(msg.payload))
			if err != nil {
				r.logger.Warn("Dropping inbound viewer message", "conn_id", msg.connID, "error", err)
			}
		}
	}
}

func (r *Registry) publishConnection(ctx context.Context, event pubsub.Event[topics.Connection], connID string, open int) {
	if err := pubsub.Publish(ctx, r.publisher, event, connID, topics.Connection{ConnID: connID, Open: open}); err != nil {
		r.logger.Error("Failed to publish connection event", "conn_id", connID, "error", err)
	}
}

// Register adds a connection to the broadcast set.
func (r *Registry) Register(c *Conn) error {
	select {
	case r.register <- c:
		return nil
	case <-r.done:
		return errors.New("registry stopped")
	}
}

// Unregister removes a connection. Unknown connections are ignored.
func (r *Registry) Unregister(c *Conn) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

// Broadcast queues payload for every open connection. Slow connections miss
// it rather than hold up the others.
func (r *Registry) Broadcast(payload []byte) {
	select {
	case r.broadcast <- payload:
	case <-r.done:
	}
}

// Count returns the number of open connections.
func (r *Registry) Count() int {
	return int(r.count.Load())
}

// Wait blocks until every connection handler has returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Shutdown waits for connection handlers to finish or ctx to expire.
func (r *Registry) Shutdown(ctx context.Context) error {
	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Handler upgrades GET requests to WebSocket viewer connections.
func (r *Registry) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		ws, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			r.logger.Error("Failed to upgrade connection to WebSocket", "error", err)
			return err
		}
		ws.SetReadLimit(MaxMessageSize)

		conn := &Conn{
			ID:   uuid.NewString(),
			ws:   ws,
			send: make(chan []byte, sendBuffer),
		}
		if err := r.Register(conn); err != nil {
			ws.Close(websocket.StatusGoingAway, "host shutting down")
			return nil
		}

		r.wg.Add(1)
		defer r.wg.Done()

		ctx, cancel := context.WithCancel(c.Request().Context())
		defer cancel()
		go r.writePump(ctx, conn)
		r.readPump(ctx, conn)
		return nil
	}
}

// readPump forwards frames to the registry until the connection closes.
func (r *Registry) readPump(ctx context.Context, c *Conn) {
	defer func() {
		r.Unregister(c)
		c.ws.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.ws.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			switch {
			case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
				r.logger.Debug("Viewer closed connection", "conn_id", c.ID)
			case errors.Is(err, io.EOF) || errors.Is(err, context.Canceled):
			default:
				r.logger.Warn("WebSocket read error", "conn_id", c.ID, "error", err)
			}
			return
		}

		select {
		case r.incoming <- inbound{connID: c.ID, payload: data}:
		case <-r.done:
			return
		}
	}
}

// writePump drains the send buffer. A closed buffer means the registry let
// go of the connection.
func (r *Registry) writePump(ctx context.Context, c *Conn) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-c.send:
			if !ok {
				c.ws.Close(websocket.StatusGoingAway, "host closed connection")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.ws.Write(wctx, websocket.MessageText, payload)
			cancel()
			if err != nil {
				r.logger.Debug("WebSocket write error", "conn_id", c.ID, "error", err)
				c.ws.Close(websocket.StatusInternalError, "write failed")
				return
			}
		}
	}
}
