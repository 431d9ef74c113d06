package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coder/websocket"

	"github.com/nfrund/chaosarena/internal/domain"
)

// Client is a viewer's single connection to its host.
type Client struct {
	ws *websocket.Conn
}

// Dial opens a connection to a host's WebSocket endpoint.
func Dial(ctx context.Context, url string) (*Client, error) {
	ws, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPClient: http.DefaultClient})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	ws.SetReadLimit(MaxMessageSize)
	return &Client{ws: ws}, nil
}

// Send writes one frame.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	if err := c.ws.Write(ctx, websocket.MessageText, payload); err != nil {
		return hostLost(err)
	}
	return nil
}

// Receive blocks for the next frame. Loss of the host surfaces as
// domain.ErrHostClosed.
func (c *Client) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	if err != nil {
		return nil, hostLost(err)
	}
	return data, nil
}

// Close ends the session.
func (c *Client) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "viewer left")
}

func hostLost(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if status := websocket.CloseStatus(err); status != -1 {
		return fmt.Errorf("%w: status %d", domain.ErrHostClosed, status)
	}
	return fmt.Errorf("%w: %v", domain.ErrHostClosed, err)
}
