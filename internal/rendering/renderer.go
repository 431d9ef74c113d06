// Package rendering writes gomponents nodes to echo responses.
package rendering

import (
	"bytes"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Renderer renders status pages and htmx fragments.
type Renderer interface {
	// RenderComponent renders a node to bytes.
	RenderComponent(node g.Node) ([]byte, error)

	// RenderPage writes a node as the full HTTP response.
	RenderPage(c echo.Context, status int, node g.Node) error
}

// NodeRenderer is the gomponents implementation of Renderer. It also
// satisfies echo.Renderer so handlers can call c.Render.
type NodeRenderer struct{}

func NewNodeRenderer() *NodeRenderer {
	return &NodeRenderer{}
}

func (r *NodeRenderer) RenderComponent(node g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return nil, fmt.Errorf("render component: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPage buffers the node first so a render failure can still become a
// 500 instead of a truncated page.
func (r *NodeRenderer) RenderPage(c echo.Context, status int, node g.Node) error {
	body, err := r.RenderComponent(node)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}

// Render implements echo.Renderer. The node travels in data; name is unused.
func (r *NodeRenderer) Render(w io.Writer, _ string, data any, c echo.Context) error {
	node, ok := data.(g.Node)
	if !ok {
		return fmt.Errorf("unsupported component type %T", data)
	}
	if c.Response().Header().Get(echo.HeaderContentType) == "" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	}
	return node.Render(w)
}
