package rendering

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func TestRenderComponent(t *testing.T) {
	out, err := NewNodeRenderer().RenderComponent(Span(Class("hp"), g.Text("80%")))
	require.NoError(t, err)
	assert.Equal(t, `<span class="hp">80%</span>`, string(out))
}

func TestRenderPage(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, NewNodeRenderer().RenderPage(c, http.StatusAccepted, P(g.Text("ok"))))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
	assert.Equal(t, "<p>ok</p>", rec.Body.String())
}

func TestEchoRender(t *testing.T) {
	e := echo.New()
	e.Renderer = NewNodeRenderer()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, c.Render(http.StatusOK, "", Div(g.Text("x"))))
	assert.Equal(t, "<div>x</div>", rec.Body.String())

	assert.Error(t, c.Render(http.StatusOK, "", "not a node"))
}
