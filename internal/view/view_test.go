package view_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/view"
)

const testSessionSecret = "a-very-secret-key-for-testing-!"

func sessionContext() echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	var c echo.Context
	mw := session.Middleware(sessions.NewCookieStore([]byte(testSessionSecret)))
	_ = mw(func(ctx echo.Context) error { c = ctx; return nil })(e.NewContext(req, rec))
	return c
}

func TestFlashes(t *testing.T) {
	c := sessionContext()

	require.NoError(t, view.SetFlashSuccess(c, "Match started"))
	require.NoError(t, view.SetFlashError(c, "Host is stopped"))

	got := view.PopFlashes(c)
	assert.Equal(t, []string{"Match started"}, got.Success)
	assert.Equal(t, []string{"Host is stopped"}, got.Error)

	assert.True(t, view.PopFlashes(c).Empty(), "flashes are cleared once read")
}

func TestFlashesWithoutSessionMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	assert.Error(t, view.SetFlashSuccess(c, "lost"))
	assert.True(t, view.PopFlashes(c).Empty())
}

func TestPanel(t *testing.T) {
	s := match.New(1)
	s.Status = match.StatusPlaying
	s.Score = 75
	s.TimeElapsed = 65
	s.Viewers = []match.Viewer{
		{ID: "v1", Name: "Ana", Balance: 900, BetOn: match.BetWin, BetAmount: 100},
		{ID: "v2", Name: "<b>Bo</b>", Balance: 1000},
	}
	s.Events = []match.GameEvent{
		{ID: "e2", Text: "Ana summoned a Tank!", Type: match.CategoryDanger},
		{ID: "e1", Text: "Match started!", Type: match.CategoryInfo},
	}

	var b strings.Builder
	require.NoError(t, view.Panel(s).Render(&b))
	html := b.String()

	assert.Contains(t, html, `hx-get="/panel"`)
	assert.Contains(t, html, `hx-trigger="every 1s"`)
	assert.Contains(t, html, "<dd>PLAYING</dd>")
	assert.Contains(t, html, "<dd>75</dd>")
	assert.Contains(t, html, "<dd>1m5s</dd>")
	assert.Contains(t, html, "WIN $100")
	assert.Contains(t, html, "&lt;b&gt;Bo&lt;/b&gt;", "viewer names are escaped")
	assert.Less(t, strings.Index(html, "Ana summoned a Tank!"), strings.Index(html, "Match started!"), "newest event first")
	assert.Contains(t, html, `class="event danger"`)
}

func TestStatusPage(t *testing.T) {
	var b strings.Builder
	require.NoError(t, view.StatusPage(match.New(1), view.Flashes{Success: []string{"Match reset"}}).Render(&b))
	html := b.String()

	assert.True(t, strings.HasPrefix(html, "<!doctype html>"))
	assert.Contains(t, html, `action="/control/start"`)
	assert.Contains(t, html, `<p class="flash success">Match reset</p>`)
	assert.Contains(t, html, `id="panel"`)
}
