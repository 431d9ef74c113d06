package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/handlers"
	"github.com/nfrund/chaosarena/internal/host"
	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/rendering"
	"github.com/nfrund/chaosarena/internal/sim"
)

type fakeHost struct {
	mu    sync.Mutex
	cmds  []ingest.Command
	err   error
	state match.State
}

func (h *fakeHost) Submit(cmd ingest.Command) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return h.err
	}
	h.cmds = append(h.cmds, cmd)
	return nil
}

func (h *fakeHost) Snapshot(context.Context) (match.State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return match.State{}, h.err
	}
	return h.state.Clone(), nil
}

func (h *fakeHost) last() ingest.Command {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.cmds) == 0 {
		return nil
	}
	return h.cmds[len(h.cmds)-1]
}

func newEcho(h *fakeHost) *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewNodeRenderer()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("a-very-secret-key-for-testing-!"))))

	arena := handlers.NewArenaHandler(h, catalog.Default())
	api := e.Group("/api")
	api.POST("/match/start", arena.Start)
	api.POST("/match/reset", arena.Reset)
	api.POST("/avatar/move", arena.Move)
	api.POST("/avatar/shoot", arena.Shoot)
	api.POST("/hostiles", arena.Spawn)
	api.POST("/buffs", arena.Buff)
	api.GET("/state", arena.State)
	api.GET("/items", arena.Items)

	status := handlers.NewStatusHandler(h)
	e.GET("/", status.Page)
	e.GET("/panel", status.Panel)
	e.POST("/control/start", status.ControlStart)
	e.POST("/control/reset", status.ControlReset)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestArenaCommands(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
		want ingest.Command
	}{
		{"start", "/api/match/start", "", ingest.Start{}},
		{"reset", "/api/match/reset", "", ingest.Reset{}},
		{"move", "/api/avatar/move", `{"dx":1,"dy":-0.5}`, ingest.Move{DX: 1, DY: -0.5}},
		{"shoot", "/api/avatar/shoot", `{"x":400,"y":10}`, ingest.Shoot{X: 400, Y: 10}},
		{"spawn", "/api/hostiles", `{"class":"ENEMY_TANK"}`, ingest.SpawnHostile{Class: match.TypeEnemyTank}},
		{"buff", "/api/buffs", `{"kind":"HEAL"}`, ingest.Buff{Kind: sim.BuffHeal}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHost{}
			rec := do(newEcho(h), http.MethodPost, tt.path, tt.body)

			require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
			var resp handlers.AcceptedResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.name, resp.Command)
			assert.Equal(t, tt.want, h.last())
		})
	}
}

func TestArenaValidation(t *testing.T) {
	tests := []struct {
		name string
		path string
		body string
	}{
		{"move too far", "/api/avatar/move", `{"dx":3,"dy":0}`},
		{"shoot outside arena", "/api/avatar/shoot", `{"x":900,"y":10}`},
		{"unknown class", "/api/hostiles", `{"class":"DRAGON"}`},
		{"missing kind", "/api/buffs", `{}`},
		{"malformed json", "/api/avatar/move", `{"dx":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &fakeHost{}
			rec := do(newEcho(h), http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, h.last())
		})
	}
}

func TestArenaHostUnavailable(t *testing.T) {
	for _, err := range []error{domain.ErrHostStopped, host.ErrQueueFull} {
		t.Run(err.Error(), func(t *testing.T) {
			rec := do(newEcho(&fakeHost{err: err}), http.MethodPost, "/api/match/start", "")
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
	rec := do(newEcho(&fakeHost{err: errors.New("boom")}), http.MethodPost, "/api/match/start", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestArenaReads(t *testing.T) {
	h := &fakeHost{state: match.New(1)}
	h.state.Score = 99
	e := newEcho(h)

	rec := do(e, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var s match.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, 99, s.Score)
	assert.Equal(t, match.StatusIdle, s.Status)

	rec = do(e, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []catalog.Item
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	assert.Len(t, items, 5)
}

func TestStatusPages(t *testing.T) {
	h := &fakeHost{state: match.New(1)}
	h.state.Viewers = []match.Viewer{{ID: "v1", Name: "Ana", Balance: 1000}}
	e := newEcho(h)

	rec := do(e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chaos Arena")
	assert.Contains(t, rec.Body.String(), "Ana")

	rec = do(e, http.MethodGet, "/panel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), `<div id="panel"`))
}

func TestControlFormRedirectsWithFlash(t *testing.T) {
	h := &fakeHost{state: match.New(1)}
	e := newEcho(h)

	rec := do(e, http.MethodPost, "/control/start", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	assert.Equal(t, ingest.Start{}, h.last())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	page := httptest.NewRecorder()
	e.ServeHTTP(page, req)
	assert.Contains(t, page.Body.String(), "Match start requested")
}
