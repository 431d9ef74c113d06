package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/match"
	"github.com/nfrund/chaosarena/internal/middleware"
	"github.com/nfrund/chaosarena/internal/sim"
)

// MatchHost is the part of host.Host the HTTP surface drives.
type MatchHost interface {
	Submit(cmd ingest.Command) error
	Snapshot(ctx context.Context) (match.State, error)
}

// ArenaHandler is the host's local control API.
type ArenaHandler struct {
	host    MatchHost
	catalog *catalog.Catalog
}

func NewArenaHandler(h MatchHost, c *catalog.Catalog) *ArenaHandler {
	if c == nil {
		c = catalog.Default()
	}
	return &ArenaHandler{host: h, catalog: c}
}

func (h *ArenaHandler) submit(c echo.Context, name string, cmd ingest.Command) error {
	if err := h.host.Submit(cmd); err != nil {
		middleware.FromContext(c.Request().Context()).Warn("Command not queued", "command", name, "error", err)
		return submitError(err)
	}
	return accepted(c, name)
}

// Start begins a match from IDLE or GAME_OVER.
func (h *ArenaHandler) Start(c echo.Context) error {
	return h.submit(c, "start", ingest.Start{})
}

// Reset returns to a fresh IDLE match.
func (h *ArenaHandler) Reset(c echo.Context) error {
	return h.submit(c, "reset", ingest.Reset{})
}

func (h *ArenaHandler) Move(c echo.Context) error {
	var req MoveRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.submit(c, "move", ingest.Move{DX: req.DX, DY: req.DY})
}

func (h *ArenaHandler) Shoot(c echo.Context) error {
	var req ShootRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.submit(c, "shoot", ingest.Shoot{X: req.X, Y: req.Y})
}

func (h *ArenaHandler) Spawn(c echo.Context) error {
	var req SpawnRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.submit(c, "spawn", ingest.SpawnHostile{Class: match.EntityType(req.Class)})
}

func (h *ArenaHandler) Buff(c echo.Context) error {
	var req BuffRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	return h.submit(c, "buff", ingest.Buff{Kind: sim.BuffKind(req.Kind)})
}

// State returns the current snapshot as JSON.
func (h *ArenaHandler) State(c echo.Context) error {
	s, err := h.host.Snapshot(c.Request().Context())
	if err != nil {
		return submitError(err)
	}
	return c.JSON(http.StatusOK, s)
}

// Items lists the catalog.
func (h *ArenaHandler) Items(c echo.Context) error {
	return c.JSON(http.StatusOK, h.catalog.Items())
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalid(err)
	}
	if err := c.Validate(req); err != nil {
		return invalid(err)
	}
	return nil
}
