package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chaosarena/internal/ingest"
	"github.com/nfrund/chaosarena/internal/middleware"
	"github.com/nfrund/chaosarena/internal/view"
)

// StatusHandler serves the host's status page and its htmx panel.
type StatusHandler struct {
	host MatchHost
}

func NewStatusHandler(h MatchHost) *StatusHandler {
	return &StatusHandler{host: h}
}

// Page renders the full status page.
func (h *StatusHandler) Page(c echo.Context) error {
	s, err := h.host.Snapshot(c.Request().Context())
	if err != nil {
		return submitError(err)
	}
	return c.Render(http.StatusOK, "", view.StatusPage(s, view.PopFlashes(c)))
}

// Panel renders the fragment the page polls.
func (h *StatusHandler) Panel(c echo.Context) error {
	s, err := h.host.Snapshot(c.Request().Context())
	if err != nil {
		return submitError(err)
	}
	return c.Render(http.StatusOK, "", view.Panel(s))
}

// ControlStart and ControlReset back the page's forms. They queue the command,
// leave a flash and redirect to the page.
func (h *StatusHandler) ControlStart(c echo.Context) error {
	return h.control(c, ingest.Start{}, "Match start requested")
}

func (h *StatusHandler) ControlReset(c echo.Context) error {
	return h.control(c, ingest.Reset{}, "Match reset requested")
}

func (h *StatusHandler) control(c echo.Context, cmd ingest.Command, notice string) error {
	logger := middleware.FromContext(c.Request().Context())
	var flashErr error
	if err := h.host.Submit(cmd); err != nil {
		logger.Warn("Control command not queued", "error", err)
		flashErr = view.SetFlashError(c, err.Error())
	} else {
		flashErr = view.SetFlashSuccess(c, notice)
	}
	if flashErr != nil {
		logger.Debug("Flash not stored", "error", flashErr)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}
