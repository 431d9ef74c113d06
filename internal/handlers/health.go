package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports per-service health. A nil error means healthy.
type HealthChecker func(ctx context.Context) map[string]error

// HealthHandler serves /health.
type HealthHandler struct {
	check HealthChecker
}

func NewHealthHandler(check HealthChecker) *HealthHandler {
	return &HealthHandler{check: check}
}

func (h *HealthHandler) Check(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Services: map[string]string{}}
	for name, err := range h.check(c.Request().Context()) {
		if err != nil {
			resp.Status = "unavailable"
			resp.Services[name] = err.Error()
			continue
		}
		resp.Services[name] = "ok"
	}
	if resp.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
