package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chaosarena/internal/domain"
	"github.com/nfrund/chaosarena/internal/host"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AcceptedResponse acknowledges a command queued on the host. It says
// nothing about whether the reducer will take it.
type AcceptedResponse struct {
	Status  string `json:"status"`
	Command string `json:"command"`
}

// HealthResponse reports the state of every checked service.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func accepted(c echo.Context, command string) error {
	return c.JSON(http.StatusAccepted, AcceptedResponse{Status: "accepted", Command: command})
}

// submitError maps a host submit failure to an HTTP error.
func submitError(err error) error {
	switch {
	case errors.Is(err, domain.ErrHostStopped):
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrorResponse{Code: "host_stopped", Message: err.Error()})
	case errors.Is(err, host.ErrQueueFull):
		return echo.NewHTTPError(http.StatusServiceUnavailable, ErrorResponse{Code: "queue_full", Message: err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, ErrorResponse{Code: "internal", Message: err.Error()})
}

func invalid(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, ErrorResponse{Code: "invalid_request", Message: err.Error()})
}
