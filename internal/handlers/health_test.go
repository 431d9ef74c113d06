package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chaosarena/internal/handlers"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name    string
		results map[string]error
		code    int
		status  string
	}{
		{"all healthy", map[string]error{"host": nil, "registry": nil}, http.StatusOK, "ok"},
		{"host down", map[string]error{"host": errors.New("host is not running"), "registry": nil}, http.StatusServiceUnavailable, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			h := handlers.NewHealthHandler(func(context.Context) map[string]error { return tt.results })
			e.GET("/health", h.Check)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, tt.code, rec.Code)

			var resp handlers.HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.status, resp.Status)
			assert.Equal(t, "ok", resp.Services["registry"])
		})
	}
}
