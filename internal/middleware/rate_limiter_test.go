package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter(t *testing.T) {
	e := echo.New()
	e.POST("/api/match/start", func(c echo.Context) error {
		return c.String(http.StatusAccepted, "queued")
	}, RateLimiter(0.001, 3))

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/match/start", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("allows the burst", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusAccepted, hit("192.0.2.2:1234").Code, "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks past the burst", func(t *testing.T) {
		rec := hit("192.0.2.2:1234")
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Contains(t, rec.Body.String(), "Too many requests")
	})

	t.Run("limits per client", func(t *testing.T) {
		assert.Equal(t, http.StatusAccepted, hit("192.0.2.3:1234").Code)
	})
}
