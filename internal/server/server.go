// Package server is the host's HTTP surface: the viewer socket, the control
// API, the status page and health.
package server

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/nfrund/chaosarena/internal/catalog"
	"github.com/nfrund/chaosarena/internal/config"
	"github.com/nfrund/chaosarena/internal/handlers"
	"github.com/nfrund/chaosarena/internal/middleware"
	"github.com/nfrund/chaosarena/internal/rendering"
)

// Dependencies are the services the routes dispatch to.
type Dependencies struct {
	Config  config.Config
	Logger  *slog.Logger
	Host    handlers.MatchHost
	Catalog *catalog.Catalog
	// Sockets serves the viewer websocket endpoint.
	Sockets echo.HandlerFunc
	Health  handlers.HealthChecker
}

// Server holds the echo instance and the groups modules can mount on.
type Server struct {
	E      *echo.Echo
	API    *echo.Group
	addr   string
	logger *slog.Logger

	stopOnce sync.Once
	stopErr  error
}

// New builds the echo instance with middleware and every route registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewValidator()
	e.Renderer = rendering.NewNodeRenderer()
	setupErrorHandling(e)

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(deps.Logger))

	store := sessions.NewCookieStore([]byte(deps.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(store))

	s := &Server{
		E:      e,
		addr:   deps.Config.Addr,
		logger: deps.Logger.With("service", "http"),
	}
	s.registerRoutes(deps)
	return s
}
