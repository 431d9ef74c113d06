package server

import (
	"github.com/labstack/echo-contrib/pprof"

	"github.com/nfrund/chaosarena/internal/handlers"
	"github.com/nfrund/chaosarena/internal/middleware"
	"github.com/nfrund/chaosarena/internal/view"
)

func (s *Server) registerRoutes(deps Dependencies) {
	arena := handlers.NewArenaHandler(deps.Host, deps.Catalog)
	status := handlers.NewStatusHandler(deps.Host)
	health := handlers.NewHealthHandler(deps.Health)
	limiter := middleware.RateLimiter(middleware.DefaultControlRate, middleware.DefaultControlBurst)

	s.E.GET("/ws", deps.Sockets)
	s.E.GET("/health", health.Check)

	s.E.GET("/", status.Page)
	s.E.GET(view.PanelPath, status.Panel)
	s.E.POST("/control/start", status.ControlStart, limiter)
	s.E.POST("/control/reset", status.ControlReset, limiter)

	s.API = s.E.Group("/api", limiter)
	s.API.POST("/match/start", arena.Start)
	s.API.POST("/match/reset", arena.Reset)
	s.API.POST("/avatar/move", arena.Move)
	s.API.POST("/avatar/shoot", arena.Shoot)
	s.API.POST("/hostiles", arena.Spawn)
	s.API.POST("/buffs", arena.Buff)
	s.API.GET("/state", arena.State)
	s.API.GET("/items", arena.Items)

	if deps.Config.Pprof {
		pprof.Register(s.E)
		s.logger.Warn("pprof handlers mounted under /debug/pprof")
	}
}
