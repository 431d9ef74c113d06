package module

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/samber/do/v2"
)

// Module is a self-contained feature of the host process.
type Module interface {
	// Name returns a unique identifier for the module.
	Name() string

	// Register provides the module's services to the container. It runs for
	// every module before any module boots.
	Register(i do.Injector) error

	// Boot wires subscriptions and routes once all services are registered.
	Boot(ctx context.Context, g *echo.Group, i do.Injector) error

	// Shutdown releases whatever Boot started.
	Shutdown(ctx context.Context) error
}

// BaseModule provides no-op implementations. Modules embed it to skip the
// phases they don't need.
type BaseModule struct{}

func (m *BaseModule) Register(i do.Injector) error { return nil }
func (m *BaseModule) Boot(ctx context.Context, g *echo.Group, i do.Injector) error {
	return nil
}
func (m *BaseModule) Shutdown(ctx context.Context) error {
	return nil
}
