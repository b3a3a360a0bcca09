// Package router initializes the HTTP router (using Echo).
//
// It registers the system route group, mapping paths to their handlers.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/statelayer/edgebase/internal/handler"
)

// New builds the Echo instance with the system routes registered.
func New(h *handler.Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	registerSystemRoutes(e, h)
	return e
}
