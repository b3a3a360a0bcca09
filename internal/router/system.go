package router

import (
	"github.com/labstack/echo/v4"
	"github.com/statelayer/edgebase/internal/handler"
)

// registerSystemRoutes registers the operational endpoints that are not
// part of business logic: health for monitors, metrics and migration
// status for operators.
func registerSystemRoutes(e *echo.Echo, h *handler.Handlers) {
	e.GET("/status", h.Health.CheckHealth)

	e.GET("/metrics", h.Metrics.GetMetrics)
	e.POST("/metrics/reset", h.Metrics.ResetMetrics)
	e.GET("/migrations", h.Metrics.GetMigrationStatus)
}
