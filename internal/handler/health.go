package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/server"
)

// HealthHandler exposes the endpoint external systems use to verify the
// service is alive and the store is reachable.
type HealthHandler struct {
	Handler
}

// NewHealthHandler constructs a HealthHandler with access to shared app
// dependencies.
func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(s)}
}

// CheckHealth returns the data layer's health verdict plus request
// metadata. 200 when healthy or degraded (degraded is an observable state,
// not an outage), 503 when unhealthy.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	health := h.server.DB.HealthCheck(ctx)

	response := map[string]any{
		"status":      health.Status,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks": map[string]any{
			"database": health,
		},
	}

	logger := h.server.Logger.With().Str("operation", "health_check").Logger()
	if health.Status == database.StatusUnhealthy {
		logger.Error().Str("error", health.Error).
			Dur("latency", health.Latency).Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().Str("status", health.Status).
		Dur("latency", health.Latency).Msg("health check passed")
	return c.JSON(http.StatusOK, response)
}
