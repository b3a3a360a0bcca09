package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/statelayer/edgebase/internal/server"
)

// MetricsHandler exposes the executor's metrics snapshot and the migration
// bookkeeping.
type MetricsHandler struct {
	Handler
}

// NewMetricsHandler constructs a MetricsHandler.
func NewMetricsHandler(s *server.Server) *MetricsHandler {
	return &MetricsHandler{Handler: NewHandler(s)}
}

// GetMetrics returns a copy of the current counters.
func (h *MetricsHandler) GetMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.server.DB.GetMetrics())
}

// ResetMetrics zeroes the accumulator.
func (h *MetricsHandler) ResetMetrics(c echo.Context) error {
	h.server.DB.ResetMetrics()
	h.server.Logger.Info().Msg("metrics reset")
	return c.NoContent(http.StatusNoContent)
}

// GetMigrationStatus reports each migration definition against the
// bookkeeping table.
func (h *MetricsHandler) GetMigrationStatus(c echo.Context) error {
	statuses, err := h.server.DB.GetMigrationStatus(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, statuses)
}
