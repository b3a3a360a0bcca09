// Package handler holds the HTTP system endpoints: health, metrics, and
// migration status. These are operational surfaces over the data layer,
// not business routes.
package handler

import (
	"github.com/statelayer/edgebase/internal/server"
)

// Handler is the base handler type that holds shared application
// dependencies. Concrete handlers embed it to reach the server container.
type Handler struct {
	server *server.Server
}

// NewHandler constructs a base Handler.
func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// Handlers is a container that groups all HTTP handlers, so router setup
// passes one object around.
type Handlers struct {
	Health  *HealthHandler
	Metrics *MetricsHandler
}

// NewHandlers constructs the handler container.
func NewHandlers(s *server.Server) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(s),
		Metrics: NewMetricsHandler(s),
	}
}
