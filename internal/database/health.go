package database

import (
	"context"
	"time"
)

// Health verdicts. Degradation is reported, not thrown, so monitoring can
// watch the slide instead of finding a crater.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Error-rate thresholds over the metrics snapshot.
const (
	healthyErrorRate  = 0.1
	degradedErrorRate = 0.5
)

// HealthStatus is the result of one health check.
type HealthStatus struct {
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	Latency   time.Duration   `json:"latency"`
	ErrorRate float64         `json:"error_rate"`
	Metrics   MetricsSnapshot `json:"metrics"`
	CheckedAt time.Time       `json:"checked_at"`
}

// HealthCheck performs one lightweight round trip (SELECT 1) through the
// executor and classifies the service by the accumulated error rate:
// below 0.1 healthy, below 0.5 degraded, otherwise unhealthy. A failed
// round trip itself increments ConnectionErrors and reports unhealthy with
// the underlying message, regardless of the error rate.
func (d *Database) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	_, err := d.QueryOne(ctx, "SELECT 1")
	latency := time.Since(start)

	if err != nil {
		d.metrics.recordConnectionError()
		snap := d.metrics.Snapshot()
		return HealthStatus{
			Status:    StatusUnhealthy,
			Error:     err.Error(),
			Latency:   latency,
			ErrorRate: snap.ErrorRate(),
			Metrics:   snap,
			CheckedAt: time.Now().UTC(),
		}
	}

	snap := d.metrics.Snapshot()
	rate := snap.ErrorRate()
	status := StatusUnhealthy
	switch {
	case rate < healthyErrorRate:
		status = StatusHealthy
	case rate < degradedErrorRate:
		status = StatusDegraded
	}

	return HealthStatus{
		Status:    status,
		Latency:   latency,
		ErrorRate: rate,
		Metrics:   snap,
		CheckedAt: time.Now().UTC(),
	}
}
