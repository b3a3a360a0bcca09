package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckHealthy(t *testing.T) {
	d := newSQLiteDB(t)

	hs := d.HealthCheck(context.Background())
	assert.Equal(t, StatusHealthy, hs.Status)
	assert.Empty(t, hs.Error)
	assert.Greater(t, hs.Latency, time.Duration(0))
	assert.False(t, hs.CheckedAt.IsZero())
}

func TestHealthCheckUnhealthyOnProbeFailure(t *testing.T) {
	conn := &fakeConn{failures: 100, err: errors.New("store unreachable")}
	d, _ := newFakeDB(conn)

	hs := d.HealthCheck(context.Background())
	assert.Equal(t, StatusUnhealthy, hs.Status)
	assert.Contains(t, hs.Error, "store unreachable")
	assert.Equal(t, int64(1), hs.Metrics.ConnectionErrors)
}

func TestHealthCheckDegraded(t *testing.T) {
	conn := &fakeConn{failures: 3} // one terminal failure, then clean
	conn.err = errors.New("blip")
	d, _ := newFakeDB(conn)

	ctx := context.Background()
	_, err := d.Execute(ctx, "DELETE FROM sessions")
	require.Error(t, err)
	for i := 0; i < 4; i++ {
		_, err := d.Execute(ctx, "DELETE FROM sessions")
		require.NoError(t, err)
	}

	// 1 failure over 6 calls (including the probe): between 0.1 and 0.5.
	hs := d.HealthCheck(ctx)
	assert.Equal(t, StatusDegraded, hs.Status)
	assert.InDelta(t, 1.0/6.0, hs.ErrorRate, 1e-9)
}

func TestHealthCheckUnhealthyOnHighErrorRate(t *testing.T) {
	conn := &fakeConn{failures: 9} // three terminal failures, then clean
	conn.err = errors.New("blip")
	d, _ := newFakeDB(conn)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := d.Execute(ctx, "DELETE FROM sessions")
		require.Error(t, err)
	}
	_, err := d.Execute(ctx, "DELETE FROM sessions")
	require.NoError(t, err)

	// 3 failures over 5 calls (including the probe): at or above 0.5.
	hs := d.HealthCheck(ctx)
	assert.Equal(t, StatusUnhealthy, hs.Status)
	assert.Empty(t, hs.Error) // the probe itself succeeded
}
