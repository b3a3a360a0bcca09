package database

import (
	"sync"
	"time"
)

// Metrics is the process-wide accumulator for executor outcomes. It is
// owned by the Database instance (injectable for tests), mutated under a
// mutex so concurrent completions never lose an update, and never persisted
// to the store.
//
// Invariant: every terminal call increments total exactly once, paired with
// exactly one of successful/failed. The running average covers successful
// calls since the last reset only.
type Metrics struct {
	mu sync.Mutex

	total      int64
	successful int64
	failed     int64
	slow       int64
	connErrors int64

	// running mean over successful call durations, in nanoseconds
	avgNs float64

	lastError     string
	lastErrorTime time.Time
}

// MetricsSnapshot is a copy of the accumulator at one point in time.
type MetricsSnapshot struct {
	TotalQueries      int64         `json:"total_queries"`
	SuccessfulQueries int64         `json:"successful_queries"`
	FailedQueries     int64         `json:"failed_queries"`
	AverageQueryTime  time.Duration `json:"average_query_time"`
	SlowQueries       int64         `json:"slow_queries"`
	ConnectionErrors  int64         `json:"connection_errors"`
	LastError         string        `json:"last_error,omitempty"`
	LastErrorTime     time.Time     `json:"last_error_time,omitzero"`
}

// NewMetrics returns a zeroed accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordSuccess(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.successful++
	// incremental running mean: avg += (x - avg) / n
	m.avgNs += (float64(d) - m.avgNs) / float64(m.successful)
}

func (m *Metrics) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	m.failed++
	if err != nil {
		m.lastError = err.Error()
		m.lastErrorTime = time.Now()
	}
}

func (m *Metrics) recordSlow() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slow++
}

func (m *Metrics) recordConnectionError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connErrors++
}

// Snapshot returns a copy of the current counters, not a live reference.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		TotalQueries:      m.total,
		SuccessfulQueries: m.successful,
		FailedQueries:     m.failed,
		AverageQueryTime:  time.Duration(m.avgNs),
		SlowQueries:       m.slow,
		ConnectionErrors:  m.connErrors,
		LastError:         m.lastError,
		LastErrorTime:     m.lastErrorTime,
	}
}

// Reset zeroes all counters.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = 0
	m.successful = 0
	m.failed = 0
	m.slow = 0
	m.connErrors = 0
	m.avgNs = 0
	m.lastError = ""
	m.lastErrorTime = time.Time{}
}

// ErrorRate is failed/total over the snapshot; zero when nothing ran yet.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.FailedQueries) / float64(s.TotalQueries)
}
