// Package database is the resilient data-access layer over the remote
// edge-hosted SQL store.
//
// The store speaks an asynchronous prepared-statement protocol with no
// native transactions, occasionally fails transiently, and raises no typed
// errors. This package turns that primitive surface into a dependable
// query/execute/batch/migrate API: every call gets a bounded retry budget
// with linear backoff and a per-attempt deadline, is timed and classified
// into the shared metrics accumulator, and is logged per attempt. The
// migration runner, health check, and transaction shim live in their own
// files of this package.
package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/statelayer/edgebase/internal/errs"
	"github.com/statelayer/edgebase/internal/sqlerr"
	"github.com/statelayer/edgebase/internal/store"
)

// Settings tunes the executor. The zero value of any field falls back to
// the package default.
type Settings struct {
	// MaxRetries is the attempt budget per call (default 3).
	MaxRetries int
	// RetryDelay is the backoff base; attempt n waits RetryDelay*n
	// (default 1s).
	RetryDelay time.Duration
	// QueryTimeout bounds each individual attempt (default 30s). A timed
	// out attempt counts as a transient failure.
	QueryTimeout time.Duration
	// SlowQueryThreshold marks calls as slow, independent of outcome
	// (default 5s).
	SlowQueryThreshold time.Duration
	// LogQueries enables the per-attempt debug log with SQL and params.
	LogQueries bool
}

func (s Settings) withDefaults() Settings {
	if s.MaxRetries <= 0 {
		s.MaxRetries = 3
	}
	if s.RetryDelay <= 0 {
		s.RetryDelay = time.Second
	}
	if s.QueryTimeout <= 0 {
		s.QueryTimeout = 30 * time.Second
	}
	if s.SlowQueryThreshold <= 0 {
		s.SlowQueryThreshold = 5 * time.Second
	}
	return s
}

// Classifier decides whether an attempt error is transient (retry) or
// permanent (fail now). The default retries everything, preserving the
// store's historical contract; sqlerr.Classify is the stricter opt-in.
type Classifier func(error) bool

// Database owns the store handle for the lifetime of the process and
// exposes the executor surface consumed by repositories and health checks.
type Database struct {
	handle     store.Conn
	settings   Settings
	metrics    *Metrics
	classifier Classifier
	log        zerolog.Logger

	// sleep is the backoff wait, injectable so tests observe delays
	// instead of serving them.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Database.
type Option func(*Database)

// WithLogger sets the structured logger sink.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Database) { d.log = log.With().Str("component", "database").Logger() }
}

// WithSettings applies executor tuning.
func WithSettings(s Settings) Option {
	return func(d *Database) { d.settings = s.withDefaults() }
}

// WithMetrics injects a shared accumulator (e.g. one owned by the service
// container). By default each Database owns its own.
func WithMetrics(m *Metrics) Option {
	return func(d *Database) { d.metrics = m }
}

// WithClassifier replaces the retry-everything default.
func WithClassifier(c Classifier) Option {
	return func(d *Database) { d.classifier = c }
}

// New builds a Database over the given store handle. A nil handle is legal
// at construction; every call then fails with errs.ErrNotConfigured.
func New(handle store.Conn, opts ...Option) *Database {
	d := &Database{
		handle:     handle,
		settings:   Settings{}.withDefaults(),
		metrics:    NewMetrics(),
		classifier: sqlerr.RetryAll,
		log:        zerolog.Nop(),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// conn is the connection accessor: it validates the binding on every call
// and never caches beyond the handle itself, since the store may rotate
// connections underneath.
func (d *Database) conn() (store.Conn, error) {
	if d.handle == nil {
		return nil, errs.ErrNotConfigured
	}
	return d.handle, nil
}

// GetMetrics returns a copy of the current metrics.
func (d *Database) GetMetrics() MetricsSnapshot {
	return d.metrics.Snapshot()
}

// ResetMetrics zeroes the accumulator.
func (d *Database) ResetMetrics() {
	d.metrics.Reset()
}

// Close releases the store handle.
func (d *Database) Close() error {
	if d.handle == nil {
		return nil
	}
	d.log.Info().Msg("closing store handle")
	return d.handle.Close()
}

// RowsResult is the outcome of Query.
type RowsResult struct {
	Rows    []store.Row `json:"rows"`
	Success bool        `json:"success"`
	Meta    store.Meta  `json:"meta"`
}

// SingleRowResult is the outcome of QueryOne. Row is nil when no row
// matched; that is a success, not an error.
type SingleRowResult struct {
	Row     store.Row  `json:"row,omitempty"`
	Success bool       `json:"success"`
	Meta    store.Meta `json:"meta"`
}

// WriteResult is the outcome of Execute.
type WriteResult struct {
	Success bool       `json:"success"`
	Meta    store.Meta `json:"meta"`
}

// Query runs a statement expecting zero or more rows.
func (d *Database) Query(ctx context.Context, sql string, params ...any) (*RowsResult, error) {
	var res *store.Result
	meta, err := d.run(ctx, sql, params, func(ctx context.Context, c store.Conn) (store.Meta, error) {
		r, err := c.Prepare(sql).Bind(params...).All(ctx)
		if err != nil {
			return store.Meta{}, err
		}
		res = r
		return r.Meta, nil
	})
	if err != nil {
		return nil, err
	}
	return &RowsResult{Rows: res.Rows, Success: true, Meta: meta}, nil
}

// QueryOne runs a statement expecting at most one row. Zero rows is not an
// error; the result carries a nil Row.
func (d *Database) QueryOne(ctx context.Context, sql string, params ...any) (*SingleRowResult, error) {
	var row store.Row
	meta, err := d.run(ctx, sql, params, func(ctx context.Context, c store.Conn) (store.Meta, error) {
		r, m, err := c.Prepare(sql).Bind(params...).First(ctx)
		if err != nil {
			return store.Meta{}, err
		}
		row = r
		if m == nil {
			return store.Meta{}, nil
		}
		return *m, nil
	})
	if err != nil {
		return nil, err
	}
	return &SingleRowResult{Row: row, Success: true, Meta: meta}, nil
}

// Execute runs an INSERT/UPDATE/DELETE/DDL statement.
func (d *Database) Execute(ctx context.Context, sql string, params ...any) (*WriteResult, error) {
	meta, err := d.run(ctx, sql, params, func(ctx context.Context, c store.Conn) (store.Meta, error) {
		r, err := c.Prepare(sql).Bind(params...).Run(ctx)
		if err != nil {
			return store.Meta{}, err
		}
		return r.Meta, nil
	})
	if err != nil {
		return nil, err
	}
	return &WriteResult{Success: true, Meta: meta}, nil
}

// Batch submits the queries as one protocol call. The store treats a batch
// as already atomic, so the executor does not retry it, but the call is
// still timed, logged, and counted exactly once.
func (d *Database) Batch(ctx context.Context, queries []store.Query) ([]store.Result, error) {
	c, err := d.conn()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.settings.QueryTimeout)
	defer cancel()

	results, err := c.Batch(ctx, queries)
	elapsed := time.Since(start)
	d.observeSlow("batch", elapsed)

	if err != nil {
		d.metrics.recordFailure(err)
		d.log.Error().Err(err).Int("statements", len(queries)).
			Dur("elapsed", elapsed).Msg("batch failed")
		return nil, errs.NewQueryFailedError(1, err)
	}

	d.metrics.recordSuccess(elapsed)
	if d.settings.LogQueries {
		d.log.Debug().Int("statements", len(queries)).
			Dur("elapsed", elapsed).Msg("batch executed")
	}
	return results, nil
}

// run is the retry loop shared by Query, QueryOne and Execute.
//
// Up to MaxRetries attempts, each under its own deadline. A failed attempt
// is logged with the SQL and params; if the classifier calls it transient
// and attempts remain, the loop waits RetryDelay*attempt before the next
// one. The terminal outcome mutates the metrics exactly once.
func (d *Database) run(
	ctx context.Context,
	sql string,
	params []any,
	attempt func(ctx context.Context, c store.Conn) (store.Meta, error),
) (store.Meta, error) {
	c, err := d.conn()
	if err != nil {
		// Deployment defect: no retry, no metrics mutation, surfaced as is.
		return store.Meta{}, err
	}

	start := time.Now()
	var lastErr error
	attempts := 0

	for n := 1; n <= d.settings.MaxRetries; n++ {
		attempts = n
		actx, cancel := context.WithTimeout(ctx, d.settings.QueryTimeout)
		meta, err := attempt(actx, c)
		cancel()

		if err == nil {
			elapsed := time.Since(start)
			meta.Duration = elapsed
			d.metrics.recordSuccess(elapsed)
			d.observeSlow(sql, elapsed)
			if d.settings.LogQueries {
				d.log.Debug().Str("sql", sql).Any("params", params).
					Int("attempt", n).Dur("elapsed", elapsed).Msg("query succeeded")
			}
			return meta, nil
		}

		lastErr = err
		if d.settings.LogQueries {
			d.log.Debug().Err(err).Str("sql", sql).Any("params", params).
				Int("attempt", n).Msg("query attempt failed")
		}

		// The caller's own cancellation ends the loop regardless of
		// classification.
		if ctx.Err() != nil {
			break
		}
		if !d.classifier(err) {
			break
		}
		if n < d.settings.MaxRetries {
			if serr := d.sleep(ctx, d.settings.RetryDelay*time.Duration(n)); serr != nil {
				lastErr = serr
				break
			}
		}
	}

	elapsed := time.Since(start)
	d.metrics.recordFailure(lastErr)
	d.observeSlow(sql, elapsed)

	qErr := errs.NewQueryFailedError(attempts, lastErr)
	d.log.Error().Err(lastErr).Str("sql", sql).Int("attempts", attempts).
		Dur("elapsed", elapsed).Msg("query failed, retries exhausted")
	return store.Meta{}, qErr
}

func (d *Database) observeSlow(sql string, elapsed time.Duration) {
	if elapsed <= d.settings.SlowQueryThreshold {
		return
	}
	d.metrics.recordSlow()
	d.log.Warn().Str("sql", sql).Dur("elapsed", elapsed).
		Dur("threshold", d.settings.SlowQueryThreshold).Msg("slow query")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsQueryFailed reports whether err is a terminal executor failure.
func IsQueryFailed(err error) bool {
	var qe *errs.QueryFailedError
	return errors.As(err, &qe)
}
