package database

import (
	"context"

	"github.com/statelayer/edgebase/internal/store"
)

// Tx is the transaction shim. The underlying store has no native
// transactions, so this is a convenience wrapper that hands the callback
// the same query/execute/batch surface with NO isolation and NO
// rollback-on-error: statements run immediately, and whatever completed
// before a failure stays applied. The only atomic grouping available is
// Batch, which the store executes as one unit.
type Tx struct {
	db *Database
}

// Query runs a read inside the shim. Same semantics as Database.Query.
func (t *Tx) Query(ctx context.Context, sql string, params ...any) (*RowsResult, error) {
	return t.db.Query(ctx, sql, params...)
}

// QueryOne runs a single-row read inside the shim.
func (t *Tx) QueryOne(ctx context.Context, sql string, params ...any) (*SingleRowResult, error) {
	return t.db.QueryOne(ctx, sql, params...)
}

// Execute runs a write inside the shim. It is applied immediately and will
// not be undone if a later statement in the callback fails.
func (t *Tx) Execute(ctx context.Context, sql string, params ...any) (*WriteResult, error) {
	return t.db.Execute(ctx, sql, params...)
}

// Batch is the one grouping with store-level atomicity.
func (t *Tx) Batch(ctx context.Context, queries []store.Query) ([]store.Result, error) {
	return t.db.Batch(ctx, queries)
}

// Transaction invokes fn with the shim surface. The callback's error is
// returned as-is; nothing is rolled back. Callers needing all-or-nothing
// semantics must express the work as a single Batch.
func (d *Database) Transaction(ctx context.Context, fn func(tx *Tx) error) error {
	d.log.Debug().Msg("transaction shim: begin (no isolation)")
	err := fn(&Tx{db: d})
	if err != nil {
		d.log.Debug().Err(err).Msg("transaction shim: callback failed, prior writes remain applied")
		return err
	}
	d.log.Debug().Msg("transaction shim: end")
	return nil
}
