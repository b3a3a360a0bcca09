// Package store defines the protocol surface of the remote SQL store.
//
// The store is an edge-hosted relational database that is reachable only
// through an asynchronous prepared-statement protocol: a statement is
// prepared, parameters are bound, and the statement is run in one of three
// modes (first row, all rows, or write). Multiple statements can be
// submitted together as a batch, which the store executes as one unit.
// The store offers no native multi-statement transactions.
//
// The interfaces here are deliberately narrow so that tests can substitute
// a scripted fake, and so the resilient executor in internal/database never
// depends on a concrete backend.
package store

import (
	"context"
	"time"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// Meta carries the per-statement accounting the store reports alongside a
// result.
type Meta struct {
	// Duration is the store-observed execution time for the statement.
	Duration time.Duration `json:"duration"`
	// RowsRead and RowsWritten are the store's I/O accounting.
	RowsRead    int64 `json:"rows_read"`
	RowsWritten int64 `json:"rows_written"`
	// Changes is the number of rows modified by a write statement.
	Changes int64 `json:"changes"`
	// LastInsertID is set when the store reports a rowid for an insert.
	LastInsertID *int64 `json:"last_insert_id,omitempty"`
}

// Result is the outcome of one statement.
type Result struct {
	Rows []Row `json:"rows"`
	Meta Meta  `json:"meta"`
}

// Query is an immutable statement descriptor: SQL text plus its ordered
// parameter list.
type Query struct {
	SQL    string
	Params []any
}

// Statement is a prepared statement awaiting parameters and execution.
type Statement interface {
	// Bind sets the ordered parameter list and returns the statement for
	// chaining. Calling Bind again replaces the previous parameters.
	Bind(params ...any) Statement

	// All runs the statement expecting zero or more rows.
	All(ctx context.Context) (*Result, error)

	// First runs the statement expecting at most one row. A missing row is
	// not an error; the returned Row is nil.
	First(ctx context.Context) (Row, *Meta, error)

	// Run executes the statement for its side effects (INSERT, UPDATE,
	// DELETE, DDL). Result.Rows is empty.
	Run(ctx context.Context) (*Result, error)
}

// Conn is the handle to the remote store. Implementations must be safe for
// concurrent use; the executor issues calls from many request contexts.
type Conn interface {
	// Prepare builds a statement from SQL text. Preparation is local and
	// cannot fail; errors surface when the statement is run.
	Prepare(sql string) Statement

	// Batch submits the queries as a single protocol call. The store
	// executes them as one unit; partial application is not observable.
	Batch(ctx context.Context, queries []Query) ([]Result, error)

	// Ping verifies the connection with a lightweight round trip.
	Ping(ctx context.Context) error

	// Close releases resources held by the handle.
	Close() error
}
