// Package sqlite is the local implementation of the store protocol.
//
// It exists for development and tests: the same prepare/bind/run surface the
// edge store exposes, backed by a local SQLite database through the pure Go
// driver. Batches run inside a single transaction so the "batch is one
// unit" assumption of the protocol holds here too.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/statelayer/edgebase/internal/store"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// Store implements store.Conn over a local SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. Use ":memory:" for an
// in-memory database; tests rely on it.
func Open(path string) (*Store, error) {
	// Serialize access through one connection. SQLite handles concurrent
	// readers poorly through database/sql's pool, and the in-memory mode
	// would otherwise give every pooled conn its own empty database.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return &Store{db: db}, nil
}

// Prepare implements store.Conn.
func (s *Store) Prepare(sqlText string) store.Statement {
	return &statement{db: s.db, sql: sqlText}
}

// Batch implements store.Conn. All queries execute inside one transaction;
// any failure rolls the whole unit back.
func (s *Store) Batch(ctx context.Context, queries []store.Query) ([]store.Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning batch: %w", err)
	}

	results := make([]store.Result, 0, len(queries))
	for _, q := range queries {
		start := time.Now()
		res, err := tx.ExecContext(ctx, q.SQL, q.Params...)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("batch statement %q: %w", q.SQL, err)
		}
		results = append(results, store.Result{Meta: writeMeta(res, time.Since(start))})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing batch: %w", err)
	}
	return results, nil
}

// Ping implements store.Conn.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements store.Conn.
func (s *Store) Close() error {
	return s.db.Close()
}

type statement struct {
	db     *sql.DB
	sql    string
	params []any
}

func (st *statement) Bind(params ...any) store.Statement {
	st.params = params
	return st
}

func (st *statement) All(ctx context.Context) (*store.Result, error) {
	start := time.Now()
	rows, err := st.db.QueryContext(ctx, st.sql, st.params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	return &store.Result{
		Rows: out,
		Meta: store.Meta{
			Duration: time.Since(start),
			RowsRead: int64(len(out)),
		},
	}, nil
}

func (st *statement) First(ctx context.Context) (store.Row, *store.Meta, error) {
	res, err := st.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	meta := res.Meta
	if len(res.Rows) == 0 {
		return nil, &meta, nil
	}
	return res.Rows[0], &meta, nil
}

func (st *statement) Run(ctx context.Context) (*store.Result, error) {
	start := time.Now()
	res, err := st.db.ExecContext(ctx, st.sql, st.params...)
	if err != nil {
		return nil, err
	}
	return &store.Result{Meta: writeMeta(res, time.Since(start))}, nil
}

func writeMeta(res sql.Result, elapsed time.Duration) store.Meta {
	meta := store.Meta{Duration: elapsed}
	if n, err := res.RowsAffected(); err == nil {
		meta.Changes = n
		meta.RowsWritten = n
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		meta.LastInsertID = &id
	}
	return meta
}

// scanRows converts sql.Rows into protocol rows. Byte slices become strings
// so rows marshal cleanly, matching what the edge store returns over JSON.
func scanRows(rows *sql.Rows) ([]store.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []store.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(store.Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
