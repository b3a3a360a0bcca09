package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelayer/edgebase/internal/store"
)

func TestTransactionPassesThroughCallbackError(t *testing.T) {
	d := newSQLiteDB(t)
	sentinel := errors.New("business rule violated")

	err := d.Transaction(context.Background(), func(tx *Tx) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}

func TestTransactionDoesNotRollBack(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()

	_, err := d.Execute(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	err = d.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Execute(ctx, "INSERT INTO items (name) VALUES (?)", "kept"); err != nil {
			return err
		}
		return errors.New("later step failed")
	})
	require.Error(t, err)

	// The write before the failure stays applied: there is no rollback.
	res, err := d.QueryOne(ctx, "SELECT COUNT(*) AS n FROM items")
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Row["n"])
}

func TestTransactionSurfacesFullQuerySurface(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()

	_, err := d.Execute(ctx, "CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)")
	require.NoError(t, err)

	err = d.Transaction(ctx, func(tx *Tx) error {
		if _, err := tx.Batch(ctx, []store.Query{
			{SQL: "INSERT INTO items (name) VALUES (?)", Params: []any{"a"}},
			{SQL: "INSERT INTO items (name) VALUES (?)", Params: []any{"b"}},
		}); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, "SELECT name FROM items ORDER BY name")
		if err != nil {
			return err
		}
		assert.Len(t, rows.Rows, 2)

		one, err := tx.QueryOne(ctx, "SELECT name FROM items WHERE name = ?", "a")
		if err != nil {
			return err
		}
		assert.Equal(t, "a", one.Row["name"])
		return nil
	})
	require.NoError(t, err)
}
