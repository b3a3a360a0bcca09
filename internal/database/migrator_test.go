package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statelayer/edgebase/internal/errs"
	"github.com/statelayer/edgebase/internal/store/sqlite"
)

// newSQLiteDB backs a Database with an in-memory SQLite store, retries
// tuned down so failing-path tests stay fast.
func newSQLiteDB(t *testing.T) *Database {
	t.Helper()
	conn, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn, WithSettings(Settings{RetryDelay: time.Millisecond}))
}

func TestMigrationsParse(t *testing.T) {
	defs, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	for i, def := range defs {
		assert.Equal(t, i+1, def.ID)
		assert.NotEmpty(t, def.Name)
		assert.NotEmpty(t, def.Up)
		assert.NotEmpty(t, def.Down, "migration %d is missing a down script", def.ID)
		assert.NotContains(t, def.Up, downMarker)
	}
}

func TestRunMigrationsAppliesAndIsIdempotent(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()

	require.NoError(t, d.RunMigrations(ctx))

	defs, err := Migrations()
	require.NoError(t, err)

	res, err := d.Query(ctx, "SELECT migration_id FROM migrations ORDER BY migration_id")
	require.NoError(t, err)
	require.Len(t, res.Rows, len(defs))

	// Second run is a no-op: same bookkeeping rows, no error.
	require.NoError(t, d.RunMigrations(ctx))
	res, err = d.Query(ctx, "SELECT COUNT(*) AS n FROM migrations")
	require.NoError(t, err)
	assert.Equal(t, int64(len(defs)), res.Rows[0]["n"])

	// Schema tables exist and are queryable.
	for _, table := range []string{"users", "sessions", "audit_logs", "config"} {
		_, err := d.Query(ctx, "SELECT COUNT(*) AS n FROM "+table)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestRunMigrationsRecordsChecksum(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()
	require.NoError(t, d.RunMigrations(ctx))

	defs, err := Migrations()
	require.NoError(t, err)

	res, err := d.Query(ctx, "SELECT migration_id, checksum, executed_at FROM migrations")
	require.NoError(t, err)

	byID := make(map[int]string, len(res.Rows))
	for _, row := range res.Rows {
		byID[rowInt(row, "migration_id")] = row["checksum"].(string)

		_, perr := time.Parse(time.RFC3339, row["executed_at"].(string))
		assert.NoError(t, perr)
	}
	for _, def := range defs {
		assert.Equal(t, def.Checksum(), byID[def.ID])
	}
}

func TestMigrationChecksum(t *testing.T) {
	a := Migration{Up: "CREATE TABLE a (id INTEGER)"}
	b := Migration{Up: "CREATE TABLE b (id INTEGER)"}

	assert.Len(t, a.Checksum(), 8)
	assert.Equal(t, a.Checksum(), a.Checksum())
	assert.NotEqual(t, a.Checksum(), b.Checksum())
}

func TestRunMigrationsHaltsOnFirstFailure(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()

	defs := []Migration{
		{ID: 1, Name: "ok", Up: "CREATE TABLE first_table (id INTEGER PRIMARY KEY)"},
		{ID: 2, Name: "broken", Up: "CREATE BROKEN SYNTAX"},
		{ID: 3, Name: "never", Up: "CREATE TABLE third_table (id INTEGER PRIMARY KEY)"},
	}

	err := d.runMigrations(ctx, defs)
	require.Error(t, err)

	var me *errs.MigrationError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 2, me.MigrationID)
	assert.Equal(t, "broken", me.Name)

	// Migration 1 is recorded, 2 and 3 are not, and 3 never ran.
	res, err := d.Query(ctx, "SELECT migration_id FROM migrations")
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, 1, rowInt(res.Rows[0], "migration_id"))

	_, err = d.Query(ctx, "SELECT COUNT(*) FROM third_table")
	assert.Error(t, err)
}

func TestGetMigrationStatus(t *testing.T) {
	d := newSQLiteDB(t)
	ctx := context.Background()

	// Status needs the bookkeeping table; create it without applying
	// anything so every definition reads as pending.
	_, err := d.Execute(ctx, createMigrationsTable)
	require.NoError(t, err)

	statuses, err := d.GetMigrationStatus(ctx)
	require.NoError(t, err)
	for _, s := range statuses {
		assert.False(t, s.Applied)
		assert.Nil(t, s.ExecutedAt)
		assert.Len(t, s.Checksum, 8)
	}

	require.NoError(t, d.RunMigrations(ctx))

	statuses, err = d.GetMigrationStatus(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, statuses)
	for _, s := range statuses {
		assert.True(t, s.Applied)
		require.NotNil(t, s.ExecutedAt)
		assert.WithinDuration(t, time.Now(), *s.ExecutedAt, time.Minute)
	}
}

func TestRollbackMigrationNotImplemented(t *testing.T) {
	d := newSQLiteDB(t)
	err := d.RollbackMigration(context.Background(), 1)
	require.ErrorIs(t, err, errs.ErrNotImplemented)
}

func TestValidateSchemaNotImplemented(t *testing.T) {
	d := newSQLiteDB(t)
	err := d.ValidateSchema(context.Background())
	require.ErrorIs(t, err, errs.ErrNotImplemented)
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements("CREATE TABLE a (id INTEGER);\n\nCREATE INDEX idx_a ON a (id);\n")
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", stmts[0])
}
