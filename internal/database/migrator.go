package database

import (
	"context"
	"embed"
	"fmt"
	"hash/fnv"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/statelayer/edgebase/internal/errs"
)

// Embed all SQL files under migrations/ at compile time so the binary
// carries its schema with it.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// downMarker separates the up script from the down script inside a
// migration file. Everything below it is the rollback, which is parsed and
// recorded but intentionally never executed.
const downMarker = "---- down ----"

var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// Migration is one schema change: an ordered id, a human name, and the up
// and down scripts. Definitions ship with the process; only the fact of
// their application is persisted, in the bookkeeping table.
type Migration struct {
	ID   int
	Name string
	Up   string
	Down string
}

// Checksum is a fast FNV-1a hash of the up script. It detects accidental
// content drift between what ran and what ships; it is not a security
// control.
func (m Migration) Checksum() string {
	h := fnv.New32a()
	h.Write([]byte(m.Up))
	return fmt.Sprintf("%08x", h.Sum32())
}

// MigrationStatus pairs a definition with its bookkeeping record, if any.
type MigrationStatus struct {
	ID         int        `json:"id"`
	Name       string     `json:"name"`
	Applied    bool       `json:"applied"`
	ExecutedAt *time.Time `json:"executed_at,omitempty"`
	Checksum   string     `json:"checksum"`
}

// createMigrationsTable is idempotent; the runner issues it at the start of
// every run. The uniqueness constraint on migration_id is the second line
// of defense behind the applied-set pre-check.
const createMigrationsTable = `CREATE TABLE IF NOT EXISTS migrations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	migration_id INTEGER NOT NULL UNIQUE,
	name TEXT NOT NULL,
	executed_at TEXT NOT NULL,
	checksum TEXT NOT NULL,
	created_at TEXT NOT NULL DEFAULT (datetime('now')),
	updated_at TEXT NOT NULL DEFAULT (datetime('now'))
)`

// Migrations parses the embedded definitions, ordered by ascending id.
func Migrations() ([]Migration, error) {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	var defs []Migration
	for _, entry := range entries {
		match := migrationFile.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, fmt.Errorf("migration file %q does not match NNN_name.sql", entry.Name())
		}
		id, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, fmt.Errorf("migration file %q: %w", entry.Name(), err)
		}

		raw, err := migrationFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading migration %q: %w", entry.Name(), err)
		}

		up, down, _ := strings.Cut(string(raw), downMarker)
		defs = append(defs, Migration{
			ID:   id,
			Name: match[2],
			Up:   strings.TrimSpace(up),
			Down: strings.TrimSpace(down),
		})
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// RunMigrations ensures the bookkeeping table exists and applies every
// pending built-in migration in ascending id order. The first failure halts
// the run; already-applied migrations are never re-run. Safe to call on
// every startup.
func (d *Database) RunMigrations(ctx context.Context) error {
	defs, err := Migrations()
	if err != nil {
		return err
	}
	return d.runMigrations(ctx, defs)
}

func (d *Database) runMigrations(ctx context.Context, defs []Migration) error {
	if _, err := d.Execute(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("ensuring migrations table: %w", err)
	}

	applied, err := d.appliedMigrationIDs(ctx)
	if err != nil {
		return err
	}

	ran := 0
	for _, def := range defs {
		if applied[def.ID] {
			continue
		}
		if err := d.applyMigration(ctx, def); err != nil {
			d.log.Error().Err(err).Int("migration_id", def.ID).Str("name", def.Name).
				Msg("migration failed, halting run")
			return err
		}
		ran++
	}

	if ran == 0 {
		d.log.Info().Int("migrations", len(defs)).Msg("database schema up to date")
	} else {
		d.log.Info().Int("applied", ran).Int("migrations", len(defs)).
			Msg("applied pending migrations")
	}
	return nil
}

// applyMigration runs one up script statement by statement through the
// executor (so each statement gets the retry treatment) and then inserts
// the bookkeeping record.
func (d *Database) applyMigration(ctx context.Context, def Migration) error {
	d.log.Info().Int("migration_id", def.ID).Str("name", def.Name).Msg("applying migration")

	for _, stmt := range splitStatements(def.Up) {
		if _, err := d.Execute(ctx, stmt); err != nil {
			return errs.NewMigrationError(def.ID, def.Name, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := d.Execute(ctx,
		`INSERT INTO migrations (migration_id, name, executed_at, checksum, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		def.ID, def.Name, now, def.Checksum(), now, now,
	)
	if err != nil {
		return errs.NewMigrationError(def.ID, def.Name, err)
	}
	return nil
}

// GetMigrationStatus joins the built-in definitions against the bookkeeping
// table.
func (d *Database) GetMigrationStatus(ctx context.Context) ([]MigrationStatus, error) {
	defs, err := Migrations()
	if err != nil {
		return nil, err
	}

	res, err := d.Query(ctx, "SELECT migration_id, executed_at FROM migrations")
	if err != nil {
		return nil, err
	}

	executed := make(map[int]*time.Time, len(res.Rows))
	for _, row := range res.Rows {
		id := rowInt(row, "migration_id")
		if ts, ok := row["executed_at"].(string); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				executed[id] = &t
				continue
			}
		}
		executed[id] = nil
	}

	statuses := make([]MigrationStatus, 0, len(defs))
	for _, def := range defs {
		at, applied := executed[def.ID]
		statuses = append(statuses, MigrationStatus{
			ID:         def.ID,
			Name:       def.Name,
			Applied:    applied,
			ExecutedAt: at,
			Checksum:   def.Checksum(),
		})
	}
	return statuses, nil
}

// RollbackMigration is a deliberate scope boundary: down scripts are parsed
// and stored, never executed.
func (d *Database) RollbackMigration(ctx context.Context, id int) error {
	return fmt.Errorf("rollback of migration %d: %w", id, errs.ErrNotImplemented)
}

// ValidateSchema is a deliberate scope boundary: no schema introspection.
func (d *Database) ValidateSchema(ctx context.Context) error {
	return fmt.Errorf("schema validation: %w", errs.ErrNotImplemented)
}

func (d *Database) appliedMigrationIDs(ctx context.Context) (map[int]bool, error) {
	res, err := d.Query(ctx, "SELECT migration_id FROM migrations")
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(res.Rows))
	for _, row := range res.Rows {
		applied[rowInt(row, "migration_id")] = true
	}
	return applied, nil
}

// splitStatements breaks a script on statement-terminating semicolons. The
// embedded migration scripts keep semicolons out of literals, so a simple
// split is sufficient.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// rowInt reads an integer column regardless of whether the adapter decoded
// it as int64 (sqlite) or float64 (JSON wire).
func rowInt(row map[string]any, col string) int {
	switch v := row[col].(type) {
	case int64:
		return int(v)
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
