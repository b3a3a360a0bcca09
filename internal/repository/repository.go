// Package repository handles all interactions with the database.
//
// It contains raw SQL queries and methods to fetch, persist, or update
// data, abstracting SQL logic away from the service layer. Every method
// goes through the resilient executor in internal/database; listing
// methods assemble their fragments with the clause builder.
package repository

import (
	"strconv"
	"time"

	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/store"
)

// Repositories is the container for all repository instances, wired once at
// startup and shared by the service layer.
type Repositories struct {
	Users     *UserRepository
	Sessions  *SessionRepository
	AuditLogs *AuditLogRepository
	Config    *ConfigRepository
}

// NewRepositories constructs the repository container over the shared
// data-access layer.
func NewRepositories(db *database.Database) *Repositories {
	return &Repositories{
		Users:     &UserRepository{db: db},
		Sessions:  &SessionRepository{db: db},
		AuditLogs: &AuditLogRepository{db: db},
		Config:    &ConfigRepository{db: db},
	}
}

// Row decoding helpers. The store returns rows as column→value maps whose
// concrete types depend on the adapter (int64 from sqlite, float64 off the
// JSON wire), so repositories normalize here instead of in every scan.

func rowString(row store.Row, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func rowBool(row store.Row, col string) bool {
	switch v := row[col].(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

func rowTime(row store.Row, col string) time.Time {
	if s := rowString(row, col); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
