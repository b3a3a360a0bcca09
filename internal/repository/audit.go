package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/store"
)

// AuditLog is one append-only audit entry.
type AuditLog struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditLogRepository appends and lists audit entries. Entries are never
// updated or deleted.
type AuditLogRepository struct {
	db *database.Database
}

// Record appends one entry.
func (r *AuditLogRepository) Record(ctx context.Context, actor, action, details string) error {
	_, err := r.db.Execute(ctx,
		"INSERT INTO audit_logs (id, actor, action, details, created_at) VALUES (?, ?, ?, ?, ?)",
		uuid.NewString(), actor, action, details, formatTime(time.Now().UTC()),
	)
	return err
}

// List returns entries newest first, optionally narrowed to a set of
// actors and/or actions.
func (r *AuditLogRepository) List(ctx context.Context, actors, actions []string, limit int) ([]AuditLog, error) {
	var conds []database.Condition
	if len(actors) > 0 {
		conds = append(conds, database.Condition{Column: "actor", Operator: "IN", Value: actors})
	}
	if len(actions) > 0 {
		conds = append(conds, database.Condition{Column: "action", Operator: "IN", Value: actions})
	}

	where := database.BuildWhere(conds)
	order := database.BuildOrderBy([]database.OrderSpec{{Column: "created_at", Direction: "DESC"}})

	var lim *int
	if limit > 0 {
		lim = &limit
	}

	sql := joinSQL("SELECT * FROM audit_logs", where.Clause, order, database.BuildLimit(lim, nil))
	res, err := r.db.Query(ctx, sql, where.Params...)
	if err != nil {
		return nil, err
	}

	logs := make([]AuditLog, 0, len(res.Rows))
	for _, row := range res.Rows {
		logs = append(logs, *scanAuditLog(row))
	}
	return logs, nil
}

func scanAuditLog(row store.Row) *AuditLog {
	return &AuditLog{
		ID:        rowString(row, "id"),
		Actor:     rowString(row, "actor"),
		Action:    rowString(row, "action"),
		Details:   rowString(row, "details"),
		CreatedAt: rowTime(row, "created_at"),
	}
}
