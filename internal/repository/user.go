package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/errs"
	"github.com/statelayer/edgebase/internal/sqlerr"
	"github.com/statelayer/edgebase/internal/store"
)

// User is an account row.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserFilter narrows List. Zero values mean "no constraint".
type UserFilter struct {
	Emails     []string
	ActiveOnly bool
	Limit      int
	Offset     int
}

// UserRepository persists users.
type UserRepository struct {
	db *database.Database
}

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = fmt.Errorf("email already registered")

// Create inserts a new user. An empty ID gets a generated UUID; timestamps
// are stamped here.
func (r *UserRepository) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.db.Execute(ctx,
		`INSERT INTO users (id, email, name, password_hash, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, boolInt(u.IsActive), formatTime(now), formatTime(now),
	)
	if err != nil {
		if sqlerr.IsDuplicate(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

// GetByID returns the user or errs.ErrNotFound.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*User, error) {
	res, err := r.db.QueryOne(ctx, "SELECT * FROM users WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if res.Row == nil {
		return nil, errs.ErrNotFound
	}
	return scanUser(res.Row), nil
}

// GetByEmail returns the user or errs.ErrNotFound.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	res, err := r.db.QueryOne(ctx, "SELECT * FROM users WHERE email = ?", email)
	if err != nil {
		return nil, err
	}
	if res.Row == nil {
		return nil, errs.ErrNotFound
	}
	return scanUser(res.Row), nil
}

// List returns users matching the filter, newest first.
func (r *UserRepository) List(ctx context.Context, f UserFilter) ([]User, error) {
	var conds []database.Condition
	if len(f.Emails) > 0 {
		conds = append(conds, database.Condition{Column: "email", Operator: "IN", Value: f.Emails})
	}
	if f.ActiveOnly {
		conds = append(conds, database.Condition{Column: "is_active", Operator: "=", Value: 1})
	}

	where := database.BuildWhere(conds)
	order := database.BuildOrderBy([]database.OrderSpec{{Column: "created_at", Direction: "DESC"}})

	var limit, offset *int
	if f.Limit > 0 {
		limit = &f.Limit
	}
	if f.Offset > 0 {
		offset = &f.Offset
	}

	sql := joinSQL("SELECT * FROM users", where.Clause, order, database.BuildLimit(limit, offset))
	res, err := r.db.Query(ctx, sql, where.Params...)
	if err != nil {
		return nil, err
	}

	users := make([]User, 0, len(res.Rows))
	for _, row := range res.Rows {
		users = append(users, *scanUser(row))
	}
	return users, nil
}

// Update rewrites the mutable fields of the user.
func (r *UserRepository) Update(ctx context.Context, u *User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.Execute(ctx,
		`UPDATE users SET email = ?, name = ?, password_hash = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		u.Email, u.Name, u.PasswordHash, boolInt(u.IsActive), formatTime(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return err
	}
	if res.Meta.Changes == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes the user; sessions cascade at the schema level.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Execute(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return err
	}
	if res.Meta.Changes == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func scanUser(row store.Row) *User {
	return &User{
		ID:           rowString(row, "id"),
		Email:        rowString(row, "email"),
		Name:         rowString(row, "name"),
		PasswordHash: rowString(row, "password_hash"),
		IsActive:     rowBool(row, "is_active"),
		CreatedAt:    rowTime(row, "created_at"),
		UpdatedAt:    rowTime(row, "updated_at"),
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// joinSQL glues non-empty fragments with single spaces.
func joinSQL(parts ...string) string {
	sql := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if sql != "" {
			sql += " "
		}
		sql += p
	}
	return sql
}
