package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/statelayer/edgebase/internal/database"
	"github.com/statelayer/edgebase/internal/errs"
	"github.com/statelayer/edgebase/internal/store"
)

// Session is one login session row. The token doubles as the primary key.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRepository persists sessions.
type SessionRepository struct {
	db *database.Database
}

// Create issues a new session for the user with the given lifetime.
func (r *SessionRepository) Create(ctx context.Context, userID string, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	s := &Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.db.Execute(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, formatTime(s.ExpiresAt), formatTime(s.CreatedAt),
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetByToken returns the session, expired or not, or errs.ErrNotFound.
func (r *SessionRepository) GetByToken(ctx context.Context, token string) (*Session, error) {
	res, err := r.db.QueryOne(ctx, "SELECT * FROM sessions WHERE token = ?", token)
	if err != nil {
		return nil, err
	}
	if res.Row == nil {
		return nil, errs.ErrNotFound
	}
	return scanSession(res.Row), nil
}

// Revoke deletes one session. Revoking an unknown token is not an error.
func (r *SessionRepository) Revoke(ctx context.Context, token string) error {
	_, err := r.db.Execute(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpired reaps sessions past their expiry and returns how many went.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.db.Execute(ctx,
		"DELETE FROM sessions WHERE expires_at < ?", formatTime(time.Now().UTC()))
	if err != nil {
		return 0, err
	}
	return res.Meta.Changes, nil
}

func scanSession(row store.Row) *Session {
	return &Session{
		Token:     rowString(row, "token"),
		UserID:    rowString(row, "user_id"),
		ExpiresAt: rowTime(row, "expires_at"),
		CreatedAt: rowTime(row, "created_at"),
	}
}
