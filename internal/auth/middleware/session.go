package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SessionStore records issued tokens so logout can revoke them server-side.
type SessionStore struct{ db *sql.DB }

func NewSessionStore(db *sql.DB) *SessionStore { return &SessionStore{db: db} }

func (s *SessionStore) Create(ctx context.Context, id, userID string, issued, expires time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id,user_id,issued_at,expires_at) VALUES ($1,$2,$3,$4)`,
		id, userID, issued.Unix(), expires.Unix())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) Active(ctx context.Context, id string, now time.Time) (bool, error) {
	var (
		expires int64
		revoked sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `SELECT expires_at, revoked_at FROM sessions WHERE id=$1`, id).Scan(&expires, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return !revoked.Valid && now.Unix() < expires, nil
}

func (s *SessionStore) Revoke(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at=$1 WHERE id=$2 AND revoked_at IS NULL`, now.Unix(), id)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}
