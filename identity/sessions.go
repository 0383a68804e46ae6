// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/rate-my-teacher/apperr"
)

type Session struct {
	ID        string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Live reports whether the session can still authenticate at now.
func (s Session) Live(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type Sessions struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSessions(conn *sql.DB, ttl time.Duration) *Sessions {
	return &Sessions{db: conn, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Sessions) Create(ctx context.Context, accountID string) (Session, error) {
	now := s.now()
	sess := Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID, sess.AccountID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return Session{}, apperr.Storage(err)
	}
	return sess, nil
}

func (s *Sessions) Get(ctx context.Context, id string) (Session, error) {
	var sess Session
	var revoked sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, created_at, expires_at, revoked_at FROM session WHERE id = $1
	`, id).Scan(&sess.ID, &sess.AccountID, &sess.CreatedAt, &sess.ExpiresAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, apperr.NotFound("session not found")
	}
	if err != nil {
		return Session{}, apperr.Storage(err)
	}
	if revoked.Valid {
		sess.RevokedAt = &revoked.Time
	}
	return sess, nil
}

func (s *Sessions) Revoke(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE session SET revoked_at = $1 WHERE id = $2 AND revoked_at IS NULL
	`, s.now(), id)
	return apperr.Storage(err)
}
