// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package lockout keeps time-boxed lock state per account.
//
// A lock is a row in account_lock. It expires implicitly: once now is at
// or past locked_until the account reads as unlocked, and nothing sweeps
// or rewrites the row. Unlock clears it immediately.
package lockout

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// MaxDurationMinutes caps a single lock at one year.
const MaxDurationMinutes = 365 * 24 * 60

type Manager struct {
	db  *sql.DB
	now func() time.Time
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the clock, for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Lock locks accountID for durationMinutes from now, replacing any
// existing lock.
func (m *Manager) Lock(ctx context.Context, accountID string, durationMinutes int) (models.AccountLock, error) {
	if durationMinutes <= 0 || durationMinutes > MaxDurationMinutes {
		return models.AccountLock{}, apperr.Invalid("duration_minutes must be between 1 and 525600")
	}
	if err := m.requireAccount(ctx, accountID); err != nil {
		return models.AccountLock{}, err
	}

	now := m.now()
	until := now.Add(time.Duration(durationMinutes) * time.Minute)
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO account_lock (account_id, is_locked, locked_until)
		VALUES ($1, TRUE, $2)
		ON CONFLICT (account_id) DO UPDATE SET is_locked = TRUE, locked_until = excluded.locked_until
	`, accountID, until)
	if err != nil {
		return models.AccountLock{}, apperr.Storage(err)
	}

	slog.Info("account locked", "account_id", accountID, "locked_until", until)
	return view(accountID, true, until, now), nil
}

// Unlock clears any lock on accountID regardless of remaining time.
func (m *Manager) Unlock(ctx context.Context, accountID string) error {
	if err := m.requireAccount(ctx, accountID); err != nil {
		return err
	}
	_, err := m.db.ExecContext(ctx, `
		UPDATE account_lock SET is_locked = FALSE WHERE account_id = $1
	`, accountID)
	if err != nil {
		return apperr.Storage(err)
	}
	slog.Info("account unlocked", "account_id", accountID)
	return nil
}

// IsLocked reports whether accountID is locked right now, and for how much longer.
func (m *Manager) IsLocked(ctx context.Context, accountID string) (bool, time.Duration, error) {
	st, err := m.Status(ctx, accountID)
	if err != nil {
		return false, 0, err
	}
	return st.IsLocked, time.Duration(st.RemainingSeconds) * time.Second, nil
}

// Status returns the effective lock state. An expired lock reads as unlocked.
func (m *Manager) Status(ctx context.Context, accountID string) (models.AccountLock, error) {
	var locked bool
	var until time.Time
	err := m.db.QueryRowContext(ctx, `
		SELECT is_locked, locked_until FROM account_lock WHERE account_id = $1
	`, accountID).Scan(&locked, &until)
	if errors.Is(err, sql.ErrNoRows) {
		return models.AccountLock{AccountID: accountID}, nil
	}
	if err != nil {
		return models.AccountLock{}, apperr.Storage(err)
	}
	return view(accountID, locked, until, m.now()), nil
}

func (m *Manager) requireAccount(ctx context.Context, accountID string) error {
	var one int
	err := m.db.QueryRowContext(ctx, `SELECT 1 FROM account WHERE id = $1`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("account not found")
	}
	return apperr.Storage(err)
}

func view(accountID string, locked bool, until, now time.Time) models.AccountLock {
	if !locked || !now.Before(until) {
		return models.AccountLock{AccountID: accountID}
	}
	// Round up so a lock with 200ms left still reports 1s
	remaining := until.Sub(now)
	secs := int64((remaining + time.Second - 1) / time.Second)
	return models.AccountLock{
		AccountID:        accountID,
		IsLocked:         true,
		LockedUntil:      until,
		RemainingSeconds: secs,
	}
}
