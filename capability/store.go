// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capability

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// Store persists grants in account_permission.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Load returns the permissions granted to accountID.
func (s *Store) Load(ctx context.Context, accountID string) (Set, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT permission FROM account_permission WHERE account_id = $1
	`, accountID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	set := Set{}
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, apperr.Storage(err)
		}
		// Tags retired from the catalog are ignored rather than failing the request
		if p, err := Parse(tag); err == nil {
			set[p] = struct{}{}
		}
	}
	return set, apperr.Storage(rows.Err())
}

// Grant gives target permission p. The actor must hold manage_permissions.
func (s *Store) Grant(ctx context.Context, actor Principal, targetID string, p Permission) error {
	if err := RequirePermission(actor, ManagePermissions); err != nil {
		return err
	}
	if _, err := Parse(string(p)); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, targetID); err != nil {
		return err
	}
	if err := s.insert(ctx, targetID, p, actor.AccountID()); err != nil {
		return err
	}
	slog.Info("permission granted", "account_id", targetID, "permission", p, "granted_by", actor.AccountID())
	return nil
}

// Revoke removes permission p from target. The actor must hold manage_permissions.
func (s *Store) Revoke(ctx context.Context, actor Principal, targetID string, p Permission) error {
	if err := RequirePermission(actor, ManagePermissions); err != nil {
		return err
	}
	if _, err := Parse(string(p)); err != nil {
		return err
	}
	if err := s.requireAdmin(ctx, targetID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM account_permission WHERE account_id = $1 AND permission = $2
	`, targetID, string(p))
	if err != nil {
		return apperr.Storage(err)
	}
	slog.Info("permission revoked", "account_id", targetID, "permission", p, "revoked_by", actor.AccountID())
	return nil
}

// Bootstrap grants perms without an actor check. Only for account
// creation paths whose caller has already been authorized (or the
// operator CLI, which has direct database authority).
func (s *Store) Bootstrap(ctx context.Context, targetID, grantedBy string, perms ...Permission) error {
	if err := s.requireAdmin(ctx, targetID); err != nil {
		return err
	}
	for _, p := range perms {
		if _, err := Parse(string(p)); err != nil {
			return err
		}
		if err := s.insert(ctx, targetID, p, grantedBy); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insert(ctx context.Context, targetID string, p Permission, grantedBy string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_permission (account_id, permission, granted_by, granted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, permission) DO NOTHING
	`, targetID, string(p), grantedBy, s.now())
	return apperr.Storage(err)
}

func (s *Store) requireAdmin(ctx context.Context, accountID string) error {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM account WHERE id = $1`, accountID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("account not found")
	}
	if err != nil {
		return apperr.Storage(err)
	}
	if role != models.RoleAdmin {
		return apperr.Invalid("permissions can only be granted to admin accounts")
	}
	return nil
}
