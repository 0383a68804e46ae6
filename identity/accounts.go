// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/models"
)

const maxEmailLength = 254

type Accounts struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccounts(conn *sql.DB) *Accounts {
	return &Accounts{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

// NormalizeEmail trims and lowercases an address, rejecting obvious junk.
func NormalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 || len(email) > maxEmailLength || strings.ContainsAny(email, " \t\r\n") {
		return "", apperr.Invalid("a valid email is required")
	}
	return email, nil
}

// Create stores a new account with a bcrypt hash of password.
func (a *Accounts) Create(ctx context.Context, email, password, role string) (models.Account, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return models.Account{}, err
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return models.Account{}, apperr.Invalid("role must be user or admin")
	}
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooShort) {
		return models.Account{}, apperr.Invalid("password must be at least 8 characters")
	}
	if err != nil {
		return models.Account{}, apperr.Storage(err)
	}

	acct := models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		CreatedAt: a.now(),
	}
	_, err = a.db.ExecContext(ctx, `
		INSERT INTO account (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.Email, hash, acct.Role, acct.CreatedAt)
	if db.IsUniqueViolation(err) {
		return models.Account{}, apperr.Invalid("email already registered")
	}
	if err != nil {
		return models.Account{}, apperr.Storage(err)
	}
	return acct, nil
}

func (a *Accounts) Get(ctx context.Context, id string) (models.Account, error) {
	acct, _, err := a.scanOne(ctx, `SELECT id, email, role, created_at, password_hash FROM account WHERE id = $1`, id)
	return acct, err
}

// ByEmail also returns the stored password hash.
func (a *Accounts) ByEmail(ctx context.Context, email string) (models.Account, string, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return models.Account{}, "", apperr.NotFound("account not found")
	}
	return a.scanOne(ctx, `SELECT id, email, role, created_at, password_hash FROM account WHERE email = $1`, email)
}

func (a *Accounts) Delete(ctx context.Context, id string) error {
	_, err := a.db.ExecContext(ctx, `DELETE FROM account WHERE id = $1`, id)
	return apperr.Storage(err)
}

func (a *Accounts) scanOne(ctx context.Context, query, arg string) (models.Account, string, error) {
	var acct models.Account
	var hash string
	err := a.db.QueryRowContext(ctx, query, arg).Scan(&acct.ID, &acct.Email, &acct.Role, &acct.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Account{}, "", apperr.NotFound("account not found")
	}
	if err != nil {
		return models.Account{}, "", apperr.Storage(err)
	}
	return acct, hash, nil
}
