// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/metrics"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// LockChecker is the part of lockout.Manager authentication needs.
type LockChecker interface {
	IsLocked(ctx context.Context, accountID string) (bool, time.Duration, error)
}

// PermissionLoader is the part of capability.Store the resolver needs.
type PermissionLoader interface {
	Load(ctx context.Context, accountID string) (capability.Set, error)
}

// Login is the outcome of a successful authentication.
type Login struct {
	Token     string
	ExpiresAt time.Time
	Account   models.Account
	Identity  *Identity
}

// Authenticator runs Unauthenticated -> Authenticating -> {Authenticated | LockedOut | Rejected}.
type Authenticator struct {
	accounts *Accounts
	sessions *Sessions
	signer   *Signer
	locks    LockChecker
	perms    PermissionLoader
	now      func() time.Time
}

func NewAuthenticator(accounts *Accounts, sessions *Sessions, signer *Signer, locks LockChecker, perms PermissionLoader) *Authenticator {
	return &Authenticator{
		accounts: accounts,
		sessions: sessions,
		signer:   signer,
		locks:    locks,
		perms:    perms,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnPasswordCheck spends one bcrypt comparison so unknown emails take
// as long as wrong passwords.
func burnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		dummyHash, _ = auth.HashPassword("not-a-real-password")
	})
	_ = auth.CheckPassword(dummyHash, password)
}

// Login checks credentials first and lock state second. A locked account
// gets LockedOut with the remaining time; the attempt itself never
// starts or extends a lock.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*Login, error) {
	acct, hash, err := a.accounts.ByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		burnPasswordCheck(password)
		return nil, a.reject()
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(hash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			slog.Error("password check failed", "account_id", acct.ID, "error", err)
		}
		return nil, a.reject()
	}

	locked, remaining, err := a.locks.IsLocked(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		metrics.Logins.WithLabelValues("locked_out").Inc()
		now := a.now()
		hint := humanize.RelTime(now.Add(remaining), now, "ago", "from now")
		slog.Warn("login blocked by lock", "account_id", acct.ID, "remaining", remaining)
		return nil, apperr.LockedOut("account is locked, try again "+hint, remaining)
	}

	login, err := a.open(ctx, acct)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("authenticated").Inc()
	slog.Info("login", "account_id", acct.ID, "role", acct.Role)
	return login, nil
}

// Register creates a user account and logs it in.
func (a *Authenticator) Register(ctx context.Context, email, password string) (*Login, error) {
	acct, err := a.accounts.Create(ctx, email, password, models.RoleUser)
	if err != nil {
		return nil, err
	}
	slog.Info("account registered", "account_id", acct.ID)
	return a.open(ctx, acct)
}

// Logout revokes the caller's session. Anonymous callers have nothing to revoke.
func (a *Authenticator) Logout(ctx context.Context, id *Identity) error {
	if id == nil || id.IsAnonymous() {
		return apperr.ErrUnauthenticated
	}
	if err := a.sessions.Revoke(ctx, id.SessionID); err != nil {
		return err
	}
	slog.Info("logout", "account_id", id.AccountID())
	return nil
}

// CreateAdmin creates an admin account on behalf of actor. Granting
// initial permissions additionally needs manage_permissions.
func (a *Authenticator) CreateAdmin(ctx context.Context, actor capability.Principal, grants *capability.Store, email, password string, tags []string) (models.Account, capability.Set, error) {
	if err := capability.RequirePermission(actor, capability.ManageAccounts); err != nil {
		return models.Account{}, nil, err
	}
	perms := make([]capability.Permission, 0, len(tags))
	for _, tag := range tags {
		p, err := capability.Parse(tag)
		if err != nil {
			return models.Account{}, nil, err
		}
		perms = append(perms, p)
	}
	if len(perms) > 0 {
		if err := capability.RequirePermission(actor, capability.ManagePermissions); err != nil {
			return models.Account{}, nil, err
		}
	}

	acct, err := a.accounts.Create(ctx, email, password, models.RoleAdmin)
	if err != nil {
		return models.Account{}, nil, err
	}
	if err := grants.Bootstrap(ctx, acct.ID, actor.AccountID(), perms...); err != nil {
		if delErr := a.accounts.Delete(ctx, acct.ID); delErr != nil {
			slog.Error("failed to roll back admin account", "account_id", acct.ID, "error", delErr)
		}
		return models.Account{}, nil, err
	}
	slog.Info("admin account created", "account_id", acct.ID, "created_by", actor.AccountID(), "permissions", len(perms))
	return acct, capability.NewSet(perms...), nil
}

func (a *Authenticator) reject() error {
	metrics.Logins.WithLabelValues("rejected").Inc()
	slog.Warn("login rejected")
	return apperr.ErrRejected
}

func (a *Authenticator) open(ctx context.Context, acct models.Account) (*Login, error) {
	sess, err := a.sessions.Create(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	token, err := a.signer.Sign(sess.ID, acct.ID, sess.CreatedAt, sess.ExpiresAt)
	if err != nil {
		return nil, apperr.Storage(err)
	}

	var perms capability.Set
	if acct.Role == models.RoleAdmin {
		if perms, err = a.perms.Load(ctx, acct.ID); err != nil {
			return nil, err
		}
	}
	return &Login{
		Token:     token,
		ExpiresAt: sess.ExpiresAt,
		Account:   acct,
		Identity:  Authenticated(acct, sess.ID, perms),
	}, nil
}
