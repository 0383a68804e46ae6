// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// Identity is the resolved caller of one request.
type Identity struct {
	Kind string // models.KindAnonymous or models.KindAccount

	// Anonymous callers
	AnonToken string

	// Account callers
	Account   *models.Account
	SessionID string
	perms     capability.Set
}

func Anonymous(token string) *Identity {
	return &Identity{Kind: models.KindAnonymous, AnonToken: token}
}

func Authenticated(acct models.Account, sessionID string, perms capability.Set) *Identity {
	if perms == nil || acct.Role != models.RoleAdmin {
		perms = capability.Set{}
	}
	return &Identity{Kind: models.KindAccount, Account: &acct, SessionID: sessionID, perms: perms}
}

func (id *Identity) IsAnonymous() bool { return id.Kind == models.KindAnonymous }

// String is the vote-deduplication key. Anonymous and account keys never collide.
func (id *Identity) String() string {
	if id.IsAnonymous() {
		return "anon:" + id.AnonToken
	}
	return AccountKey(id.Account.ID)
}

// AccountKey is the vote key of an account, usable without a resolved Identity.
func AccountKey(accountID string) string {
	return "acct:" + accountID
}

// SessionKey binds CSRF tokens. Account sessions are keyed by session
// id, so logging in again gets a fresh token.
func (id *Identity) SessionKey() string {
	if id.IsAnonymous() {
		return "anon:" + id.AnonToken
	}
	return "acct:" + id.SessionID
}

func (id *Identity) AccountID() string {
	if id == nil || id.Account == nil {
		return ""
	}
	return id.Account.ID
}

func (id *Identity) IsAdmin() bool {
	return id != nil && id.Account != nil && id.Account.Role == models.RoleAdmin
}

func (id *Identity) Permissions() capability.Set {
	if id == nil {
		return nil
	}
	return id.perms
}

type ctxKey struct{}

func NewContext(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns nil when the request carried no identity.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
