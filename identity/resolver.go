// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
)

const (
	// AnonCookieName holds the anonymous tracking token for browsers.
	AnonCookieName = "rmt_anon"
	// AnonHeaderName carries the same token for non-browser clients.
	AnonHeaderName = "X-Anon-Token"

	anonTokenLength = 32
)

type Resolver struct {
	accounts *Accounts
	sessions *Sessions
	signer   *Signer
	locks    LockChecker
	perms    PermissionLoader
	now      func() time.Time
}

func NewResolver(accounts *Accounts, sessions *Sessions, signer *Signer, locks LockChecker, perms PermissionLoader) *Resolver {
	return &Resolver{
		accounts: accounts,
		sessions: sessions,
		signer:   signer,
		locks:    locks,
		perms:    perms,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolve returns the caller's identity, or nil when the request
// carries no credentials. A bearer token that does not resolve to a
// live session is an error, not a fallback to anonymous.
func (r *Resolver) Resolve(req *http.Request) (*Identity, error) {
	if h := req.Header.Get("Authorization"); h != "" {
		tok, ok := strings.CutPrefix(h, "Bearer ")
		if !ok {
			return nil, apperr.New(apperr.CodeUnauthenticated, "malformed authorization header")
		}
		return r.ResolveToken(req.Context(), strings.TrimSpace(tok))
	}

	if tok := AnonTokenFromRequest(req); tok != "" {
		return Anonymous(tok), nil
	}
	return nil, nil
}

// ResolveToken loads the session, account, lock state and, for admins,
// permissions behind a signed session token.
func (r *Resolver) ResolveToken(ctx context.Context, token string) (*Identity, error) {
	expired := apperr.New(apperr.CodeUnauthenticated, "invalid or expired session")

	claims, err := r.signer.Parse(token)
	if err != nil {
		return nil, expired
	}

	sess, err := r.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, expired
	}
	if err != nil {
		return nil, err
	}
	if !sess.Live(r.now()) || sess.AccountID != claims.Subject {
		return nil, expired
	}

	acct, err := r.accounts.Get(ctx, sess.AccountID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, expired
	}
	if err != nil {
		return nil, err
	}

	locked, remaining, err := r.locks.IsLocked(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperr.LockedOut("account is locked", remaining)
	}

	if acct.Role != models.RoleAdmin {
		return Authenticated(acct, sess.ID, nil), nil
	}
	perms, err := r.perms.Load(ctx, acct.ID)
	if err != nil {
		return nil, err
	}
	return Authenticated(acct, sess.ID, perms), nil
}

// AnonTokenFromRequest returns a well-formed anonymous token from the
// cookie or header, or "".
func AnonTokenFromRequest(req *http.Request) string {
	if c, err := req.Cookie(AnonCookieName); err == nil && validAnonToken(c.Value) {
		return c.Value
	}
	if h := req.Header.Get(AnonHeaderName); validAnonToken(h) {
		return h
	}
	return ""
}

func validAnonToken(tok string) bool {
	if len(tok) != anonTokenLength {
		return false
	}
	for _, c := range tok {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

// AnonCookie builds the cookie that pins an anonymous token to a browser.
func AnonCookie(token string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     AnonCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
