// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package csrf

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/auth"
)

// HeaderName carries the token on state-changing requests.
const HeaderName = "X-CSRF-Token"

// ErrNoToken is returned by stores when a session has no live token.
var ErrNoToken = errors.New("no csrf token for session")

// Store keeps one token per session key.
type Store interface {
	Put(ctx context.Context, session, token string, ttl time.Duration) error
	Get(ctx context.Context, session string) (string, error)
}

type Guard struct {
	store Store
	ttl   time.Duration
}

func NewGuard(store Store, ttl time.Duration) *Guard {
	return &Guard{store: store, ttl: ttl}
}

// Issue creates a fresh token for session. Any earlier token for the
// same session stops verifying.
func (g *Guard) Issue(ctx context.Context, session string) (string, error) {
	if session == "" {
		return "", apperr.Invalid("csrf session key is empty")
	}
	token, err := auth.GenerateToken()
	if err != nil {
		return "", apperr.Storage(err)
	}
	if err := g.store.Put(ctx, session, token, g.ttl); err != nil {
		return "", apperr.Storage(err)
	}
	return token, nil
}

// Verify reports whether presented equals the current token for session.
// Store failures count as a mismatch and are logged.
func (g *Guard) Verify(ctx context.Context, session, presented string) bool {
	if session == "" || presented == "" {
		return false
	}
	current, err := g.store.Get(ctx, session)
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			slog.Error("csrf store lookup failed", "error", err)
		}
		return false
	}
	return auth.TokensEqual(current, presented)
}
