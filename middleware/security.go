// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/csrf"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/metrics"
)

// Resolver is implemented by identity.Resolver.
type Resolver interface {
	Resolve(r *http.Request) (*identity.Identity, error)
}

// CsrfVerifier is implemented by csrf.Guard.
type CsrfVerifier interface {
	Verify(ctx context.Context, session, presented string) bool
}

// Security holds the collaborators of the identity and CSRF middleware.
type Security struct {
	Resolver Resolver
	Csrf     CsrfVerifier
}

// WithIdentity resolves the caller and stores it in the request context.
// Requests without credentials pass through with no identity; bad
// credentials stop here (401, or 423 for a locked account).
func (s *Security) WithIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Resolver.Resolve(r)
		if err != nil {
			WriteError(w, err)
			return
		}
		if id != nil {
			r = r.WithContext(identity.NewContext(r.Context(), id))
		}
		next(w, r)
	}
}

// RequireCSRF rejects state-changing requests whose X-CSRF-Token does not
// match the token issued to the caller's session. It runs before any
// permission check.
func (s *Security) RequireCSRF(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !isStateChanging(r.Method) {
			next(w, r)
			return
		}

		id := identity.FromContext(r.Context())
		if id == nil {
			WriteError(w, apperr.ErrUnauthenticated)
			return
		}
		if !s.Csrf.Verify(r.Context(), id.SessionKey(), r.Header.Get(csrf.HeaderName)) {
			metrics.CsrfRejections.Inc()
			slog.Warn("csrf rejected", "method", r.Method, "path", r.URL.Path, "kind", id.Kind)
			WriteError(w, apperr.ErrCsrfInvalid)
			return
		}
		next(w, r)
	}
}

// RequireIdentity needs an anonymous or account caller.
func RequireIdentity(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if identity.FromContext(r.Context()) == nil {
			WriteError(w, apperr.ErrUnauthenticated)
			return
		}
		next(w, r)
	}
}

// RequireAccount needs a logged-in caller.
func RequireAccount(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identity.FromContext(r.Context())
		if id == nil || id.IsAnonymous() {
			WriteError(w, apperr.ErrUnauthenticated)
			return
		}
		next(w, r)
	}
}

// RequireAdmin needs a logged-in admin, whatever permissions it holds.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return RequireAccount(func(w http.ResponseWriter, r *http.Request) {
		if !identity.FromContext(r.Context()).IsAdmin() {
			WriteError(w, apperr.Forbidden("admin account required"))
			return
		}
		next(w, r)
	})
}

// RequirePermission needs an admin holding p. Handlers repeat the check
// themselves; this only rejects earlier.
func RequirePermission(p capability.Permission) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return RequireAccount(func(w http.ResponseWriter, r *http.Request) {
			if err := capability.RequirePermission(identity.FromContext(r.Context()), p); err != nil {
				WriteError(w, err)
				return
			}
			next(w, r)
		})
	}
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
