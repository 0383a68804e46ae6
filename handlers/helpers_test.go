// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"testing"

	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/csrf"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

// setupServices returns a fresh database and the services wired to it
func setupServices(t *testing.T) (*sql.DB, *Services, cliparse.Config) {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	return conn, NewServices(conn, cfg, csrf.NewMemoryStore(), nil), cfg
}

// as attaches caller to the request the way the identity middleware does
func as(r *http.Request, caller *identity.Identity) *http.Request {
	if caller == nil {
		return r
	}
	return r.WithContext(identity.NewContext(r.Context(), caller))
}

func anonCaller(t *testing.T) *identity.Identity {
	t.Helper()
	tok, err := auth.GenerateToken()
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return identity.Anonymous(tok)
}

func userCaller(t *testing.T, conn *sql.DB, email string) *identity.Identity {
	t.Helper()
	acct := testutil.CreateTestAccount(t, conn, email, models.RoleUser)
	return identity.Authenticated(acct, "session-"+acct.ID, nil)
}

func adminCaller(t *testing.T, conn *sql.DB, email string, perms ...capability.Permission) *identity.Identity {
	t.Helper()
	tags := make([]string, len(perms))
	for i, p := range perms {
		tags[i] = string(p)
	}
	acct := testutil.CreateTestAdmin(t, conn, email, tags...)
	return identity.Authenticated(acct, "session-"+acct.ID, capability.NewSet(perms...))
}
