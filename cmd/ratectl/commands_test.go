// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/lockout"
	"github.com/danielhkuo/rate-my-teacher/points"
)

func run(t *testing.T, dbURL string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--db", dbURL, "--db-type", cliparse.DatabaseSQLite}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func tempDB(t *testing.T) string {
	return "file:" + filepath.Join(t.TempDir(), "ratectl.db")
}

func TestCreateAdminAndGrant(t *testing.T) {
	url := tempDB(t)

	out, err := run(t, url, "create-admin", "--email", "Root@Example.com", "--password", "long-enough",
		"--perm", "manage_accounts", "--perm", "manage_permissions")
	require.NoError(t, err)
	assert.Contains(t, out, "created admin root@example.com")
	assert.Contains(t, out, "2 permission(s)")

	_, err = run(t, url, "grant", "root@example.com", "view_votes")
	require.NoError(t, err)
	_, err = run(t, url, "revoke", "root@example.com", "manage_accounts")
	require.NoError(t, err)

	conn, err := db.Open(cliparse.DatabaseSQLite, url)
	require.NoError(t, err)
	defer conn.Close()

	acct, _, err := identity.NewAccounts(conn).ByEmail(context.Background(), "root@example.com")
	require.NoError(t, err)
	set, err := capability.NewStore(conn).Load(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"manage_permissions", "view_votes"}, set.Strings())
}

func TestCreateAdminRejectsUnknownPermission(t *testing.T) {
	url := tempDB(t)

	_, err := run(t, url, "create-admin", "--email", "a@example.com", "--password", "long-enough", "--perm", "root")
	require.Error(t, err)

	// Nothing was created, so the same email is still free
	_, err = run(t, url, "create-admin", "--email", "a@example.com", "--password", "long-enough")
	require.NoError(t, err)
}

func TestGrantToUserFails(t *testing.T) {
	url := tempDB(t)
	_, err := run(t, url, "migrate")
	require.NoError(t, err)

	conn, err := db.Open(cliparse.DatabaseSQLite, url)
	require.NoError(t, err)
	_, err = identity.NewAccounts(conn).Create(context.Background(), "user@example.com", "long-enough", "user")
	require.NoError(t, err)
	conn.Close()

	_, err = run(t, url, "grant", "user@example.com", "view_votes")
	assert.Error(t, err)

	_, err = run(t, url, "grant", "nobody@example.com", "view_votes")
	assert.Error(t, err)
}

func TestLockUnlockAndAdjust(t *testing.T) {
	t.Setenv("BADGE_CONFIG", "")
	url := tempDB(t)
	_, err := run(t, url, "create-admin", "--email", "a@example.com", "--password", "long-enough")
	require.NoError(t, err)

	out, err := run(t, url, "lock", "a@example.com", "--minutes", "30")
	require.NoError(t, err)
	assert.Contains(t, out, "locked a@example.com")

	conn, err := db.Open(cliparse.DatabaseSQLite, url)
	require.NoError(t, err)
	acct, _, err := identity.NewAccounts(conn).ByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	locked, _, err := lockout.NewManager(conn).IsLocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.True(t, locked)
	conn.Close()

	_, err = run(t, url, "unlock", acct.ID)
	require.NoError(t, err)

	_, err = run(t, url, "lock", acct.ID, "--minutes", "0")
	assert.Error(t, err)

	out, err = run(t, url, "points", "adjust", acct.ID, "--balance", "1200")
	require.NoError(t, err)
	assert.Contains(t, out, "1,200")
	assert.Contains(t, out, "badge earned: points level 3")

	out, err = run(t, url, "points", "adjust", acct.ID, "--balance", "1200")
	require.NoError(t, err)
	assert.Contains(t, out, "already has")
	assert.NotContains(t, out, "badge earned")

	_, err = run(t, url, "points", "adjust", acct.ID, "--balance", "2000000")
	assert.Error(t, err)

	_, err = run(t, url, "points", "adjust", acct.ID, "--balance=-5")
	assert.Error(t, err)

	conn, err = db.Open(cliparse.DatabaseSQLite, url)
	require.NoError(t, err)
	defer conn.Close()
	balance, err := points.NewLedger(conn, keylock.New()).Balance(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), balance)
	locked, _, err = lockout.NewManager(conn).IsLocked(context.Background(), acct.ID)
	require.NoError(t, err)
	assert.False(t, locked)

	out, err = run(t, url, "points", "show", acct.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "admin_adjust")
	assert.Contains(t, out, "balance: 1,200")
}
