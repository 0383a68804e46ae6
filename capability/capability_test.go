// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

type principal struct {
	id    string
	admin bool
	perms Set
}

func (p principal) AccountID() string { return p.id }
func (p principal) IsAdmin() bool     { return p.admin }
func (p principal) Permissions() Set  { return p.perms }

func TestCatalogHasTenPermissions(t *testing.T) {
	assert.Len(t, All, 10)
	assert.Len(t, NewSet(All...), 10, "tags must be distinct")
}

func TestRequirePermissionDeniesEveryTagToNonHolders(t *testing.T) {
	callers := map[string]Principal{
		"nil":              nil,
		"admin no perms":   principal{id: "a1", admin: true, perms: Set{}},
		"user with tags":   principal{id: "u1", admin: false, perms: NewSet(All...)},
		"admin other perm": principal{id: "a2", admin: true, perms: NewSet(ViewDashboard)},
	}

	for name, who := range callers {
		for _, p := range All {
			if name == "admin other perm" && p == ViewDashboard {
				continue
			}
			err := RequirePermission(who, p)
			require.Error(t, err, "%s / %s", name, p)
			assert.True(t, errors.Is(err, apperr.ErrForbidden), "%s / %s: got %v", name, p, err)
			assert.False(t, HasPermission(who, p))
		}
	}
}

func TestRequirePermissionAllowsHolder(t *testing.T) {
	who := principal{id: "a1", admin: true, perms: NewSet(ManageAccounts, ViewVotes)}

	assert.NoError(t, RequirePermission(who, ManageAccounts))
	assert.NoError(t, RequirePermission(who, ViewVotes))
	assert.Error(t, RequirePermission(who, ManageVotes))
}

func TestParse(t *testing.T) {
	p, err := Parse("manage_teachers")
	require.NoError(t, err)
	assert.Equal(t, ManageTeachers, p)

	_, err = Parse("manage_everything")
	assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
}

func TestSetStringsSorted(t *testing.T) {
	s := NewSet(ViewVotes, ManageAccounts, ViewDashboard)
	assert.Equal(t, []string{"manage_accounts", "view_dashboard", "view_votes"}, s.Strings())
}

func TestStoreGrantRevoke(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	root := testutil.CreateTestAdmin(t, conn, "root@example.com", string(ManagePermissions))
	target := testutil.CreateTestAdmin(t, conn, "ops@example.com")
	user := testutil.CreateTestAccount(t, conn, "user@example.com", models.RoleUser)

	actor := principal{id: root.ID, admin: true, perms: NewSet(ManagePermissions)}

	require.NoError(t, store.Grant(ctx, actor, target.ID, ManageAccounts))
	// Granting twice is a no-op
	require.NoError(t, store.Grant(ctx, actor, target.ID, ManageAccounts))

	set, err := store.Load(ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, set.Has(ManageAccounts))
	assert.Len(t, set, 1)

	require.NoError(t, store.Revoke(ctx, actor, target.ID, ManageAccounts))
	set, err = store.Load(ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, set)

	t.Run("actor without manage_permissions", func(t *testing.T) {
		weak := principal{id: target.ID, admin: true, perms: NewSet(ManageAccounts)}
		err := store.Grant(ctx, weak, target.ID, ManagePermissions)
		assert.ErrorIs(t, err, apperr.ErrForbidden)

		set, err := store.Load(ctx, target.ID)
		require.NoError(t, err)
		assert.False(t, set.Has(ManagePermissions))
	})

	t.Run("target is not an admin", func(t *testing.T) {
		err := store.Grant(ctx, actor, user.ID, ViewVotes)
		assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
	})

	t.Run("unknown target", func(t *testing.T) {
		err := store.Grant(ctx, actor, "nope", ViewVotes)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("unknown permission", func(t *testing.T) {
		err := store.Grant(ctx, actor, target.ID, Permission("root"))
		assert.Equal(t, apperr.CodeInvalidInput, apperr.CodeOf(err))
	})
}

func TestStoreBootstrap(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	store := NewStore(conn)
	ctx := context.Background()

	admin := testutil.CreateTestAdmin(t, conn, "first@example.com")
	require.NoError(t, store.Bootstrap(ctx, admin.ID, "ratectl", All...))

	set, err := store.Load(ctx, admin.ID)
	require.NoError(t, err)
	assert.Len(t, set, len(All))
}
