// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package capability maps admin operations to named permissions.

# Permissions

Ten tags are defined (see All). An admin account owns a Set of them,
granted when the account is created or later by an admin holding
manage_permissions.

# Checks

	if err := capability.RequirePermission(who, capability.ManageAccounts); err != nil {
		return err // apperr Forbidden
	}

Every mutating admin handler calls RequirePermission before doing any
work, regardless of which buttons the dashboard chose to show. Anonymous
callers and user accounts hold no permissions.

The Principal passed in must carry permissions resolved server-side for
the current request (see package identity). Nothing in a request body,
header or token payload is ever trusted as a permission.

# Storage

Store reads and writes account_permission. Grant and Revoke check the
actor themselves; Bootstrap is for already-authorized creation paths.
*/
package capability
