// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package capability

import (
	"log/slog"
	"sort"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/metrics"
)

type Permission string

const (
	ManageTeachers    Permission = "manage_teachers"
	ViewVotes         Permission = "view_votes"
	ManageVotes       Permission = "manage_votes"
	ManageAccounts    Permission = "manage_accounts"
	ManagePermissions Permission = "manage_permissions"
	ManageSettings    Permission = "manage_settings"
	ManageBadges      Permission = "manage_badges"
	ViewPoints        Permission = "view_points"
	ManageCorrections Permission = "manage_corrections"
	ViewDashboard     Permission = "view_dashboard"
)

// All lists every defined permission in display order.
var All = []Permission{
	ManageTeachers,
	ViewVotes,
	ManageVotes,
	ManageAccounts,
	ManagePermissions,
	ManageSettings,
	ManageBadges,
	ViewPoints,
	ManageCorrections,
	ViewDashboard,
}

func Parse(s string) (Permission, error) {
	for _, p := range All {
		if string(p) == s {
			return p, nil
		}
	}
	return "", apperr.Invalid("unknown permission: " + s)
}

// Set is an immutable-by-convention permission set.
type Set map[Permission]struct{}

func NewSet(perms ...Permission) Set {
	s := make(Set, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Strings returns the tags sorted, for responses and logs.
func (s Set) Strings() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Principal is whatever the identity resolver attached to the request.
// Permissions must come from server-side state, never from the client.
type Principal interface {
	AccountID() string
	IsAdmin() bool
	Permissions() Set
}

// HasPermission is false for anonymous callers and non-admin accounts.
func HasPermission(who Principal, p Permission) bool {
	if who == nil || !who.IsAdmin() {
		return false
	}
	return who.Permissions().Has(p)
}

// RequirePermission returns Forbidden when who lacks p.
func RequirePermission(who Principal, p Permission) error {
	if HasPermission(who, p) {
		return nil
	}
	account := ""
	if who != nil {
		account = who.AccountID()
	}
	metrics.PermissionDenials.WithLabelValues(string(p)).Inc()
	slog.Warn("permission denied", "account_id", account, "permission", p)
	return apperr.Forbidden("missing permission " + string(p))
}
