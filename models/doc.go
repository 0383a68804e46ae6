// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateTeacherRequest / UpdateTeacherRequest: name, description, schedule, tags
  - SubmitVoteRequest / UpdateVoteRequest: rating (1-5), comment
  - RegisterRequest / LoginRequest: email, password
  - CreateAdminRequest: email, password, permissions
  - AwardPointsRequest: reason, delta
  - AdjustPointsRequest: balance
  - LockAccountRequest: duration_minutes
  - GrantPermissionRequest: permission

# Response Types

  - CsrfResponse: csrf_token, anon_token when a new anonymous session was created
  - AuthResponse: token, csrf_token, expires_at, account
  - SubmitVoteResponse: vote, aggregate (omitted if it could not be read), points_awarded, new_badges
  - VoteResponse: vote (omitted after a delete), aggregate
  - CreateAdminResponse: account, permissions
  - HasVotedResponse, ListTeachersResponse, ListVotesResponse
  - PointsResponse (new_badges after an admin change), PermissionsResponse, MeResponse
  - ErrorResponse: error, message

# Domain Types

  - Teacher: the rating subject
  - Account: user or admin
  - Vote: one rating per (teacher, identity); Identity is never serialized
  - AggregateView: average (nil when empty), count, distribution
  - PointsTransaction: one append-only ledger row
  - Badge: one (type, level) milestone
  - AccountLock: lock state with remaining time

# Constants

Roles: RoleUser, RoleAdmin. Identity kinds: KindAnonymous, KindAccount.
Points reasons: ReasonVoteCast, ReasonAdminAward, ReasonAdminAdjust.
Badge types: BadgeVoter, BadgeStreak, BadgePoints.
*/
package models
