// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Rate My Teacher API.

# Handler Types

Each handler is a struct holding the shared Services and config:

  - AuthHandler: CSRF issue, register, login, logout, me
  - TeachersHandler: Public teacher reads and admin CRUD
  - VotingHandler: Submit, update, delete and look up the caller's vote
  - ResultsHandler: Live aggregate per teacher
  - AdminHandler: Vote moderation, points, account locks, permissions

Services wires every domain component once against the database:

	svc := handlers.NewServices(db, cfg, csrf.NewMemoryStore(), nil)
	votingHandler := handlers.NewVotingHandler(svc, cfg)

# Identity

Handlers read the caller from the request context, where the router's
identity middleware put it:

	caller := identity.FromContext(r.Context())

Anonymous callers are identified by the rmt_anon cookie or the
X-Anon-Token header; accounts by a Bearer token from /auth/login.

# Voting Flow

	GET  /csrf                        → IssueCsrf (creates anon cookie if needed)
	POST /teachers/{id}/votes         → SubmitVote (X-CSRF-Token required)
	GET  /teachers/{id}/votes/mine    → GetMyVote
	PUT  /votes/{voteId}              → UpdateVote (owner only)
	DELETE /teachers/{id}/votes/mine  → DeleteMyVote

Account voters receive vote_cast points once per teacher and any badges
the vote unlocks.

# Admin Operations

Admin routes are gated by permission in the router and again inside
each handler method, so moving a route never drops its check.
*/
package handlers
