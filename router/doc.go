// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Rate My Teacher API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	svc := handlers.NewServices(db, cfg, csrfStore, tiers)
	mux := router.NewRouter(svc, cfg)

# Middleware Order

Every API route runs, outermost first:

	WithLogging → WithIdentity → RequireCSRF → RequirePermission → handler

RequireCSRF only acts on POST, PUT, PATCH and DELETE, so a forged admin
request fails with 403 csrf_invalid before its permission is looked at.

# Endpoints

Health and metrics:

	GET /health
	GET /metrics

Session (CSRF required on POST):

	GET  /csrf          - Issue CSRF token, creating an anonymous session if needed
	POST /auth/register - Create user account
	POST /auth/login    - Log in (401 rejected, 423 locked out)
	POST /auth/logout   - Revoke session
	GET  /me            - Account, balance, badges

Teachers and voting:

	GET    /teachers                 - List with aggregates
	GET    /teachers/{id}            - One teacher with aggregate
	GET    /teachers/{id}/aggregate  - Live aggregate
	POST   /teachers/{id}/votes      - Submit vote
	GET    /teachers/{id}/votes/mine - Has the caller voted
	DELETE /teachers/{id}/votes/mine - Remove own vote
	PUT    /votes/{voteId}           - Edit own vote

Admin (permission in parentheses):

	GET    /admin/permissions                             - Caller's permissions
	POST   /admin/teachers                                - (manage_teachers)
	PUT    /admin/teachers/{id}                           - (manage_teachers)
	DELETE /admin/teachers/{id}                           - (manage_teachers)
	GET    /admin/votes?teacher_id=                       - (view_votes)
	DELETE /admin/votes/{voteId}                          - (manage_votes)
	POST   /admin/accounts                                - (manage_accounts)
	GET    /admin/accounts/{id}/points                    - (view_points)
	POST   /admin/accounts/{id}/points                    - (manage_accounts)
	PUT    /admin/accounts/{id}/points                    - (manage_accounts)
	GET    /admin/accounts/{id}/lock                      - (manage_accounts)
	POST   /admin/accounts/{id}/lock                      - (manage_accounts)
	POST   /admin/accounts/{id}/unlock                    - (manage_accounts)
	POST   /admin/accounts/{id}/permissions               - (manage_permissions)
	DELETE /admin/accounts/{id}/permissions/{permission}  - (manage_permissions)
*/
package router
