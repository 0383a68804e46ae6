// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (duration_ms),
and records rmt_http_request_duration_seconds.

# Identity, CSRF and Permissions

Protected routes are composed in this order:

	sec.WithIdentity(sec.RequireCSRF(middleware.RequirePermission(capability.ManageAccounts)(handler)))

WithIdentity resolves the caller (401 for a bad token, 423 for a locked
account). RequireCSRF checks X-CSRF-Token on POST, PUT, PATCH and DELETE
before anything else looks at the request, so a forged request learns
nothing about the caller's permissions. RequirePermission, RequireAdmin,
RequireAccount and RequireIdentity gate by caller kind.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type, Authorization, X-CSRF-Token, X-Anon-Token.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.WriteError(w, err) // apperr code -> status, Retry-After

Parse JSON request bodies:

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Votes store an HMAC of it for abuse review.
*/
package middleware
