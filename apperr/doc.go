// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by every domain package.

# Codes

Each failure carries a Code that tells the caller what went wrong and
whether retrying can help:

	invalid_input        malformed rating, payload, or amount
	duplicate_vote       identity already rated this teacher
	not_owner            identity did not cast the vote it is editing
	explicit_content     anonymous comment matched the denylist
	forbidden            permission missing
	csrf_invalid         anti-forgery token missing or stale
	not_found            unknown teacher, vote, or account
	unauthenticated      no identity on a request that needs one
	rejected             bad credentials
	locked_out           account lock active (RetryAfter is set)
	storage_unavailable  the database failed; retryable

Errors compare by code, so wrapped values still match the sentinels:

	if errors.Is(err, apperr.ErrDuplicateVote) { ... }

# HTTP

Status maps a code to the status the transport must use. CSRF failures
share 403 with Forbidden so a forged request cannot tell them apart by
status alone.
*/
package apperr
