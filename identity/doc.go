// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity works out who is calling.

# Identity kinds

Anonymous callers carry a random 32-character token in the rmt_anon
cookie (browsers) or the X-Anon-Token header (other clients). Their vote
key is "anon:<token>".

Account callers send "Authorization: Bearer <jwt>". The JWT is signed
with HS256 and carries only the session id (sid) and account id (sub).
Every request re-reads the session, the account, its lock state and, for
admins, the permission set. Nothing about roles or permissions is taken
from the token. Their vote key is "acct:<account id>".

The two namespaces never merge: logging in does not adopt votes cast
anonymously from the same browser.

# Authentication

Authenticator.Login runs the state machine

	Unauthenticated -> Authenticating -> Authenticated
	                                  -> LockedOut (423, remaining time)
	                                  -> Rejected  (401)

Credentials are checked before the lock, so a wrong password says
nothing about lock state. Login never creates or extends a lock.
*/
package identity
