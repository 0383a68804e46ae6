// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package csrf issues and checks per-session anti-forgery tokens.

Each session key (see identity.Identity.SessionKey) has at most one live
token. Issue replaces it, so a token handed out earlier is rejected as
soon as a newer one exists.

	token, err := guard.Issue(ctx, id.SessionKey())
	...
	ok := guard.Verify(ctx, id.SessionKey(), r.Header.Get(csrf.HeaderName))

The comparison is constant time. MemoryStore is the default; RedisStore
is used when REDIS_ADDR is configured so tokens are shared across
replicas and survive restarts. Both expire tokens after the session TTL.
*/
package csrf
