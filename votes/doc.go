// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package votes records teacher ratings and computes their aggregates.

# One vote per identity

A vote is keyed by (teacher, identity) where identity is "anon:<token>"
or "acct:<account id>". Submit, Update and Delete serialize on that key
with a keylock.Map, and UNIQUE(teacher_id, identity) backs it up across
processes; a constraint violation is reported as DuplicateVote.

Submit validates before touching storage:

	rating outside 1..5                 -> InvalidInput
	comment over 1000 characters        -> InvalidInput
	explicit comment, anonymous voter   -> ExplicitContent
	explicit comment, account voter     -> stored with is_explicit = true
	unknown teacher                     -> NotFound
	existing vote for the pair          -> DuplicateVote

Update applies the same checks and answers NotOwner when the vote was
cast by a different identity.

# Aggregates

Aggregator.Aggregate reads the live rows on every call: count, exact
mean (null when there are no votes) and a 1..5 distribution with every
key present.

# Client marker

Marker is the comma-joined rmt_voted cookie browsers keep for UI state.
It is capped at 50 ids and is never trusted for deduplication.
*/
package votes
