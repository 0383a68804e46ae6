// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and manages its schema.

# Drivers

Two dialects are supported through database/sql:

	conn, err := db.Open(cliparse.DatabaseSQLite, "file:rmt.db")     // modernc.org/sqlite
	conn, err := db.Open(cliparse.DatabasePostgres, "postgres://...") // github.com/lib/pq

SQLite connections are opened with foreign keys enabled, a busy timeout,
and a single open connection.

# Schema

	err := db.CreateSchema(conn, cliparse.DatabaseSQLite)

Tables:

  - teacher: rating subjects, owned by administrators
  - account, account_permission, session: identities and grants
  - vote: one row per (teacher_id, identity), enforced by UNIQUE
  - points_transaction: append-only ledger, UNIQUE (account_id, award_key)
  - badge: one row per (account_id, badge_type, level)
  - account_lock: one row per account

All statements use IF NOT EXISTS, so CreateSchema is idempotent. The
only dialect difference is the auto-increment key of points_transaction.

# Constraint Errors

IsUniqueViolation classifies duplicate-key failures from either driver
so callers can translate them into domain errors such as DuplicateVote.
*/
package db
