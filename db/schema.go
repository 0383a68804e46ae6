// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/danielhkuo/rate-my-teacher/cliparse"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect string) error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == cliparse.DatabasePostgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}

	// SQLite drivers reject multi-statement Exec on some paths, so run one at a time
	for _, stmt := range strings.Split(fmt.Sprintf(schema, serial), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// %[1]s is the dialect's auto-increment primary key
const schema = `
-- Teachers (rating subjects)
CREATE TABLE IF NOT EXISTS teacher (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    schedule TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- Accounts
CREATE TABLE IF NOT EXISTS account (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
    created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS account_permission (
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    permission TEXT NOT NULL,
    granted_by TEXT NOT NULL DEFAULT '',
    granted_at TIMESTAMP NOT NULL,
    PRIMARY KEY (account_id, permission)
);

CREATE TABLE IF NOT EXISTS session (
    id TEXT PRIMARY KEY,
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL,
    expires_at TIMESTAMP NOT NULL,
    revoked_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_session_account_id ON session(account_id);

-- Votes: one per (teacher, identity)
CREATE TABLE IF NOT EXISTS vote (
    id TEXT PRIMARY KEY,
    teacher_id TEXT NOT NULL REFERENCES teacher(id) ON DELETE CASCADE,
    identity TEXT NOT NULL,
    identity_kind TEXT NOT NULL CHECK (identity_kind IN ('anonymous', 'account')),
    rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 5),
    comment TEXT NOT NULL DEFAULT '',
    is_explicit BOOLEAN NOT NULL DEFAULT FALSE,
    ip_hash TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL,
    UNIQUE (teacher_id, identity)
);

CREATE INDEX IF NOT EXISTS idx_vote_teacher_id ON vote(teacher_id);
CREATE INDEX IF NOT EXISTS idx_vote_identity ON vote(identity);

-- Points ledger (append-only)
CREATE TABLE IF NOT EXISTS points_transaction (
    id %[1]s,
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    reason TEXT NOT NULL,
    delta BIGINT NOT NULL,
    award_key TEXT,
    created_at TIMESTAMP NOT NULL,
    UNIQUE (account_id, award_key)
);

CREATE INDEX IF NOT EXISTS idx_points_transaction_account_id ON points_transaction(account_id);

-- Badges
CREATE TABLE IF NOT EXISTS badge (
    account_id TEXT NOT NULL REFERENCES account(id) ON DELETE CASCADE,
    badge_type TEXT NOT NULL,
    level INTEGER NOT NULL,
    awarded_at TIMESTAMP NOT NULL,
    PRIMARY KEY (account_id, badge_type, level)
);

-- Account locks
CREATE TABLE IF NOT EXISTS account_lock (
    account_id TEXT PRIMARY KEY REFERENCES account(id) ON DELETE CASCADE,
    is_locked BOOLEAN NOT NULL DEFAULT FALSE,
    locked_until TIMESTAMP NOT NULL
)
`
