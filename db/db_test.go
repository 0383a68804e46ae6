// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/danielhkuo/rate-my-teacher/cliparse"
)

func TestCreateSchemaIdempotent(t *testing.T) {
	conn, err := Open(cliparse.DatabaseSQLite, "file:schema_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	for i := 0; i < 2; i++ {
		if err := CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
			t.Fatalf("CreateSchema() run %d error = %v", i+1, err)
		}
	}
}

func TestUniqueVoteConstraint(t *testing.T) {
	conn, err := Open(cliparse.DatabaseSQLite, "file:unique_test?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer conn.Close()

	if err := CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		t.Fatal(err)
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`INSERT INTO teacher (id, name, created_at, updated_at) VALUES ($1, $2, $3, $3)`, "T1", "Ada", now)
	if err != nil {
		t.Fatal(err)
	}

	insert := `
		INSERT INTO vote (id, teacher_id, identity, identity_kind, rating, created_at, updated_at)
		VALUES ($1, 'T1', 'anon:A', 'anonymous', 5, $2, $2)
	`
	if _, err := conn.Exec(insert, "v1", now); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}

	_, err = conn.Exec(insert, "v2", now)
	if err == nil {
		t.Fatal("expected duplicate (teacher_id, identity) to fail")
	}
	if !IsUniqueViolation(err) {
		t.Errorf("IsUniqueViolation(%v) = false, want true", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres unique", &pq.Error{Code: "23505"}, true},
		{"postgres fk", &pq.Error{Code: "23503"}, false},
		{"message fallback", errors.New("UNIQUE constraint failed: vote.teacher_id, vote.identity"), true},
		{"unrelated", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}
