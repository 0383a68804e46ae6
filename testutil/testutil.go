// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// TestPassword is the password given to every account created here.
const TestPassword = "correct-horse"

var dbSeq atomic.Int64

// SetupTestDB creates a fresh in-memory database with the full schema.
// Each call gets its own database, closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))

	conn, err := db.Open(cliparse.DatabaseSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, cliparse.DatabaseSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseURL:  "file:test?mode=memory",
		DatabaseType: cliparse.DatabaseSQLite,
		JWTSecret:    "test-jwt-secret",
		IPHashSalt:   "test-ip-salt",
		SessionTTL:   time.Hour,
	}
}

// CreateTestTeacher inserts a teacher and returns its ID
func CreateTestTeacher(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := conn.Exec(`
		INSERT INTO teacher (id, name, description, schedule, tags, created_at, updated_at)
		VALUES ($1, $2, 'Teaches things', 'MWF', 'math', $3, $3)
	`, id, name, now)
	if err != nil {
		t.Fatalf("Failed to create test teacher: %v", err)
	}
	return id
}

// CreateTestAccount inserts an account with TestPassword and returns it
func CreateTestAccount(t *testing.T, conn *sql.DB, email, role string) models.Account {
	t.Helper()

	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	acct := models.Account{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}
	_, err = conn.Exec(`
		INSERT INTO account (id, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.Email, hash, acct.Role, acct.CreatedAt)
	if err != nil {
		t.Fatalf("Failed to create test account: %v", err)
	}
	return acct
}

// CreateTestAdmin inserts an admin account holding perms
func CreateTestAdmin(t *testing.T, conn *sql.DB, email string, perms ...string) models.Account {
	t.Helper()

	acct := CreateTestAccount(t, conn, email, models.RoleAdmin)
	for _, p := range perms {
		_, err := conn.Exec(`
			INSERT INTO account_permission (account_id, permission, granted_by, granted_at)
			VALUES ($1, $2, 'test', $3)
		`, acct.ID, p, time.Now().UTC())
		if err != nil {
			t.Fatalf("Failed to grant %s: %v", p, err)
		}
	}
	return acct
}

// CountRows returns SELECT COUNT(*) for the given query
func CountRows(t *testing.T, conn *sql.DB, query string, args ...any) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// AssertErrorCode checks the error body carries the expected code
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, code string) {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v (body %s)", err, w.Body.String())
	}
	if resp.Error != code {
		t.Errorf("Expected error code %q, got %q (%s)", code, resp.Error, resp.Message)
	}
}
