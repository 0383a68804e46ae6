// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/rate-my-teacher/csrf"
	"github.com/danielhkuo/rate-my-teacher/handlers"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

type fixture struct {
	mux *http.ServeMux
	svc *handlers.Services
}

func setup(t *testing.T) fixture {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	svc := handlers.NewServices(conn, cfg, csrf.NewMemoryStore(), nil)
	return fixture{mux: NewRouter(svc, cfg), svc: svc}
}

func (f fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

// anonSession runs GET /csrf and returns the anonymous token and CSRF token
func (f fixture) anonSession(t *testing.T) (string, string) {
	t.Helper()
	w := f.do(testutil.MakeRequest("GET", "/csrf", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.CsrfResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.AnonToken == "" || resp.CsrfToken == "" {
		t.Fatalf("Expected anon and csrf tokens, got %+v", resp)
	}
	return resp.AnonToken, resp.CsrfToken
}

// login authenticates through the router and returns bearer and CSRF tokens
func (f fixture) login(t *testing.T, email string) (string, string) {
	t.Helper()
	anon, token := f.anonSession(t)
	w := f.do(testutil.MakeRequest("POST", "/auth/login",
		models.LoginRequest{Email: email, Password: testutil.TestPassword},
		map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: token}))
	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.AuthResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.Token, resp.CsrfToken
}

func bearer(token, csrfToken string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token, csrf.HeaderName: csrfToken}
}

func TestHealthEndpoint(t *testing.T) {
	f := setup(t)

	w := f.do(httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	f := setup(t)

	w := f.do(httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	expected := "rate-my-teacher API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}

	w = f.do(httptest.NewRequest("GET", "/nowhere", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown path, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)

	w := f.do(httptest.NewRequest("GET", "/metrics", nil))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestAnonymousVoteFlow(t *testing.T) {
	f := setup(t)
	teacher, err := f.svc.Teachers.Create(context.Background(), models.CreateTeacherRequest{Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("Create teacher failed: %v", err)
	}
	path := "/teachers/" + teacher.ID + "/votes"

	anon, token := f.anonSession(t)

	t.Run("missing csrf token", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", path, models.SubmitVoteRequest{Rating: 4},
			map[string]string{identity.AnonHeaderName: anon}))
		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "csrf_invalid")
	})

	t.Run("token from another session", func(t *testing.T) {
		_, otherToken := f.anonSession(t)
		w := f.do(testutil.MakeRequest("POST", path, models.SubmitVoteRequest{Rating: 4},
			map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: otherToken}))
		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "csrf_invalid")
	})

	t.Run("no session at all", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", path, models.SubmitVoteRequest{Rating: 4}, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("valid", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", path, models.SubmitVoteRequest{Rating: 4},
			map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: token}))
		testutil.AssertStatus(t, w, http.StatusOK)
	})

	t.Run("duplicate", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", path, models.SubmitVoteRequest{Rating: 2},
			map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: token}))
		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "duplicate_vote")
	})

	t.Run("lookup", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("GET", "/teachers/"+teacher.ID+"/votes/mine", nil,
			map[string]string{identity.AnonHeaderName: anon}))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.HasVotedResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.HasVoted {
			t.Error("Expected has_voted true")
		}
	})
}

func TestCsrfCheckedBeforePermission(t *testing.T) {
	f := setup(t)

	anon, anonToken := f.anonSession(t)

	// No CSRF token: csrf_invalid wins over the missing permission
	w := f.do(testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "X"},
		map[string]string{identity.AnonHeaderName: anon}))
	testutil.AssertStatus(t, w, http.StatusForbidden)
	testutil.AssertErrorCode(t, w, "csrf_invalid")

	// Valid CSRF token: now the permission check rejects
	w = f.do(testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "X"},
		map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: anonToken}))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAdminRoutes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	svc := handlers.NewServices(conn, cfg, csrf.NewMemoryStore(), nil)
	f := fixture{mux: NewRouter(svc, cfg), svc: svc}

	testutil.CreateTestAdmin(t, conn, "editor@example.com", "manage_teachers")
	testutil.CreateTestAdmin(t, conn, "locker@example.com", "view_votes")
	target := testutil.CreateTestAccount(t, conn, "target@example.com", models.RoleUser)

	editorToken, editorCsrf := f.login(t, "editor@example.com")
	lockerToken, lockerCsrf := f.login(t, "locker@example.com")

	t.Run("permission granted", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Grace Hopper"},
			bearer(editorToken, editorCsrf)))
		testutil.AssertStatus(t, w, http.StatusCreated)
	})

	t.Run("stale csrf token", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Grace Hopper"},
			bearer(editorToken, lockerCsrf)))
		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "csrf_invalid")
	})

	t.Run("lock without manage_accounts", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("POST", "/admin/accounts/"+target.ID+"/lock",
			models.LockAccountRequest{DurationMinutes: 30}, bearer(lockerToken, lockerCsrf)))
		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "forbidden")

		locked, _, err := svc.Locks.IsLocked(context.Background(), target.ID)
		if err != nil || locked {
			t.Errorf("Lock state changed: locked=%v err=%v", locked, err)
		}
	})

	t.Run("my permissions", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("GET", "/admin/permissions", nil, bearer(editorToken, "")))
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.PermissionsResponse
		testutil.AssertJSON(t, w, &resp)
		if len(resp.Permissions) != 1 || resp.Permissions[0] != "manage_teachers" {
			t.Errorf("Expected [manage_teachers], got %v", resp.Permissions)
		}
	})

	t.Run("my permissions unauthenticated", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("GET", "/admin/permissions", nil, nil))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})

	t.Run("bad bearer token", func(t *testing.T) {
		w := f.do(testutil.MakeRequest("GET", "/me", nil, map[string]string{"Authorization": "Bearer nope"}))
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestLockedAccountFlow(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	svc := handlers.NewServices(conn, cfg, csrf.NewMemoryStore(), nil)
	f := fixture{mux: NewRouter(svc, cfg), svc: svc}

	testutil.CreateTestAdmin(t, conn, "manager@example.com", "manage_accounts")
	target := testutil.CreateTestAccount(t, conn, "target@example.com", models.RoleUser)

	targetToken, _ := f.login(t, "target@example.com")
	managerToken, managerCsrf := f.login(t, "manager@example.com")

	w := f.do(testutil.MakeRequest("POST", "/admin/accounts/"+target.ID+"/lock",
		models.LockAccountRequest{DurationMinutes: 30}, bearer(managerToken, managerCsrf)))
	testutil.AssertStatus(t, w, http.StatusOK)

	// Existing sessions stop working
	w = f.do(testutil.MakeRequest("GET", "/me", nil, bearer(targetToken, "")))
	testutil.AssertStatus(t, w, http.StatusLocked)

	// New logins are refused with a retry hint
	anon, token := f.anonSession(t)
	w = f.do(testutil.MakeRequest("POST", "/auth/login",
		models.LoginRequest{Email: target.Email, Password: testutil.TestPassword},
		map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: token}))
	testutil.AssertStatus(t, w, http.StatusLocked)
	if w.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}

	w = f.do(testutil.MakeRequest("POST", "/admin/accounts/"+target.ID+"/unlock", nil, bearer(managerToken, managerCsrf)))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = f.do(testutil.MakeRequest("GET", "/me", nil, bearer(targetToken, "")))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func TestRegisterThenVoteEarnsPoints(t *testing.T) {
	f := setup(t)
	teacher, err := f.svc.Teachers.Create(context.Background(), models.CreateTeacherRequest{Name: "Ada Lovelace"})
	if err != nil {
		t.Fatalf("Create teacher failed: %v", err)
	}

	anon, token := f.anonSession(t)
	w := f.do(testutil.MakeRequest("POST", "/auth/register",
		models.RegisterRequest{Email: "new@example.com", Password: "long-enough"},
		map[string]string{identity.AnonHeaderName: anon, csrf.HeaderName: token}))
	testutil.AssertStatus(t, w, http.StatusCreated)
	var auth models.AuthResponse
	testutil.AssertJSON(t, w, &auth)

	w = f.do(testutil.MakeRequest("POST", "/teachers/"+teacher.ID+"/votes",
		models.SubmitVoteRequest{Rating: 5}, bearer(auth.Token, auth.CsrfToken)))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = f.do(testutil.MakeRequest("GET", "/me", nil, bearer(auth.Token, "")))
	testutil.AssertStatus(t, w, http.StatusOK)
	var me models.MeResponse
	testutil.AssertJSON(t, w, &me)
	if me.Balance != 5 {
		t.Errorf("Expected balance 5, got %d", me.Balance)
	}

	// Logout invalidates the token
	w = f.do(testutil.MakeRequest("POST", "/auth/logout", nil, bearer(auth.Token, auth.CsrfToken)))
	testutil.AssertStatus(t, w, http.StatusOK)
	w = f.do(testutil.MakeRequest("GET", "/me", nil, bearer(auth.Token, "")))
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestRouteExistence(t *testing.T) {
	f := setup(t)

	// Every registered route answers with something other than the
	// mux's own 404/405
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/csrf"},
		{"POST", "/auth/register"},
		{"POST", "/auth/login"},
		{"POST", "/auth/logout"},
		{"GET", "/me"},
		{"GET", "/teachers"},
		{"POST", "/teachers/t1/votes"},
		{"GET", "/teachers/t1/votes/mine"},
		{"DELETE", "/teachers/t1/votes/mine"},
		{"PUT", "/votes/v1"},
		{"GET", "/admin/permissions"},
		{"POST", "/admin/teachers"},
		{"PUT", "/admin/teachers/t1"},
		{"DELETE", "/admin/teachers/t1"},
		{"GET", "/admin/votes"},
		{"DELETE", "/admin/votes/v1"},
		{"POST", "/admin/accounts"},
		{"GET", "/admin/accounts/a1/points"},
		{"POST", "/admin/accounts/a1/points"},
		{"PUT", "/admin/accounts/a1/points"},
		{"GET", "/admin/accounts/a1/lock"},
		{"POST", "/admin/accounts/a1/lock"},
		{"POST", "/admin/accounts/a1/unlock"},
		{"POST", "/admin/accounts/a1/permissions"},
		{"DELETE", "/admin/accounts/a1/permissions/view_votes"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			w := f.do(httptest.NewRequest(tc.method, tc.path, nil))
			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s not registered", tc.method, tc.path)
			}
			if w.Code == http.StatusNotFound && w.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Route %s %s fell through to the mux", tc.method, tc.path)
			}
		})
	}
}
