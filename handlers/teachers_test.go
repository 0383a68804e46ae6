// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/testutil"
)

func TestCreateTeacher(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	handler := NewTeachersHandler(svc, cfg)
	editor := adminCaller(t, conn, "editor@example.com", capability.ManageTeachers)
	viewer := adminCaller(t, conn, "viewer@example.com", capability.ViewVotes)

	tests := []struct {
		name           string
		body           models.CreateTeacherRequest
		expectedStatus int
	}{
		{
			name:           "valid teacher",
			body:           models.CreateTeacherRequest{Name: "Alan Turing", Tags: []string{"CS", "math", "cs"}},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           models.CreateTeacherRequest{Name: "   "},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/admin/teachers", tt.body, nil)
			w := httptest.NewRecorder()
			handler.CreateTeacher(w, as(req, editor))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	t.Run("tags normalized", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Emmy Noether", Tags: []string{"Algebra", "algebra"}}, nil)
		w := httptest.NewRecorder()
		handler.CreateTeacher(w, as(req, editor))
		testutil.AssertStatus(t, w, http.StatusCreated)

		var teacher models.Teacher
		testutil.AssertJSON(t, w, &teacher)
		if len(teacher.Tags) != 1 || teacher.Tags[0] != "algebra" {
			t.Errorf("Expected [algebra], got %v", teacher.Tags)
		}
	})

	t.Run("missing permission", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Nope"}, nil)
		w := httptest.NewRecorder()
		handler.CreateTeacher(w, as(req, viewer))

		testutil.AssertStatus(t, w, http.StatusForbidden)
		testutil.AssertErrorCode(t, w, "forbidden")
	})

	t.Run("plain user", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/admin/teachers", models.CreateTeacherRequest{Name: "Nope"}, nil)
		w := httptest.NewRecorder()
		handler.CreateTeacher(w, as(req, userCaller(t, conn, "user@example.com")))

		testutil.AssertStatus(t, w, http.StatusForbidden)
	})

	if n := testutil.CountRows(t, conn, `SELECT COUNT(*) FROM teacher`); n != 2 {
		t.Errorf("Expected 2 teachers, got %d", n)
	}
}

func TestUpdateAndDeleteTeacher(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	handler := NewTeachersHandler(svc, cfg)
	editor := adminCaller(t, conn, "editor@example.com", capability.ManageTeachers)
	teacherID := testutil.CreateTestTeacher(t, conn, "Old Name")
	if _, err := svc.Votes.Submit(context.Background(), teacherID, anonCaller(t), 3, "", ""); err != nil {
		t.Fatalf("Failed to submit vote: %v", err)
	}

	req := testutil.MakeRequest("PUT", "/admin/teachers/"+teacherID, models.UpdateTeacherRequest{Name: "New Name", Schedule: "TTh"}, nil)
	req.SetPathValue("id", teacherID)
	w := httptest.NewRecorder()
	handler.UpdateTeacher(w, as(req, editor))
	testutil.AssertStatus(t, w, http.StatusOK)

	var updated models.Teacher
	testutil.AssertJSON(t, w, &updated)
	if updated.Name != "New Name" || updated.Schedule != "TTh" {
		t.Errorf("Update not applied: %+v", updated)
	}

	req = testutil.MakeRequest("PUT", "/admin/teachers/missing", models.UpdateTeacherRequest{Name: "X"}, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	handler.UpdateTeacher(w, as(req, editor))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	req = testutil.MakeRequest("DELETE", "/admin/teachers/"+teacherID, nil, nil)
	req.SetPathValue("id", teacherID)
	w = httptest.NewRecorder()
	handler.DeleteTeacher(w, as(req, editor))
	testutil.AssertStatus(t, w, http.StatusOK)

	if n := testutil.CountRows(t, conn, `SELECT COUNT(*) FROM vote WHERE teacher_id = $1`, teacherID); n != 0 {
		t.Errorf("Expected votes removed with teacher, got %d", n)
	}
}

func TestListAndGetTeachers(t *testing.T) {
	conn, svc, cfg := setupServices(t)
	handler := NewTeachersHandler(svc, cfg)
	first := testutil.CreateTestTeacher(t, conn, "Barbara Liskov")
	testutil.CreateTestTeacher(t, conn, "Donald Knuth")

	req := testutil.MakeRequest("GET", "/teachers", nil, nil)
	w := httptest.NewRecorder()
	handler.ListTeachers(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var list models.ListTeachersResponse
	testutil.AssertJSON(t, w, &list)
	if len(list.Teachers) != 2 {
		t.Fatalf("Expected 2 teachers, got %d", len(list.Teachers))
	}
	for _, entry := range list.Teachers {
		if entry.Aggregate.RatingCount != 0 || len(entry.Aggregate.Distribution) != 5 {
			t.Errorf("Expected empty aggregate with five buckets, got %+v", entry.Aggregate)
		}
	}

	req = testutil.MakeRequest("GET", "/teachers/"+first, nil, nil)
	req.SetPathValue("id", first)
	w = httptest.NewRecorder()
	handler.GetTeacher(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var got models.TeacherWithAggregate
	testutil.AssertJSON(t, w, &got)
	if got.Teacher.Name != "Barbara Liskov" {
		t.Errorf("Expected Barbara Liskov, got %s", got.Teacher.Name)
	}

	req = testutil.MakeRequest("GET", "/teachers/missing", nil, nil)
	req.SetPathValue("id", "missing")
	w = httptest.NewRecorder()
	handler.GetTeacher(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
