// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/middleware"
	"github.com/danielhkuo/rate-my-teacher/models"
)

type TeachersHandler struct {
	svc *Services
	cfg cliparse.Config
}

func NewTeachersHandler(svc *Services, cfg cliparse.Config) *TeachersHandler {
	return &TeachersHandler{svc: svc, cfg: cfg}
}

// ListTeachers handles GET /teachers
func (h *TeachersHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.svc.Teachers.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	resp := models.ListTeachersResponse{Teachers: make([]models.TeacherWithAggregate, 0, len(teachers))}
	for _, t := range teachers {
		agg, err := h.svc.Aggregates.Aggregate(r.Context(), t.ID)
		if err != nil {
			middleware.WriteError(w, err)
			return
		}
		resp.Teachers = append(resp.Teachers, models.TeacherWithAggregate{Teacher: t, Aggregate: agg})
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetTeacher handles GET /teachers/{id}
func (h *TeachersHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID := r.PathValue("id")
	if teacherID == "" {
		middleware.WriteError(w, apperr.Invalid("teacher id is required"))
		return
	}

	t, err := h.svc.Teachers.Get(r.Context(), teacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	agg, err := h.svc.Aggregates.Aggregate(r.Context(), teacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.TeacherWithAggregate{Teacher: t, Aggregate: agg})
}

// CreateTeacher handles POST /admin/teachers
func (h *TeachersHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if err := capability.RequirePermission(actor, capability.ManageTeachers); err != nil {
		middleware.WriteError(w, err)
		return
	}

	var req models.CreateTeacherRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	t, err := h.svc.Teachers.Create(r.Context(), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("teacher created", "teacher_id", t.ID, "by", actor.AccountID())
	middleware.JSONResponse(w, http.StatusCreated, t)
}

// UpdateTeacher handles PUT /admin/teachers/{id}
func (h *TeachersHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if err := capability.RequirePermission(actor, capability.ManageTeachers); err != nil {
		middleware.WriteError(w, err)
		return
	}

	var req models.UpdateTeacherRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	t, err := h.svc.Teachers.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("teacher updated", "teacher_id", t.ID, "by", actor.AccountID())
	middleware.JSONResponse(w, http.StatusOK, t)
}

// DeleteTeacher handles DELETE /admin/teachers/{id}
// Votes for the teacher go with it.
func (h *TeachersHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if err := capability.RequirePermission(actor, capability.ManageTeachers); err != nil {
		middleware.WriteError(w, err)
		return
	}

	teacherID := r.PathValue("id")
	if err := h.svc.Teachers.Delete(r.Context(), teacherID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("teacher deleted", "teacher_id", teacherID, "by", actor.AccountID())
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "teacher deleted"})
}
