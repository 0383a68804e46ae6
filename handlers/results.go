// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/middleware"
)

type ResultsHandler struct {
	svc *Services
	cfg cliparse.Config
}

func NewResultsHandler(svc *Services, cfg cliparse.Config) *ResultsHandler {
	return &ResultsHandler{svc: svc, cfg: cfg}
}

// GetAggregate handles GET /teachers/{id}/aggregate
// Computed from the live vote set on every call.
func (h *ResultsHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	teacherID := r.PathValue("id")
	if teacherID == "" {
		middleware.WriteError(w, apperr.Invalid("teacher id is required"))
		return
	}

	view, err := h.svc.Aggregates.Aggregate(r.Context(), teacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, view)
}
