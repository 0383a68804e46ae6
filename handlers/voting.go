// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/middleware"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/votes"
)

type VotingHandler struct {
	svc *Services
	cfg cliparse.Config
}

func NewVotingHandler(svc *Services, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{svc: svc, cfg: cfg}
}

// SubmitVote handles POST /teachers/{id}/votes
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	teacherID := r.PathValue("id")
	if teacherID == "" {
		middleware.WriteError(w, apperr.Invalid("teacher id is required"))
		return
	}

	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	caller := identity.FromContext(r.Context())
	ipHash := auth.HashIP(middleware.GetClientIP(r), h.cfg.IPHashSalt)

	resp, err := h.svc.Ratings.Submit(r.Context(), caller, teacherID, req.Rating, req.Comment, ipHash)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if caller.IsAnonymous() {
		marker := votes.MarkerFromRequest(r).Add(teacherID)
		http.SetCookie(w, marker.Cookie(h.cfg.SecureCookies))
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// UpdateVote handles PUT /votes/{voteId}
func (h *VotingHandler) UpdateVote(w http.ResponseWriter, r *http.Request) {
	voteID := r.PathValue("voteId")
	if voteID == "" {
		middleware.WriteError(w, apperr.Invalid("vote id is required"))
		return
	}

	var req models.UpdateVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	caller := identity.FromContext(r.Context())
	if caller == nil {
		middleware.WriteError(w, apperr.ErrUnauthenticated)
		return
	}

	vote, err := h.svc.Votes.Update(r.Context(), voteID, caller, req.Rating, req.Comment)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	agg, err := h.svc.Aggregates.Aggregate(r.Context(), vote.TeacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{Vote: &vote, Aggregate: agg})
}

// DeleteMyVote handles DELETE /teachers/{id}/votes/mine
// Points already awarded for the vote are kept.
func (h *VotingHandler) DeleteMyVote(w http.ResponseWriter, r *http.Request) {
	teacherID := r.PathValue("id")
	caller := identity.FromContext(r.Context())
	if caller == nil {
		middleware.WriteError(w, apperr.ErrUnauthenticated)
		return
	}

	if err := h.svc.Votes.Delete(r.Context(), teacherID, caller); err != nil {
		middleware.WriteError(w, err)
		return
	}
	agg, err := h.svc.Aggregates.Aggregate(r.Context(), teacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if caller.IsAnonymous() {
		marker := votes.MarkerFromRequest(r).Remove(teacherID)
		http.SetCookie(w, marker.Cookie(h.cfg.SecureCookies))
	}
	middleware.JSONResponse(w, http.StatusOK, models.VoteResponse{Aggregate: agg})
}

// GetMyVote handles GET /teachers/{id}/votes/mine
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	teacherID := r.PathValue("id")
	caller := identity.FromContext(r.Context())
	if caller == nil {
		middleware.WriteError(w, apperr.ErrUnauthenticated)
		return
	}

	if err := h.svc.Teachers.Exists(r.Context(), teacherID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	vote, err := h.svc.Votes.Find(r.Context(), teacherID, caller.String())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	resp := models.HasVotedResponse{HasVoted: vote != nil}
	if vote != nil {
		resp.VoteID = &vote.ID
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}
