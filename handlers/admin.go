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

// AdminHandler serves the /admin routes. Each method re-checks the
// permission its route is registered with.
type AdminHandler struct {
	svc *Services
	cfg cliparse.Config
}

func NewAdminHandler(svc *Services, cfg cliparse.Config) *AdminHandler {
	return &AdminHandler{svc: svc, cfg: cfg}
}

// MyPermissions handles GET /admin/permissions
func (h *AdminHandler) MyPermissions(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if id == nil || id.IsAnonymous() {
		middleware.WriteError(w, apperr.ErrUnauthenticated)
		return
	}
	if !id.IsAdmin() {
		middleware.WriteError(w, apperr.Forbidden("admin account required"))
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PermissionsResponse{
		AccountID:   id.AccountID(),
		Permissions: id.Permissions().Strings(),
	})
}

// ListVotes handles GET /admin/votes
// An optional teacher_id query parameter narrows the listing.
func (h *AdminHandler) ListVotes(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ViewVotes) {
		return
	}

	teacherID := r.URL.Query().Get("teacher_id")
	if teacherID != "" {
		if err := h.svc.Teachers.Exists(r.Context(), teacherID); err != nil {
			middleware.WriteError(w, err)
			return
		}
	}

	list, err := h.svc.Votes.List(r.Context(), teacherID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.ListVotesResponse{Votes: list})
}

// DeleteVote handles DELETE /admin/votes/{voteId}
func (h *AdminHandler) DeleteVote(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ManageVotes) {
		return
	}

	vote, err := h.svc.Votes.DeleteByID(r.Context(), r.PathValue("voteId"))
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

// GetPoints handles GET /admin/accounts/{id}/points
func (h *AdminHandler) GetPoints(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ViewPoints) {
		return
	}

	accountID := r.PathValue("id")
	if _, err := h.svc.Accounts.Get(r.Context(), accountID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.writePoints(w, r, accountID, nil)
}

// AwardPoints handles POST /admin/accounts/{id}/points
func (h *AdminHandler) AwardPoints(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	var req models.AwardPointsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	accountID := r.PathValue("id")
	if _, err := h.svc.Points.AdminAward(r.Context(), actor, accountID, req.Reason, req.Delta); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.writePoints(w, r, accountID, h.evaluateBadges(r, accountID))
}

// AdjustPoints handles PUT /admin/accounts/{id}/points
// The balance is set to the requested value by appending the difference.
func (h *AdminHandler) AdjustPoints(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	var req models.AdjustPointsRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	if req.Balance == nil {
		middleware.WriteError(w, apperr.Invalid("balance is required"))
		return
	}

	accountID := r.PathValue("id")
	if _, err := h.svc.Points.AdminAdjust(r.Context(), actor, accountID, *req.Balance); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.writePoints(w, r, accountID, h.evaluateBadges(r, accountID))
}

// GetLock handles GET /admin/accounts/{id}/lock
func (h *AdminHandler) GetLock(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	accountID := r.PathValue("id")
	if _, err := h.svc.Accounts.Get(r.Context(), accountID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	status, err := h.svc.Locks.Status(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, status)
}

// LockAccount handles POST /admin/accounts/{id}/lock
func (h *AdminHandler) LockAccount(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	var req models.LockAccountRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	accountID := r.PathValue("id")
	status, err := h.svc.Locks.Lock(r.Context(), accountID, req.DurationMinutes)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("account locked", "account_id", accountID,
		"minutes", req.DurationMinutes, "by", identity.FromContext(r.Context()).AccountID())
	middleware.JSONResponse(w, http.StatusOK, status)
}

// UnlockAccount handles POST /admin/accounts/{id}/unlock
func (h *AdminHandler) UnlockAccount(w http.ResponseWriter, r *http.Request) {
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	accountID := r.PathValue("id")
	if err := h.svc.Locks.Unlock(r.Context(), accountID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	status, err := h.svc.Locks.Status(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("account unlocked", "account_id", accountID, "by", identity.FromContext(r.Context()).AccountID())
	middleware.JSONResponse(w, http.StatusOK, status)
}

// GrantPermission handles POST /admin/accounts/{id}/permissions
func (h *AdminHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !h.allowed(w, r, capability.ManagePermissions) {
		return
	}

	var req models.GrantPermissionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}
	p, err := capability.Parse(req.Permission)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	accountID := r.PathValue("id")
	if err := h.svc.Grants.Grant(r.Context(), actor, accountID, p); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.writePermissions(w, r, accountID)
}

// RevokePermission handles DELETE /admin/accounts/{id}/permissions/{permission}
func (h *AdminHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !h.allowed(w, r, capability.ManagePermissions) {
		return
	}

	p, err := capability.Parse(r.PathValue("permission"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	accountID := r.PathValue("id")
	if err := h.svc.Grants.Revoke(r.Context(), actor, accountID, p); err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.writePermissions(w, r, accountID)
}

// CreateAdmin handles POST /admin/accounts
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	actor := identity.FromContext(r.Context())
	if !h.allowed(w, r, capability.ManageAccounts) {
		return
	}

	var req models.CreateAdminRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	acct, perms, err := h.svc.Auth.CreateAdmin(r.Context(), actor, h.svc.Grants, req.Email, req.Password, req.Permissions)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, models.CreateAdminResponse{
		Account:     acct,
		Permissions: perms.Strings(),
	})
}

// allowed writes the error response when the caller lacks p.
func (h *AdminHandler) allowed(w http.ResponseWriter, r *http.Request, p capability.Permission) bool {
	if err := capability.RequirePermission(identity.FromContext(r.Context()), p); err != nil {
		middleware.WriteError(w, err)
		return false
	}
	return true
}

// evaluateBadges runs after the points change has committed, so a failure
// is logged and the next evaluation picks the badge up.
func (h *AdminHandler) evaluateBadges(r *http.Request, accountID string) []models.Badge {
	badges, err := h.svc.Badges.Evaluate(r.Context(), accountID)
	if err != nil {
		slog.Error("badge evaluation failed", "account_id", accountID, "error", err)
		return nil
	}
	return badges
}

func (h *AdminHandler) writePoints(w http.ResponseWriter, r *http.Request, accountID string, badges []models.Badge) {
	balance, err := h.svc.Points.Balance(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	history, err := h.svc.Points.History(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PointsResponse{
		AccountID:    accountID,
		Balance:      balance,
		Transactions: history,
		NewBadges:    badges,
	})
}

func (h *AdminHandler) writePermissions(w http.ResponseWriter, r *http.Request, accountID string) {
	set, err := h.svc.Grants.Load(r.Context(), accountID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.PermissionsResponse{
		AccountID:   accountID,
		Permissions: set.Strings(),
	})
}
