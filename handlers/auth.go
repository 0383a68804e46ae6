// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/auth"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/middleware"
	"github.com/danielhkuo/rate-my-teacher/models"
)

type AuthHandler struct {
	svc *Services
	cfg cliparse.Config
}

func NewAuthHandler(svc *Services, cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

// IssueCsrf handles GET /csrf
// Callers without any identity get a new anonymous one first.
func (h *AuthHandler) IssueCsrf(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())

	resp := models.CsrfResponse{}
	if id == nil {
		anon, err := auth.GenerateToken()
		if err != nil {
			middleware.WriteError(w, apperr.Storage(err))
			return
		}
		http.SetCookie(w, identity.AnonCookie(anon, h.cfg.SecureCookies))
		id = identity.Anonymous(anon)
		resp.AnonToken = anon
	}

	token, err := h.svc.Csrf.Issue(r.Context(), id.SessionKey())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	resp.CsrfToken = token

	w.Header().Set("Cache-Control", "no-store")
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	login, err := h.svc.Auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.respondLogin(w, r, http.StatusCreated, login)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.WriteError(w, err)
		return
	}

	login, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	h.respondLogin(w, r, http.StatusOK, login)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Auth.Logout(r.Context(), identity.FromContext(r.Context())); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Message: "logged out"})
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id := identity.FromContext(r.Context())
	if id == nil || id.IsAnonymous() {
		middleware.WriteError(w, apperr.ErrUnauthenticated)
		return
	}

	balance, err := h.svc.Points.Balance(r.Context(), id.AccountID())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	badges, err := h.svc.Badges.List(r.Context(), id.AccountID())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.MeResponse{
		Account:     *id.Account,
		Balance:     balance,
		Badges:      badges,
		Permissions: id.Permissions().Strings(),
	})
}

// respondLogin binds a fresh CSRF token to the new session
func (h *AuthHandler) respondLogin(w http.ResponseWriter, r *http.Request, status int, login *identity.Login) {
	csrfToken, err := h.svc.Csrf.Issue(r.Context(), login.Identity.SessionKey())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Info("session established", "account_id", login.Account.ID, "role", login.Account.Role)
	middleware.JSONResponse(w, status, models.AuthResponse{
		Token:     login.Token,
		CsrfToken: csrfToken,
		ExpiresAt: login.ExpiresAt,
		Account:   login.Account,
	})
}
