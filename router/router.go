// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/handlers"
	"github.com/danielhkuo/rate-my-teacher/metrics"
	"github.com/danielhkuo/rate-my-teacher/middleware"
)

func NewRouter(svc *handlers.Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc, cfg)
	teachersHandler := handlers.NewTeachersHandler(svc, cfg)
	votingHandler := handlers.NewVotingHandler(svc, cfg)
	resultsHandler := handlers.NewResultsHandler(svc, cfg)
	adminHandler := handlers.NewAdminHandler(svc, cfg)

	sec := &middleware.Security{Resolver: svc.Resolver, Csrf: svc.Csrf}

	// Every API route resolves the caller; state-changing methods then
	// need a CSRF token before any permission check runs.
	open := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(sec.WithIdentity(h))
	}
	guarded := func(h http.HandlerFunc) http.HandlerFunc {
		return open(sec.RequireCSRF(h))
	}
	admin := func(p capability.Permission, h http.HandlerFunc) http.HandlerFunc {
		return guarded(middleware.RequirePermission(p)(h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Session and CSRF
	mux.HandleFunc("GET /csrf", open(authHandler.IssueCsrf))
	mux.HandleFunc("POST /auth/register", guarded(authHandler.Register))
	mux.HandleFunc("POST /auth/login", guarded(authHandler.Login))
	mux.HandleFunc("POST /auth/logout", guarded(middleware.RequireAccount(authHandler.Logout)))
	mux.HandleFunc("GET /me", open(middleware.RequireAccount(authHandler.Me)))

	// Teachers and aggregates (public)
	mux.HandleFunc("GET /teachers", open(teachersHandler.ListTeachers))
	mux.HandleFunc("GET /teachers/{id}", open(teachersHandler.GetTeacher))
	mux.HandleFunc("GET /teachers/{id}/aggregate", open(resultsHandler.GetAggregate))

	// Voting (anonymous or account)
	mux.HandleFunc("POST /teachers/{id}/votes", guarded(middleware.RequireIdentity(votingHandler.SubmitVote)))
	mux.HandleFunc("GET /teachers/{id}/votes/mine", open(middleware.RequireIdentity(votingHandler.GetMyVote)))
	mux.HandleFunc("DELETE /teachers/{id}/votes/mine", guarded(middleware.RequireIdentity(votingHandler.DeleteMyVote)))
	mux.HandleFunc("PUT /votes/{voteId}", guarded(middleware.RequireIdentity(votingHandler.UpdateVote)))

	// Admin
	mux.HandleFunc("GET /admin/permissions", open(middleware.RequireAdmin(adminHandler.MyPermissions)))

	mux.HandleFunc("POST /admin/teachers", admin(capability.ManageTeachers, teachersHandler.CreateTeacher))
	mux.HandleFunc("PUT /admin/teachers/{id}", admin(capability.ManageTeachers, teachersHandler.UpdateTeacher))
	mux.HandleFunc("DELETE /admin/teachers/{id}", admin(capability.ManageTeachers, teachersHandler.DeleteTeacher))

	mux.HandleFunc("GET /admin/votes", admin(capability.ViewVotes, adminHandler.ListVotes))
	mux.HandleFunc("DELETE /admin/votes/{voteId}", admin(capability.ManageVotes, adminHandler.DeleteVote))

	mux.HandleFunc("POST /admin/accounts", admin(capability.ManageAccounts, adminHandler.CreateAdmin))
	mux.HandleFunc("GET /admin/accounts/{id}/points", admin(capability.ViewPoints, adminHandler.GetPoints))
	mux.HandleFunc("POST /admin/accounts/{id}/points", admin(capability.ManageAccounts, adminHandler.AwardPoints))
	mux.HandleFunc("PUT /admin/accounts/{id}/points", admin(capability.ManageAccounts, adminHandler.AdjustPoints))
	mux.HandleFunc("GET /admin/accounts/{id}/lock", admin(capability.ManageAccounts, adminHandler.GetLock))
	mux.HandleFunc("POST /admin/accounts/{id}/lock", admin(capability.ManageAccounts, adminHandler.LockAccount))
	mux.HandleFunc("POST /admin/accounts/{id}/unlock", admin(capability.ManageAccounts, adminHandler.UnlockAccount))
	mux.HandleFunc("POST /admin/accounts/{id}/permissions", admin(capability.ManagePermissions, adminHandler.GrantPermission))
	mux.HandleFunc("DELETE /admin/accounts/{id}/permissions/{permission}", admin(capability.ManagePermissions, adminHandler.RevokePermission))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rate-my-teacher API v1"))
	})

	return mux
}
