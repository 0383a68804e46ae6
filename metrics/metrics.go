// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	VotesSubmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmt_votes_submitted_total",
		Help: "Votes accepted, by identity kind.",
	}, []string{"kind"})

	VoteRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmt_vote_rejections_total",
		Help: "Vote submissions or updates rejected, by error code.",
	}, []string{"reason"})

	CsrfRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmt_csrf_rejections_total",
		Help: "State-changing requests rejected for a missing or stale CSRF token.",
	})

	PermissionDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmt_permission_denials_total",
		Help: "Admin operations denied, by permission.",
	}, []string{"permission"})

	PointsAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rmt_points_awarded_total",
		Help: "Points transactions appended.",
	})

	BadgesAwarded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmt_badges_awarded_total",
		Help: "Badges awarded, by badge type.",
	}, []string{"type"})

	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rmt_logins_total",
		Help: "Login attempts, by outcome.",
	}, []string{"outcome"})

	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rmt_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(
		VotesSubmitted,
		VoteRejections,
		CsrfRejections,
		PermissionDenials,
		PointsAwarded,
		BadgesAwarded,
		Logins,
		RequestDuration,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
