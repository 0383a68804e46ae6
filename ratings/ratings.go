// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ratings runs the vote submission pipeline:
//
//	submit vote -> award points -> evaluate badges
//
// Each step is explicit and ordered. Points and badges only apply to
// account voters and are idempotent, so re-running the later steps for a
// committed vote never double-applies anything.
package ratings

import (
	"context"
	"log/slog"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/points"
	"github.com/danielhkuo/rate-my-teacher/votes"
)

type Service struct {
	ledger *votes.Ledger
	agg    *votes.Aggregator
	points *points.Ledger
	badges *points.Evaluator
}

func NewService(ledger *votes.Ledger, agg *votes.Aggregator, pts *points.Ledger, badges *points.Evaluator) *Service {
	return &Service{ledger: ledger, agg: agg, points: pts, badges: badges}
}

// Submit records caller's vote and returns it with the fresh aggregate.
// A failure after the vote commits is logged and the response still
// succeeds; the reward steps are retried the next time Reward runs, and
// the aggregate is left out.
func (s *Service) Submit(ctx context.Context, caller *identity.Identity, teacherID string, rating int, comment, ipHash string) (*models.SubmitVoteResponse, error) {
	if caller == nil {
		return nil, apperr.ErrUnauthenticated
	}

	vote, err := s.ledger.Submit(ctx, teacherID, caller, rating, comment, ipHash)
	if err != nil {
		return nil, err
	}

	resp := &models.SubmitVoteResponse{Vote: vote, NewBadges: []models.Badge{}}
	if !caller.IsAnonymous() {
		awarded, badges, err := s.Reward(ctx, caller.AccountID(), teacherID)
		if err != nil {
			slog.Error("vote reward failed", "account_id", caller.AccountID(), "teacher_id", teacherID, "error", err)
		}
		resp.PointsAwarded = awarded
		resp.NewBadges = badges
	}

	view, err := s.agg.Aggregate(ctx, teacherID)
	if err != nil {
		slog.Error("aggregate after vote failed", "teacher_id", teacherID, "error", err)
		return resp, nil
	}
	resp.Aggregate = &view
	return resp, nil
}

// Reward applies the one-time vote points for (accountID, teacherID)
// and evaluates badges. Safe to call repeatedly.
func (s *Service) Reward(ctx context.Context, accountID, teacherID string) (int64, []models.Badge, error) {
	var awarded int64
	tx, err := s.points.AwardOnce(ctx, accountID, models.ReasonVoteCast, points.VoteCastKey(teacherID), points.VoteCastAward)
	if err != nil {
		return 0, []models.Badge{}, err
	}
	if tx != nil {
		awarded = tx.Delta
	}

	badges, err := s.badges.Evaluate(ctx, accountID)
	if err != nil {
		return awarded, []models.Badge{}, err
	}
	return awarded, badges, nil
}
