// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package votes

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/metrics"
	"github.com/danielhkuo/rate-my-teacher/models"
)

const (
	MinRating        = 1
	MaxRating        = 5
	MaxCommentLength = 1000
)

// Voter is the deduplication identity behind a vote.
// *identity.Identity satisfies it.
type Voter interface {
	String() string
	IsAnonymous() bool
}

// Ledger records at most one vote per (teacher, voter).
type Ledger struct {
	db    *sql.DB
	locks *keylock.Map
	now   func() time.Time
}

func NewLedger(conn *sql.DB, locks *keylock.Map) *Ledger {
	return &Ledger{db: conn, locks: locks, now: func() time.Time { return time.Now().UTC() }}
}

// Submit records voter's first vote for teacherID. Anonymous voters
// with explicit comments are rejected; account voters are flagged and
// accepted.
func (l *Ledger) Submit(ctx context.Context, teacherID string, voter Voter, rating int, comment, ipHash string) (models.Vote, error) {
	comment, explicit, err := checkInput(voter, rating, comment)
	if err != nil {
		return models.Vote{}, rejected(err)
	}

	unlock := l.locks.Lock(lockKey(teacherID, voter.String()))
	defer unlock()

	if err := teacherExists(ctx, l.db, teacherID); err != nil {
		return models.Vote{}, err
	}
	existing, err := l.Find(ctx, teacherID, voter.String())
	if err != nil {
		return models.Vote{}, err
	}
	if existing != nil {
		return models.Vote{}, rejected(apperr.ErrDuplicateVote)
	}

	now := l.now()
	vote := models.Vote{
		ID:           uuid.NewString(),
		TeacherID:    teacherID,
		Identity:     voter.String(),
		IdentityKind: kindOf(voter),
		Rating:       rating,
		Comment:      comment,
		IsExplicit:   explicit,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var ip *string
	if ipHash != "" {
		ip = &ipHash
	}
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO vote (id, teacher_id, identity, identity_kind, rating, comment, is_explicit, ip_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, vote.ID, vote.TeacherID, vote.Identity, vote.IdentityKind, vote.Rating, vote.Comment, vote.IsExplicit, ip,
		vote.CreatedAt, vote.UpdatedAt)
	if db.IsUniqueViolation(err) {
		// Another process won the race; the constraint is the final word
		return models.Vote{}, rejected(apperr.ErrDuplicateVote)
	}
	if err != nil {
		slog.Error("failed to insert vote", "teacher_id", teacherID, "error", err)
		return models.Vote{}, apperr.Storage(err)
	}

	metrics.VotesSubmitted.WithLabelValues(vote.IdentityKind).Inc()
	slog.Info("vote submitted", "vote_id", vote.ID, "teacher_id", teacherID, "kind", vote.IdentityKind, "explicit", explicit)
	return vote, nil
}

// Update changes rating and comment on a vote that voter cast.
func (l *Ledger) Update(ctx context.Context, voteID string, voter Voter, rating int, comment string) (models.Vote, error) {
	comment, explicit, err := checkInput(voter, rating, comment)
	if err != nil {
		return models.Vote{}, rejected(err)
	}

	vote, err := l.Get(ctx, voteID)
	if err != nil {
		return models.Vote{}, err
	}
	if vote.Identity != voter.String() {
		return models.Vote{}, rejected(apperr.ErrNotOwner)
	}

	unlock := l.locks.Lock(lockKey(vote.TeacherID, vote.Identity))
	defer unlock()

	now := l.now()
	res, err := l.db.ExecContext(ctx, `
		UPDATE vote SET rating = $1, comment = $2, is_explicit = $3, updated_at = $4
		WHERE id = $5 AND identity = $6
	`, rating, comment, explicit, now, voteID, voter.String())
	if err != nil {
		return models.Vote{}, apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Deleted between the read and the lock
		return models.Vote{}, apperr.NotFound("vote not found")
	}

	vote.Rating = rating
	vote.Comment = comment
	vote.IsExplicit = explicit
	vote.UpdatedAt = now
	slog.Info("vote updated", "vote_id", voteID, "teacher_id", vote.TeacherID)
	return vote, nil
}

// Delete removes voter's vote for teacherID.
func (l *Ledger) Delete(ctx context.Context, teacherID string, voter Voter) error {
	unlock := l.locks.Lock(lockKey(teacherID, voter.String()))
	defer unlock()

	res, err := l.db.ExecContext(ctx, `
		DELETE FROM vote WHERE teacher_id = $1 AND identity = $2
	`, teacherID, voter.String())
	if err != nil {
		return apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("vote not found")
	}
	slog.Info("vote deleted", "teacher_id", teacherID, "kind", kindOf(voter))
	return nil
}

// DeleteByID removes any vote. Callers must have checked manage_votes.
func (l *Ledger) DeleteByID(ctx context.Context, voteID string) (models.Vote, error) {
	vote, err := l.Get(ctx, voteID)
	if err != nil {
		return models.Vote{}, err
	}

	unlock := l.locks.Lock(lockKey(vote.TeacherID, vote.Identity))
	defer unlock()

	res, err := l.db.ExecContext(ctx, `DELETE FROM vote WHERE id = $1`, voteID)
	if err != nil {
		return models.Vote{}, apperr.Storage(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.Vote{}, apperr.NotFound("vote not found")
	}
	slog.Info("vote removed by admin", "vote_id", voteID, "teacher_id", vote.TeacherID)
	return vote, nil
}

// HasVoted is a pure lookup.
func (l *Ledger) HasVoted(ctx context.Context, teacherID string, voter Voter) (bool, error) {
	v, err := l.Find(ctx, teacherID, voter.String())
	return v != nil, err
}

// Find returns the vote for (teacherID, identity), or nil.
func (l *Ledger) Find(ctx context.Context, teacherID, identity string) (*models.Vote, error) {
	row := l.db.QueryRowContext(ctx, selectVote+` WHERE teacher_id = $1 AND identity = $2`, teacherID, identity)
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &v, nil
}

func (l *Ledger) Get(ctx context.Context, voteID string) (models.Vote, error) {
	row := l.db.QueryRowContext(ctx, selectVote+` WHERE id = $1`, voteID)
	v, err := scanVote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Vote{}, apperr.NotFound("vote not found")
	}
	if err != nil {
		return models.Vote{}, apperr.Storage(err)
	}
	return v, nil
}

// List returns votes newest first, for one teacher or all when teacherID is empty.
func (l *Ledger) List(ctx context.Context, teacherID string) ([]models.Vote, error) {
	var rows *sql.Rows
	var err error
	if teacherID == "" {
		rows, err = l.db.QueryContext(ctx, selectVote+` ORDER BY created_at DESC, id`)
	} else {
		if err := teacherExists(ctx, l.db, teacherID); err != nil {
			return nil, err
		}
		rows, err = l.db.QueryContext(ctx, selectVote+` WHERE teacher_id = $1 ORDER BY created_at DESC, id`, teacherID)
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	out := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		out = append(out, v)
	}
	return out, apperr.Storage(rows.Err())
}

// CountByIdentity counts live votes cast by identity.
func (l *Ledger) CountByIdentity(ctx context.Context, identity string) (int, error) {
	var n int
	err := l.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vote WHERE identity = $1`, identity).Scan(&n)
	return n, apperr.Storage(err)
}

// VoteDays returns the distinct UTC dates on which identity's live votes
// were cast, most recent first.
func (l *Ledger) VoteDays(ctx context.Context, identity string) ([]time.Time, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT created_at FROM vote WHERE identity = $1 ORDER BY created_at DESC
	`, identity)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, apperr.Storage(err)
		}
		at = at.UTC()
		day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
		if len(days) == 0 || !days[len(days)-1].Equal(day) {
			days = append(days, day)
		}
	}
	return days, apperr.Storage(rows.Err())
}

const selectVote = `
	SELECT id, teacher_id, identity, identity_kind, rating, comment, is_explicit, created_at, updated_at
	FROM vote`

func scanVote(s scanner) (models.Vote, error) {
	var v models.Vote
	err := s.Scan(&v.ID, &v.TeacherID, &v.Identity, &v.IdentityKind, &v.Rating, &v.Comment, &v.IsExplicit,
		&v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func checkInput(voter Voter, rating int, comment string) (string, bool, error) {
	if voter == nil {
		return "", false, apperr.ErrUnauthenticated
	}
	if rating < MinRating || rating > MaxRating {
		return "", false, apperr.Invalid("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return "", false, apperr.Invalid("comment must be at most 1000 characters")
	}
	explicit := IsExplicit(comment)
	if explicit && voter.IsAnonymous() {
		return "", false, apperr.ErrExplicitContent
	}
	return comment, explicit, nil
}

func rejected(err error) error {
	metrics.VoteRejections.WithLabelValues(string(apperr.CodeOf(err))).Inc()
	return err
}

func kindOf(voter Voter) string {
	if voter.IsAnonymous() {
		return models.KindAnonymous
	}
	return models.KindAccount
}

func lockKey(teacherID, identity string) string {
	return teacherID + "|" + identity
}
