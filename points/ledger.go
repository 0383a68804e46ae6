// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package points

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/metrics"
	"github.com/danielhkuo/rate-my-teacher/models"
)

const maxReasonLength = 64

// errAlreadyAwarded aborts the transaction when another writer took the award key first.
var errAlreadyAwarded = errors.New("award key already used")

// VoteCastAward is what an account earns for its first vote on a teacher.
const VoteCastAward = 5

// MaxBalance caps both a single delta and any resulting balance.
const MaxBalance = 1_000_000

// Ledger is an append-only log of point transactions. Balances are
// always the sum of the log.
type Ledger struct {
	db    *sql.DB
	locks *keylock.Map
	now   func() time.Time
}

func NewLedger(conn *sql.DB, locks *keylock.Map) *Ledger {
	return &Ledger{db: conn, locks: locks, now: func() time.Time { return time.Now().UTC() }}
}

// VoteCastKey identifies the one-time award for voting on teacherID.
func VoteCastKey(teacherID string) string {
	return models.ReasonVoteCast + ":" + teacherID
}

// Award appends delta for accountID. A negative delta is clamped so the
// balance stops at zero; the clamped amount is what gets stored. A nil
// transaction means nothing was appended.
func (l *Ledger) Award(ctx context.Context, accountID, reason string, delta int64) (*models.PointsTransaction, error) {
	return l.append(ctx, accountID, reason, "", delta)
}

// AwardOnce is Award keyed by (accountID, key). Only the first call for
// a key appends; later calls return nil.
func (l *Ledger) AwardOnce(ctx context.Context, accountID, reason, key string, delta int64) (*models.PointsTransaction, error) {
	if key == "" {
		return nil, apperr.Invalid("award key is required")
	}
	return l.append(ctx, accountID, reason, key, delta)
}

// AdminAward is Award on behalf of an admin holding manage_accounts.
func (l *Ledger) AdminAward(ctx context.Context, actor capability.Principal, accountID, reason string, delta int64) (*models.PointsTransaction, error) {
	if err := capability.RequirePermission(actor, capability.ManageAccounts); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = models.ReasonAdminAward
	}
	tx, err := l.Award(ctx, accountID, reason, delta)
	if err == nil {
		slog.Info("points awarded by admin", "account_id", accountID, "delta", delta, "actor", actor.AccountID())
	}
	return tx, err
}

// AdminAdjust sets the balance to newBalance by appending one corrective
// transaction of newBalance - current. Nothing is appended when the
// balance already matches.
func (l *Ledger) AdminAdjust(ctx context.Context, actor capability.Principal, accountID string, newBalance int64) (*models.PointsTransaction, error) {
	if err := capability.RequirePermission(actor, capability.ManageAccounts); err != nil {
		return nil, err
	}
	if newBalance < 0 || newBalance > MaxBalance {
		return nil, apperr.Invalid("invalid amount")
	}

	unlock := l.locks.Lock(accountKey(accountID))
	defer unlock()

	if err := l.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	var out *models.PointsTransaction
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		current, err := balance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		delta := newBalance - current
		if delta == 0 {
			return nil
		}
		out, err = l.insert(ctx, tx, accountID, models.ReasonAdminAdjust, "", delta)
		return err
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		metrics.PointsAwarded.Inc()
	}
	slog.Info("points adjusted", "account_id", accountID, "balance", newBalance, "actor", actor.AccountID())
	return out, nil
}

func (l *Ledger) Balance(ctx context.Context, accountID string) (int64, error) {
	return balance(ctx, l.db, accountID)
}

// History lists transactions oldest first.
func (l *Ledger) History(ctx context.Context, accountID string) ([]models.PointsTransaction, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, account_id, reason, delta, created_at
		FROM points_transaction WHERE account_id = $1 ORDER BY id
	`, accountID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	history := []models.PointsTransaction{}
	for rows.Next() {
		var tx models.PointsTransaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.Reason, &tx.Delta, &tx.CreatedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		history = append(history, tx)
	}
	return history, apperr.Storage(rows.Err())
}

func (l *Ledger) append(ctx context.Context, accountID, reason, key string, delta int64) (*models.PointsTransaction, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" || len(reason) > maxReasonLength {
		return nil, apperr.Invalid("reason must be 1 to 64 characters")
	}
	if delta == 0 {
		return nil, apperr.Invalid("delta must not be zero")
	}
	if delta > MaxBalance || delta < -MaxBalance {
		return nil, apperr.Invalid("invalid amount")
	}

	unlock := l.locks.Lock(accountKey(accountID))
	defer unlock()

	if err := l.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}

	var out *models.PointsTransaction
	err := l.inTx(ctx, func(tx *sql.Tx) error {
		if key != "" {
			var one int
			err := tx.QueryRowContext(ctx, `
				SELECT 1 FROM points_transaction WHERE account_id = $1 AND award_key = $2
			`, accountID, key).Scan(&one)
			if err == nil {
				return nil
			}
			if !errors.Is(err, sql.ErrNoRows) {
				return apperr.Storage(err)
			}
		}

		current, err := balance(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if current+delta > MaxBalance {
			return apperr.Invalid("invalid amount")
		}
		if current+delta < 0 {
			delta = -current
		}
		if delta == 0 {
			return nil
		}

		out, err = l.insert(ctx, tx, accountID, reason, key, delta)
		return err
	})
	if errors.Is(err, errAlreadyAwarded) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if out != nil {
		metrics.PointsAwarded.Inc()
		slog.Info("points awarded", "account_id", accountID, "reason", reason, "delta", out.Delta)
	}
	return out, nil
}

func (l *Ledger) insert(ctx context.Context, tx *sql.Tx, accountID, reason, key string, delta int64) (*models.PointsTransaction, error) {
	var awardKey *string
	if key != "" {
		awardKey = &key
	}
	out := &models.PointsTransaction{
		AccountID: accountID,
		Reason:    reason,
		Delta:     delta,
		CreatedAt: l.now(),
	}
	err := tx.QueryRowContext(ctx, `
		INSERT INTO points_transaction (account_id, reason, delta, award_key, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, accountID, reason, delta, awardKey, out.CreatedAt).Scan(&out.ID)
	if db.IsUniqueViolation(err) {
		return nil, errAlreadyAwarded
	}
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return out, nil
}

func (l *Ledger) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Storage(err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return apperr.Storage(tx.Commit())
}

func (l *Ledger) requireAccount(ctx context.Context, accountID string) error {
	var one int
	err := l.db.QueryRowContext(ctx, `SELECT 1 FROM account WHERE id = $1`, accountID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("account not found")
	}
	return apperr.Storage(err)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q querier, accountID string) (int64, error) {
	var sum int64
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(delta), 0) FROM points_transaction WHERE account_id = $1
	`, accountID).Scan(&sum)
	if err != nil {
		return 0, apperr.Storage(err)
	}
	return sum, nil
}

func accountKey(accountID string) string {
	return "points|" + accountID
}
