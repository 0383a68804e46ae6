// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package points

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/danielhkuo/rate-my-teacher/apperr"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/metrics"
	"github.com/danielhkuo/rate-my-teacher/models"
)

// Activity supplies the vote metrics badges are computed from.
// votes.Ledger satisfies it.
type Activity interface {
	CountByIdentity(ctx context.Context, identity string) (int, error)
	VoteDays(ctx context.Context, identity string) ([]time.Time, error)
}

type Evaluator struct {
	db       *sql.DB
	activity Activity
	ledger   *Ledger
	tiers    Tiers
	locks    *keylock.Map
	now      func() time.Time
}

func NewEvaluator(conn *sql.DB, activity Activity, ledger *Ledger, tiers Tiers, locks *keylock.Map) *Evaluator {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	return &Evaluator{
		db:       conn,
		activity: activity,
		ledger:   ledger,
		tiers:    tiers,
		locks:    locks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Evaluate awards every level whose threshold the account has reached
// and that it does not already hold. It returns only the badges this
// call inserted, so a second call with no new activity returns none.
func (e *Evaluator) Evaluate(ctx context.Context, accountID string) ([]models.Badge, error) {
	unlock := e.locks.Lock("badges|" + accountID)
	defer unlock()

	scores, err := e.measure(ctx, accountID)
	if err != nil {
		return nil, err
	}

	awarded := []models.Badge{}
	for _, badgeType := range badgeOrder {
		for i, threshold := range e.tiers[badgeType] {
			if scores[badgeType] < threshold {
				break
			}
			badge, inserted, err := e.insert(ctx, accountID, badgeType, i+1)
			if err != nil {
				return nil, err
			}
			if inserted {
				awarded = append(awarded, badge)
			}
		}
	}
	return awarded, nil
}

// List returns the badges an account holds.
func (e *Evaluator) List(ctx context.Context, accountID string) ([]models.Badge, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT account_id, badge_type, level, awarded_at
		FROM badge WHERE account_id = $1 ORDER BY awarded_at, badge_type, level
	`, accountID)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	defer rows.Close()

	badges := []models.Badge{}
	for rows.Next() {
		var b models.Badge
		if err := rows.Scan(&b.AccountID, &b.BadgeType, &b.Level, &b.AwardedAt); err != nil {
			return nil, apperr.Storage(err)
		}
		badges = append(badges, b)
	}
	return badges, apperr.Storage(rows.Err())
}

func (e *Evaluator) measure(ctx context.Context, accountID string) (map[string]int64, error) {
	key := identity.AccountKey(accountID)

	count, err := e.activity.CountByIdentity(ctx, key)
	if err != nil {
		return nil, err
	}
	days, err := e.activity.VoteDays(ctx, key)
	if err != nil {
		return nil, err
	}
	balance, err := e.ledger.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return map[string]int64{
		models.BadgeVoter:  int64(count),
		models.BadgeStreak: int64(Streak(days)),
		models.BadgePoints: balance,
	}, nil
}

func (e *Evaluator) insert(ctx context.Context, accountID, badgeType string, level int) (models.Badge, bool, error) {
	badge := models.Badge{
		AccountID: accountID,
		BadgeType: badgeType,
		Level:     level,
		AwardedAt: e.now(),
	}
	res, err := e.db.ExecContext(ctx, `
		INSERT INTO badge (account_id, badge_type, level, awarded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, badge_type, level) DO NOTHING
	`, badge.AccountID, badge.BadgeType, badge.Level, badge.AwardedAt)
	if err != nil {
		return models.Badge{}, false, apperr.Storage(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Badge{}, false, apperr.Storage(err)
	}
	if n == 0 {
		return models.Badge{}, false, nil
	}

	metrics.BadgesAwarded.WithLabelValues(badgeType).Inc()
	slog.Info("badge awarded", "account_id", accountID, "badge_type", badgeType, "level", level)
	return badge, true, nil
}

// Streak counts consecutive UTC days ending at the most recent one.
// days must be distinct midnights, most recent first.
func Streak(days []time.Time) int {
	if len(days) == 0 {
		return 0
	}
	streak := 1
	for i := 1; i < len(days); i++ {
		if !days[i].Equal(days[0].AddDate(0, 0, -i)) {
			break
		}
		streak++
	}
	return streak
}
