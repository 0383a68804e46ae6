// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/csrf"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/lockout"
	"github.com/danielhkuo/rate-my-teacher/points"
	"github.com/danielhkuo/rate-my-teacher/ratings"
	"github.com/danielhkuo/rate-my-teacher/votes"
)

// Services is the set of domain components the handlers share.
type Services struct {
	Teachers   *votes.Teachers
	Votes      *votes.Ledger
	Aggregates *votes.Aggregator
	Points     *points.Ledger
	Badges     *points.Evaluator
	Ratings    *ratings.Service
	Accounts   *identity.Accounts
	Auth       *identity.Authenticator
	Resolver   *identity.Resolver
	Grants     *capability.Store
	Locks      *lockout.Manager
	Csrf       *csrf.Guard
}

// NewServices wires every component against db. tiers may be nil for
// the default badge levels.
func NewServices(db *sql.DB, cfg cliparse.Config, csrfStore csrf.Store, tiers points.Tiers) *Services {
	locks := keylock.New()

	ledger := votes.NewLedger(db, locks)
	aggregates := votes.NewAggregator(db)
	pts := points.NewLedger(db, locks)
	badges := points.NewEvaluator(db, ledger, pts, tiers, locks)

	accounts := identity.NewAccounts(db)
	sessions := identity.NewSessions(db, cfg.SessionTTL)
	signer := identity.NewSigner(cfg.JWTSecret)
	lockManager := lockout.NewManager(db)
	grants := capability.NewStore(db)

	return &Services{
		Teachers:   votes.NewTeachers(db),
		Votes:      ledger,
		Aggregates: aggregates,
		Points:     pts,
		Badges:     badges,
		Ratings:    ratings.NewService(ledger, aggregates, pts, badges),
		Accounts:   accounts,
		Auth:       identity.NewAuthenticator(accounts, sessions, signer, lockManager, grants),
		Resolver:   identity.NewResolver(accounts, sessions, signer, lockManager, grants),
		Grants:     grants,
		Locks:      lockManager,
		Csrf:       csrf.NewGuard(csrfStore, cfg.SessionTTL),
	}
}
