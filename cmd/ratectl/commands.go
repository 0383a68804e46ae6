// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/rate-my-teacher/capability"
	"github.com/danielhkuo/rate-my-teacher/cliparse"
	"github.com/danielhkuo/rate-my-teacher/db"
	"github.com/danielhkuo/rate-my-teacher/identity"
	"github.com/danielhkuo/rate-my-teacher/keylock"
	"github.com/danielhkuo/rate-my-teacher/lockout"
	"github.com/danielhkuo/rate-my-teacher/models"
	"github.com/danielhkuo/rate-my-teacher/points"
	"github.com/danielhkuo/rate-my-teacher/votes"
)

// operator acts with every permission. Database access is its authority.
type operator struct{}

func (operator) AccountID() string           { return "operator" }
func (operator) IsAdmin() bool               { return true }
func (operator) Permissions() capability.Set { return capability.NewSet(capability.All...) }

type options struct {
	dbURL  string
	dbType string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ratectl",
		Short:         "Operate a rate-my-teacher database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dbURL, "db", envOr("DATABASE_URL", "file:rate-my-teacher.db"), "Database URL")
	root.PersistentFlags().StringVar(&opts.dbType, "db-type", envOr("DATABASE_TYPE", cliparse.DatabaseSQLite), "Database type (sqlite or postgres)")

	root.AddCommand(
		migrateCmd(opts),
		createAdminCmd(opts),
		grantCmd(opts),
		revokeCmd(opts),
		lockCmd(opts),
		unlockCmd(opts),
		pointsCmd(opts),
	)
	return root
}

func migrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := opts.open()
			if err != nil {
				return err
			}
			defer conn.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", opts.dbType)
			return nil
		},
	}
}

func createAdminCmd(opts *options) *cobra.Command {
	var email, password string
	var perms []string

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account with initial permissions",
		Long: `Create an admin account. Repeat --perm for each permission:

  ratectl create-admin --email root@example.com --password ... \
    --perm manage_accounts --perm manage_permissions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			granted := make([]capability.Permission, 0, len(perms))
			for _, tag := range perms {
				p, err := capability.Parse(tag)
				if err != nil {
					return err
				}
				granted = append(granted, p)
			}

			conn, err := opts.open()
			if err != nil {
				return err
			}
			defer conn.Close()

			ctx := cmd.Context()
			accounts := identity.NewAccounts(conn)
			acct, err := accounts.Create(ctx, email, password, models.RoleAdmin)
			if err != nil {
				return err
			}
			if err := capability.NewStore(conn).Bootstrap(ctx, acct.ID, operator{}.AccountID(), granted...); err != nil {
				if delErr := accounts.Delete(ctx, acct.ID); delErr != nil {
					return fmt.Errorf("%w (account %s left behind: %v)", err, acct.ID, delErr)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s) with %d permission(s)\n", acct.Email, acct.ID, len(granted))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Admin email")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (8+ characters)")
	cmd.Flags().StringArrayVar(&perms, "perm", nil, "Permission to grant (repeatable)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func grantCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "grant <account> <permission>",
		Short: "Grant a permission to an admin (account id or email)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				p, err := capability.Parse(args[1])
				if err != nil {
					return err
				}
				if err := capability.NewStore(conn).Grant(ctx, operator{}, acct.ID, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "granted %s to %s\n", p, acct.Email)
				return nil
			})
		},
	}
}

func revokeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <account> <permission>",
		Short: "Revoke a permission from an admin (account id or email)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				p, err := capability.Parse(args[1])
				if err != nil {
					return err
				}
				if err := capability.NewStore(conn).Revoke(ctx, operator{}, acct.ID, p); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "revoked %s from %s\n", p, acct.Email)
				return nil
			})
		},
	}
}

func lockCmd(opts *options) *cobra.Command {
	var minutes int

	cmd := &cobra.Command{
		Use:   "lock <account>",
		Short: "Lock an account for a number of minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				status, err := lockout.NewManager(conn).Lock(ctx, acct.ID, minutes)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "locked %s until %s (%s)\n",
					acct.Email, status.LockedUntil.Format("2006-01-02 15:04 MST"), humanize.Time(status.LockedUntil))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&minutes, "minutes", 60, "Lock duration in minutes")
	return cmd
}

func unlockCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <account>",
		Short: "Lift an account lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				if err := lockout.NewManager(conn).Unlock(ctx, acct.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "unlocked %s\n", acct.Email)
				return nil
			})
		},
	}
}

func pointsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "points",
		Short: "Inspect and correct points balances",
	}

	var balance int64
	adjust := &cobra.Command{
		Use:   "adjust <account>",
		Short: "Set an account's balance by appending the difference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				locks := keylock.New()
				ledger := points.NewLedger(conn, locks)
				tx, err := ledger.AdminAdjust(ctx, operator{}, acct.ID, balance)
				if err != nil {
					return err
				}
				if tx == nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s already has %s points\n", acct.Email, humanize.Comma(balance))
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s balance now %s (%+d)\n", acct.Email, humanize.Comma(balance), tx.Delta)

				tiers := points.DefaultTiers()
				if path := os.Getenv("BADGE_CONFIG"); path != "" {
					if tiers, err = points.LoadTiers(path); err != nil {
						return err
					}
				}
				badges, err := points.NewEvaluator(conn, votes.NewLedger(conn, locks), ledger, tiers, locks).Evaluate(ctx, acct.ID)
				if err != nil {
					return err
				}
				for _, b := range badges {
					fmt.Fprintf(cmd.OutOrStdout(), "badge earned: %s level %d\n", b.BadgeType, b.Level)
				}
				return nil
			})
		},
	}
	adjust.Flags().Int64Var(&balance, "balance", 0, "New balance")
	adjust.MarkFlagRequired("balance")

	show := &cobra.Command{
		Use:   "show <account>",
		Short: "Print balance and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withAccount(cmd, args[0], func(ctx context.Context, conn *sql.DB, acct models.Account) error {
				ledger := points.NewLedger(conn, keylock.New())
				history, err := ledger.History(ctx, acct.ID)
				if err != nil {
					return err
				}
				var total int64
				out := cmd.OutOrStdout()
				for _, tx := range history {
					total += tx.Delta
					fmt.Fprintf(out, "%6d  %+6d  %-14s %s\n", tx.ID, tx.Delta, tx.Reason, humanize.Time(tx.CreatedAt))
				}
				fmt.Fprintf(out, "balance: %s\n", humanize.Comma(total))
				return nil
			})
		},
	}

	cmd.AddCommand(adjust, show)
	return cmd
}

// open connects and brings the schema up to date.
func (o *options) open() (*sql.DB, error) {
	conn, err := db.Open(o.dbType, o.dbURL)
	if err != nil {
		return nil, err
	}
	if err := db.CreateSchema(conn, o.dbType); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// withAccount resolves ref (an id, or an email when it contains "@") and
// runs fn against an open connection.
func (o *options) withAccount(cmd *cobra.Command, ref string, fn func(context.Context, *sql.DB, models.Account) error) error {
	conn, err := o.open()
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := cmd.Context()
	accounts := identity.NewAccounts(conn)
	var acct models.Account
	if strings.Contains(ref, "@") {
		acct, _, err = accounts.ByEmail(ctx, ref)
	} else {
		acct, err = accounts.Get(ctx, ref)
	}
	if err != nil {
		return fmt.Errorf("account %s: %w", ref, err)
	}
	return fn(ctx, conn, acct)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
