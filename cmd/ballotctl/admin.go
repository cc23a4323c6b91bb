package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vncsmyrnk/keyvote/internal/core/domain"
	"github.com/vncsmyrnk/keyvote/internal/core/ports"
	"github.com/vncsmyrnk/keyvote/internal/core/services"
)

var (
	resetConfirmed bool
	repair         bool
)

func init() {
	resetCmd.Flags().BoolVar(&resetConfirmed, "yes", false, "confirm that all data should be deleted")
	reconcileCmd.Flags().BoolVar(&repair, "repair", false, "overwrite candidate tallies with the ledger counts")

	rootCmd.AddCommand(statsCmd, resetCmd, reconcileCmd, hashPasswordCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show key usage, vote counts and the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			stats, err := services.NewAdminService(store).Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, stats)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all keys, candidates, sessions and votes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetConfirmed {
			return errors.New("refusing to reset without --yes")
		}
		return withStore(cmd.Context(), func(store ports.Store) error {
			if err := services.NewAdminService(store).Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All data reset successfully.")
			return nil
		})
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Compare candidate and session counters against the vote ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(store ports.Store) error {
			report, err := services.NewReconcileService(store).Reconcile(cmd.Context(), repair)
			if err != nil {
				return err
			}
			if err := printJSON(cmd, report); err != nil {
				return err
			}
			return reconcileError(report)
		})
	},
}

// reconcileError describes what is still inconsistent after a reconcile run.
// Tally mismatches are left only when --repair was not given.
func reconcileError(report *domain.ReconcileReport) error {
	var errs []error
	if len(report.Mismatches) > 0 && !report.Repaired {
		errs = append(errs, fmt.Errorf("%d candidate tallies disagree with the ledger; rerun with --repair", len(report.Mismatches)))
	}
	if !report.SessionConsistent() {
		errs = append(errs, fmt.Errorf("latest session counts %d votes but the ledger holds %d in its window; --repair does not rewrite session counters",
			report.SessionTotal, report.SessionLedger))
	}
	return errors.Join(errs...)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Read a password from stdin and print its ADMIN_PASSWORD_HASH",
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return err
		}
		hash, err := services.HashAdminPassword(strings.TrimRight(string(raw), "\r\n"))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(hash))
		return nil
	},
}
