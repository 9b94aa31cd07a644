package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"roster-verifier/core/match"
	"roster-verifier/core/reconcile"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for reconcile team command
	reconcileTournament uint
	reconcileTeam       string
)

// reconcileCmd is the parent command for all reconcile operations.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Verify pending applications against the registry",
	Long: `Reconcile pending applications with the federation registry.
Every check is recorded; earlier results are kept as history.`,
}

// teamReconcileCmd runs one reconciliation job.
var teamReconcileCmd = &cobra.Command{
	Use:   "team",
	Short: "Reconcile every pending application of one team",
	Long: `Fetch the team's registry roster and verify every pending application of the team.

Examples:
  # Verify team "A大学" of tournament 3
  reconcile team --tournament 3 --team A大学`,
	RunE: runTeamReconcile,
}

func init() {
	reconcileCmd.AddCommand(teamReconcileCmd)

	teamReconcileCmd.Flags().UintVar(&reconcileTournament, "tournament", 0, "Tournament ID")
	teamReconcileCmd.Flags().StringVar(&reconcileTeam, "team", "", "Team name as entered by applicants")
	_ = teamReconcileCmd.MarkFlagRequired("tournament")
	_ = teamReconcileCmd.MarkFlagRequired("team")

	RootCmd.AddCommand(reconcileCmd)
}

func runTeamReconcile(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt, err := newServices()
	if err != nil {
		return err
	}
	defer rt.Close()
	l := rt.log

	engine, err := rt.engine(ctx, nil)
	if err != nil {
		return err
	}

	l.Info("Starting team reconciliation",
		zap.Uint("tournament_id", reconcileTournament),
		zap.String("team", reconcileTeam))

	summary, err := engine.Reconcile(ctx, reconcile.Request{TournamentID: reconcileTournament, Team: reconcileTeam})
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	printReconcileReport(l, summary)
	if summary.State == reconcile.StateFailed {
		return fmt.Errorf("registry unavailable (%s): %s", summary.FailureKind, summary.Error)
	}
	return nil
}

// printReconcileReport prints a formatted reconciliation report using logger.
func printReconcileReport(l *zap.Logger, s *reconcile.Summary) {
	l.Info("Reconciliation report",
		zap.String("job_id", s.JobID),
		zap.String("state", string(s.State)),
		zap.Int("registry_year", s.Year),
		zap.Int("attempts", s.Attempts),
		zap.Int("roster_size", s.RosterSize),
		zap.Int("matched", s.Counts[match.Matched]),
		zap.Int("ambiguous", s.Counts[match.Ambiguous]),
		zap.Int("not_found", s.Counts[match.NotFound]),
		zap.Int("registry_unavailable", s.Counts[match.RegistryUnavailable]),
	)

	// Show sample of results (max 10 for logger)
	maxShow := min(len(s.Results), 10)
	for _, r := range s.Results[:maxShow] {
		l.Info("Result",
			zap.Uint("application_id", r.ApplicationID),
			zap.String("name", r.Name),
			zap.String("outcome", string(r.Outcome)),
			zap.Float64("confidence", r.Confidence),
		)
	}
	if len(s.Results) > maxShow {
		l.Info("Additional results not shown", zap.Int("count", len(s.Results)-maxShow))
	}
}
