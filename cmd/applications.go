package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	resetApplicationID uint
	yesConfirm         bool
)

// applicationsCmd groups application administration.
var applicationsCmd = &cobra.Command{
	Use:   "applications",
	Short: "Administer applications",
}

// applicationsResetCmd returns an application to pending.
var applicationsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Return an application to pending for re-verification",
	Long: `Return an application to pending so that the next reconciliation of its team checks it again.
Existing results are kept as history.

Examples:
  applications reset --id 42
  applications reset --id 42 --yes`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.Close()

		app, err := rt.store.Applications.Get(ctx, resetApplicationID)
		if err != nil {
			return fmt.Errorf("application %d: %w", resetApplicationID, err)
		}
		rt.log.Info("Application found",
			zap.Uint("id", app.ID),
			zap.String("name", app.Name),
			zap.String("team", app.Team),
			zap.String("status", string(app.Status)))

		if !confirmAction() {
			rt.log.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}
		if err := rt.store.Applications.ResetStatus(ctx, app.ID); err != nil {
			return err
		}
		rt.log.Info("Application reset to pending", zap.Uint("id", app.ID))
		return nil
	},
}

func init() {
	applicationsResetCmd.Flags().UintVar(&resetApplicationID, "id", 0, "Application ID")
	applicationsResetCmd.Flags().BoolVar(&yesConfirm, "yes", false, "Auto-confirm (non-interactive)")
	_ = applicationsResetCmd.MarkFlagRequired("id")

	applicationsCmd.AddCommand(applicationsResetCmd)
	RootCmd.AddCommand(applicationsCmd)
}

// confirmAction prompts the user for confirmation or uses --yes flag.
func confirmAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\nType 'yes' to confirm: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(response)
	return response == "yes"
}
