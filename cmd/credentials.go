package cmd

import (
	"context"
	"fmt"

	"roster-verifier/core/credentials"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	credentialsEmail      string
	credentialsPassword   string
	credentialsTournament uint
)

// credentialsCmd groups registry credential management.
var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage registry login credentials",
}

// credentialsSetCmd seals and stores a registry login.
var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the registry login for a tournament or globally",
	Long: `Seal a registry login with the configured credentials key and store it.
Without --tournament the login is the global fallback used by every tournament.

Examples:
  # Global login
  credentials set --email team@example.com --password secret

  # Login for tournament 3 only
  credentials set --email team@example.com --password secret --tournament 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.Close()

		if err := rt.store.Migrate(ctx); err != nil {
			return err
		}
		creds, err := rt.credentials()
		if err != nil {
			return err
		}
		if err := creds.Set(ctx, credentialsTournament, credentialsEmail, credentialsPassword); err != nil {
			return fmt.Errorf("failed to store credentials: %w", err)
		}
		rt.log.Info("Registry credentials stored",
			zap.String("email", credentialsEmail),
			zap.Uint("tournament_id", credentialsTournament))
		return nil
	},
}

// credentialsKeygenCmd prints a new sealing key.
var credentialsKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Print a new key for CREDENTIALS_KEY",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := credentials.GenerateKey()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	credentialsSetCmd.Flags().StringVar(&credentialsEmail, "email", "", "Registry login email")
	credentialsSetCmd.Flags().StringVar(&credentialsPassword, "password", "", "Registry login password")
	credentialsSetCmd.Flags().UintVar(&credentialsTournament, "tournament", 0, "Tournament ID (0 = global)")
	_ = credentialsSetCmd.MarkFlagRequired("email")
	_ = credentialsSetCmd.MarkFlagRequired("password")

	credentialsCmd.AddCommand(credentialsSetCmd, credentialsKeygenCmd)
	RootCmd.AddCommand(credentialsCmd)
}
