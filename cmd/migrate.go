package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCheck bool

// migrateCmd creates or updates the tables, or only reports drift with --check.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Long: `Create or update the tables used by the roster verifier.
With --check nothing is changed; missing columns are reported and the command fails if any exist.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rt, err := newServices()
		if err != nil {
			return err
		}
		defer rt.Close()

		if !migrateCheck {
			if err := rt.store.Migrate(ctx); err != nil {
				return err
			}
			rt.log.Info("Database migrated")
			return nil
		}

		report, err := rt.store.VerifySchema(ctx)
		if err != nil {
			return err
		}
		if len(report) == 0 {
			rt.log.Info("Database schema is up to date")
			return nil
		}

		tables := make([]string, 0, len(report))
		for table := range report {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		for _, table := range tables {
			rt.log.Warn("Missing columns", zap.String("table", table), zap.Strings("columns", report[table]))
		}
		return fmt.Errorf("schema drift in %d tables, run migrate", len(tables))
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateCheck, "check", false, "Only report missing tables and columns")
	RootCmd.AddCommand(migrateCmd)
}
