package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Create or update the tables used by the engine: orders, customers,
services, e-Fatura settings, invoices, invoice items and invoice logs.

Examples:
  EFATURA_DATABASE_DRIVER=postgres EFATURA_DATABASE_DSN=postgres://... efatura migrate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd, 2*time.Minute)
		defer cancel()

		if err := a.store.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Printf("Schema is up to date (%s)\n", a.cfg.DatabaseDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
