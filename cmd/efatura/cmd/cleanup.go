package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	cleanupBusiness string
	cleanupDays     int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old draft invoices",
	Long: `Hard-delete DRAFT invoices of a business that are older than the
retention period. Their audit logs are kept.

Examples:
  efatura cleanup --business biz_123
  efatura cleanup --business biz_123 --older-than-days 30`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)

	cleanupCmd.Flags().StringVar(&cleanupBusiness, "business", "", "Business ID")
	cleanupCmd.Flags().IntVar(&cleanupDays, "older-than-days", 0, "Retention in days (default EFATURA_DRAFT_RETENTION_DAYS)")
	_ = cleanupCmd.MarkFlagRequired("business")
}

func runCleanup(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	days := cleanupDays
	if days <= 0 {
		days = a.cfg.DraftRetentionDays
	}

	ctx, cancel := commandContext(cmd, time.Minute)
	defer cancel()

	n, err := a.svc.CleanupDraftInvoices(ctx, cleanupBusiness, days)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return printJSON(map[string]any{"businessId": cleanupBusiness, "olderThanDays": days, "deleted": n})
	}
	fmt.Printf("Deleted %d draft invoice(s) older than %d days\n", n, days)
	return nil
}
