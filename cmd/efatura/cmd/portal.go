package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	portalBusiness string
	portalFrom     string
	portalTo       string
)

var portalCmd = &cobra.Command{
	Use:   "portal",
	Short: "Talk to the GIB e-Fatura portal",
	Long: `Commands that use a business's GIB portal credentials. Credentials come
from the business's e-Fatura settings and fall back to GIB_USERNAME and
GIB_PASSWORD.`,
}

var portalTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Check that a portal session can be opened",
	Example: `  efatura portal test --business biz_123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd, time.Minute)
		defer cancel()

		ok, err := a.svc.TestPortalConnection(ctx, portalBusiness)
		if err != nil {
			return err
		}
		if outputFormat == "json" {
			return printJSON(map[string]bool{"connected": ok})
		}
		if !ok {
			return fmt.Errorf("portal connection failed for %s", portalBusiness)
		}
		fmt.Printf("✓ portal connection OK for %s\n", portalBusiness)
		return nil
	},
}

var portalStatusCmd = &cobra.Command{
	Use:   "status <invoice-id>...",
	Short: "Refresh the portal status of sent invoices",
	Example: `  efatura portal status inv_01hx... inv_01hy...`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		failed := 0
		for _, id := range args {
			ctx, cancel := commandContext(cmd, time.Minute)
			inv, err := a.svc.RefreshStatus(ctx, id)
			cancel()
			if err != nil {
				failed++
				fmt.Printf("✗ %s: %v\n", id, err)
				continue
			}
			fmt.Printf("✓ %s %s: %s\n", id, inv.InvoiceNumber, inv.GIBStatus)
			if inv.GIBErrorCode != "" {
				fmt.Printf("  %s %s\n", inv.GIBErrorCode, inv.GIBErrorMessage)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d status queries failed", failed, len(args))
		}
		return nil
	},
}

var portalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices the portal holds for a date range",
	Example: `  efatura portal list --business biz_123 --from 2026-01-01 --to 2026-01-31`,
	RunE: func(cmd *cobra.Command, args []string) error {
		start, err := time.Parse(time.DateOnly, portalFrom)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		end := time.Now()
		if portalTo != "" {
			if end, err = time.Parse(time.DateOnly, portalTo); err != nil {
				return fmt.Errorf("--to: %w", err)
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := commandContext(cmd, 2*time.Minute)
		defer cancel()

		settings, err := a.store.GetSettings(ctx, portalBusiness)
		if err != nil {
			return fmt.Errorf("settings for %s: %w", portalBusiness, err)
		}
		client, err := a.portals.Client(settings)
		if err != nil {
			return err
		}
		list, err := client.GetInvoiceList(ctx, start, end)
		if err != nil {
			return err
		}

		if outputFormat == "json" {
			return printJSON(list)
		}
		for _, s := range list {
			date := "-"
			if !s.StatusDate.IsZero() {
				date = s.StatusDate.Format(time.DateOnly)
			}
			fmt.Printf("%-20s %-36s %-10s %s\n", s.InvoiceNumber, s.InvoiceUUID, s.Status, date)
		}
		fmt.Printf("%d invoice(s)\n", len(list))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portalCmd)
	portalCmd.AddCommand(portalTestCmd, portalStatusCmd, portalListCmd)

	for _, c := range []*cobra.Command{portalTestCmd, portalListCmd} {
		c.Flags().StringVar(&portalBusiness, "business", "", "Business ID")
		_ = c.MarkFlagRequired("business")
	}
	portalListCmd.Flags().StringVar(&portalFrom, "from", "", "Start date (YYYY-MM-DD)")
	portalListCmd.Flags().StringVar(&portalTo, "to", "", "End date (YYYY-MM-DD, default today)")
	_ = portalListCmd.MarkFlagRequired("from")
}
