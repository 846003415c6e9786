package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	envFile      string
)

var rootCmd = &cobra.Command{
	Use:   "efatura",
	Short: "Turkish e-Fatura engine for laundry orders",
	Long: `efatura turns completed laundry orders into UBL-TR 2.1 e-Fatura documents
and manages their lifecycle at the GIB portal.

Configuration is read from the environment and from a .env file in the
working directory (see --env-file).

Examples:
  # Run the HTTP API with the background sender
  efatura serve

  # Create or update the database schema
  efatura migrate

  # Render invoice data to UBL XML
  efatura render invoice.json -o invoice.xml

  # Check tax numbers
  efatura validate tax-number 1234567890 10000000146

  # Sign and verify a document
  efatura sign invoice.xml --cert mali-muhur.p12 --password secret
  efatura verify invoice.signed.xml --ca-file kamusm.pem`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		if err := godotenv.Overload(envFile); err != nil {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "table", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment overrides from this file")
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
