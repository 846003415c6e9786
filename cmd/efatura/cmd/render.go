package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/ubl"
)

var (
	renderOutput   string
	renderTypeCode string
)

var renderCmd = &cobra.Command{
	Use:   "render <invoice-data.json>",
	Short: "Render invoice data as a UBL-TR 2.1 document",
	Long: `Validate an InvoiceData JSON document and render it as UBL-TR 2.1 XML.
A fresh UUID and ETTN are minted on every run. Use - to read stdin.

Examples:
  efatura render invoice.json -o invoice.xml
  cat invoice.json | efatura render -`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write the XML here instead of stdout")
	renderCmd.Flags().StringVar(&renderTypeCode, "type-code", "", "Emit this InvoiceTypeCode instead of SATIS")
}

func runRender(cmd *cobra.Command, args []string) error {
	raw, err := readInput(args[0])
	if err != nil {
		return err
	}

	var data model.InvoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("parse invoice data: %w", err)
	}

	var opts []ubl.Option
	if renderTypeCode != "" {
		code := model.InvoiceType(renderTypeCode)
		if !code.IsValid() {
			return fmt.Errorf("unknown invoice type code %q", renderTypeCode)
		}
		opts = append(opts, ubl.WithInvoiceTypeCode(code))
	}

	doc, err := ubl.Build(&data, opts...)
	if err != nil {
		return err
	}
	printVerbose("Rendered %s (UUID %s, ETTN %s)\n", data.InvoiceNumber, doc.UUID, doc.ETTN)

	return writeOutput(renderOutput, doc.XML)
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printVerbose("Wrote %s (%d bytes)\n", path, len(data))
	return nil
}
