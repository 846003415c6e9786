package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/trust"
	xmldsig "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/signature/xml"
)

var (
	caFile   string
	skipOCSP bool
)

var verifyCmd = &cobra.Command{
	Use:   "verify [files...]",
	Short: "Verify digital signatures",
	Long: `Verify enveloped XML-DSig signatures on signed e-Fatura documents.

Verifies:
  - Signature validity (cryptographic verification)
  - Certificate chain (to the roots given with --ca-file)
  - Certificate revocation (OCSP, soft-failed with --skip-ocsp)
  - Signer information, including the VKN/TCKN in the certificate subject

Examples:
  # Verify against the Kamu SM roots
  efatura verify --ca-file kamusm.pem invoice.xml

  # Verify every XML file in a directory
  efatura verify --ca-file kamusm.pem archive/

  # JSON output
  efatura verify -f json invoice.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&caFile, "ca-file", "", "Trusted CA certificates (PEM format)")
	verifyCmd.Flags().BoolVar(&skipOCSP, "skip-ocsp", false, "Accept certificates whose revocation status cannot be checked")
}

func runVerify(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to verify")
	}

	var opts []trust.TrustStoreOption
	if caFile != "" {
		opts = append(opts, trust.WithCertificatesFromFile(caFile))
	}
	if skipOCSP {
		opts = append(opts, trust.WithSoftFail())
	}

	trustStore, err := trust.NewTrustStore(opts...)
	if err != nil {
		return fmt.Errorf("failed to create trust store: %w", err)
	}
	verifier := xmldsig.NewXMLVerifier(trustStore)

	results := make([]*VerifyResult, 0, len(files))
	allValid := true

	for _, file := range files {
		printVerbose("Verifying: %s\n", file)

		result := verifyFile(cmd.Context(), verifier, file)
		results = append(results, result)

		if !result.Valid() {
			allValid = false
		}
	}

	if outputFormat == "json" {
		if err := printJSON(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			printVerifyResult(r)
		}
	}

	if !allValid {
		return fmt.Errorf("verification failed for some files")
	}

	return nil
}

func printVerifyResult(r *VerifyResult) {
	statusIcon, statusText := "✓", "VALID"
	if !r.Valid() {
		statusIcon, statusText = "✗", "INVALID"
	}
	fmt.Printf("%s %s: %s\n", statusIcon, r.File, statusText)

	if r.Error != "" {
		fmt.Printf("  ✗ %s\n", r.Error)
		return
	}
	res := r.Result
	if d := res.Document; d != nil {
		fmt.Printf("  Invoice: %s (UUID %s)\n", d.InvoiceNumber, d.UUID)
	}
	if s := res.Signer; s != nil {
		fmt.Printf("  Signer: %s\n", s.Name)
		if s.TaxID != "" {
			fmt.Printf("  VKN/TCKN: %s\n", s.TaxID)
		}
		if s.Issuer != "" {
			fmt.Printf("  Issuer: %s\n", s.Issuer)
		}
	}
	if res.SignedAt != nil {
		fmt.Printf("  Signed: %s\n", res.SignedAt.Format(time.RFC3339))
	}

	if res.SignatureFound {
		fmt.Printf("  Signature:   %s\n", mark(res.SignatureValid))
		fmt.Printf("  Cert Chain:  %s\n", mark(res.CertChainValid))
		fmt.Printf("  Not Revoked: %s\n", mark(res.NotRevoked))
	}

	for _, e := range res.Errors {
		fmt.Printf("  ✗ %s\n", e)
	}
	for _, w := range res.Warnings {
		fmt.Printf("  ⚠ %s\n", w)
	}
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func verifyFile(ctx context.Context, verifier signature.Verifier, filePath string) *VerifyResult {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	result := &VerifyResult{File: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	if !verifier.CanVerify(data) {
		result.Error = "not an XML document"
		return result
	}

	verifyResult, err := verifier.Verify(ctx, data)
	if err != nil {
		result.Error = fmt.Sprintf("verification error: %v", err)
		return result
	}
	result.Result = verifyResult
	return result
}

// collectFiles expands globs and walks directories for XML files
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() && isXMLFile(path) {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			} else {
				files = append(files, arg)
			}
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if !info.IsDir() && isXMLFile(match) {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func isXMLFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".xml")
}

// VerifyResult holds the result of verifying a single file
type VerifyResult struct {
	File   string                        `json:"file"`
	Result *signature.VerificationResult `json:"result,omitempty"`
	Error  string                        `json:"error,omitempty"`
}

// Valid reports whether the file was examined and every check passed
func (r *VerifyResult) Valid() bool {
	return r.Result != nil && r.Result.Valid
}
