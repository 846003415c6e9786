package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate Turkish tax numbers, postal codes and addresses",
}

var validateTaxNumberCmd = &cobra.Command{
	Use:   "tax-number <identifier>...",
	Short: "Check VKN (10 digits) and TCKN (11 digits) check digits",
	Example: `  efatura validate tax-number 1234567890 10000000146`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results := make([]tax.TaxNumberResult, 0, len(args))
		allValid := true
		for _, arg := range args {
			r := tax.ValidateTurkishTaxNumber(arg)
			results = append(results, r)
			allValid = allValid && r.IsValid
		}

		if outputFormat == "json" {
			if err := printJSON(results); err != nil {
				return err
			}
		} else {
			for i, r := range results {
				if r.IsValid {
					fmt.Printf("✓ %s: %s\n", args[i], r.Type)
					continue
				}
				fmt.Printf("✗ %s: INVALID\n", args[i])
				for _, e := range r.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
		}

		if !allValid {
			return fmt.Errorf("validation failed for some identifiers")
		}
		return nil
	},
}

var validatePostalCodeCmd = &cobra.Command{
	Use:   "postal-code <code>...",
	Short: "Check postal codes and show their province",
	Example: `  efatura validate postal-code 34710 06100`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		type result struct {
			Code     string `json:"code"`
			Valid    bool   `json:"valid"`
			Province string `json:"province,omitempty"`
		}
		results := make([]result, 0, len(args))
		allValid := true
		for _, code := range args {
			r := result{Code: code, Valid: tax.ValidateTurkishPostalCode(code)}
			if r.Valid {
				r.Province = tax.GetProvinceFromPostalCode(code)
			}
			allValid = allValid && r.Valid
			results = append(results, r)
		}

		if outputFormat == "json" {
			if err := printJSON(results); err != nil {
				return err
			}
		} else {
			for _, r := range results {
				if r.Valid {
					fmt.Printf("✓ %s: %s\n", r.Code, r.Province)
				} else {
					fmt.Printf("✗ %s: INVALID\n", r.Code)
				}
			}
		}

		if !allValid {
			return fmt.Errorf("validation failed for some postal codes")
		}
		return nil
	},
}

var addressInput tax.Address

var validateAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Check an address and that its postal code matches the city",
	Example: `  efatura validate address --street "Atatürk Cad. No:12" --district Kadıköy --city İstanbul --postal-code 34710`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := tax.ValidateTurkishAddress(addressInput)
		if outputFormat == "json" {
			if err := printJSON(r); err != nil {
				return err
			}
		} else if r.IsValid {
			fmt.Println("✓ address: VALID")
		} else {
			fmt.Println("✗ address: INVALID")
			for _, e := range r.Errors {
				fmt.Printf("  - %s\n", e)
			}
		}
		if !r.IsValid {
			return fmt.Errorf("address validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.AddCommand(validateTaxNumberCmd, validatePostalCodeCmd, validateAddressCmd)

	validateAddressCmd.Flags().StringVar(&addressInput.Street, "street", "", "Street and number")
	validateAddressCmd.Flags().StringVar(&addressInput.District, "district", "", "District (ilçe)")
	validateAddressCmd.Flags().StringVar(&addressInput.City, "city", "", "City (il)")
	validateAddressCmd.Flags().StringVar(&addressInput.PostalCode, "postal-code", "", "Five digit postal code")
}
