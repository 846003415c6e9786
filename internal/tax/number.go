package tax

import "fmt"

// DefaultNumberLength is the sequence width used when a business has none configured
const DefaultNumberLength = 9

// FormatInvoiceNumber builds "<prefix><yyyy><sequence>" with the sequence
// zero padded to width digits
func FormatInvoiceNumber(prefix string, year int, sequence int64, width int) string {
	if width <= 0 {
		width = DefaultNumberLength
	}
	return fmt.Sprintf("%s%04d%0*d", prefix, year, width, sequence)
}
