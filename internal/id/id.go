// Package id generates the prefixed, K-sortable identifiers used for
// invoices, invoice lines and audit rows ("inv_01h2xcejqtf2nbrexx3vqjhp41").
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in an identifier
type Prefix string

const (
	PrefixInvoice     Prefix = "inv"  // Invoice header
	PrefixInvoiceItem Prefix = "li"   // Invoice line
	PrefixInvoiceLog  Prefix = "ilog" // Audit log row
)

// New generates a new identifier with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) string {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}
	return tid.String()
}

// NewInvoiceID generates a new invoice identifier
func NewInvoiceID() string { return New(PrefixInvoice) }

// NewInvoiceItemID generates a new invoice line identifier
func NewInvoiceItemID() string { return New(PrefixInvoiceItem) }

// NewInvoiceLogID generates a new audit log identifier
func NewInvoiceLogID() string { return New(PrefixInvoiceLog) }

// ParseWithPrefix checks that s is a well formed identifier carrying the
// expected prefix.
func ParseWithPrefix(s string, expected Prefix) error {
	if s == "" {
		return fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return fmt.Errorf("id: parse %q: %w", s, err)
	}
	if Prefix(tid.Prefix()) != expected {
		return fmt.Errorf("id: expected prefix %q, got %q", expected, tid.Prefix())
	}
	return nil
}
