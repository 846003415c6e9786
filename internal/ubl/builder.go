package ubl

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/invopop/validation"
	"github.com/shopspring/decimal"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// Document is a rendered invoice together with the identifiers minted for it
type Document struct {
	Invoice *Invoice
	XML     []byte
	UUID    string
	ETTN    string
}

// Option configures Build
type Option func(*options)

type options struct {
	newUUID         func() uuid.UUID
	invoiceTypeCode string
}

// WithUUIDSource replaces the generator used for the document UUID and ETTN
func WithUUIDSource(fn func() uuid.UUID) Option {
	return func(o *options) {
		o.newUUID = fn
	}
}

// WithInvoiceTypeCode overrides the emitted InvoiceTypeCode, which is
// SATIS by default whatever the logical invoice type.
func WithInvoiceTypeCode(code model.InvoiceType) Option {
	return func(o *options) {
		o.invoiceTypeCode = string(code)
	}
}

// NewETTN turns a UUID into the 32 character upper-case ETTN form
func NewETTN(u uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(u.String(), "-", ""))
}

// GenerateInvoiceXML renders data as a UBL-TR document. Every call mints a
// fresh UUID and ETTN, so two calls never return identical output.
func GenerateInvoiceXML(data *model.InvoiceData, opts ...Option) (string, error) {
	doc, err := Build(data, opts...)
	if err != nil {
		return "", err
	}
	return string(doc.XML), nil
}

// Build validates data and renders it
func Build(data *model.InvoiceData, opts ...Option) (*Document, error) {
	o := &options{
		newUUID:         uuid.New,
		invoiceTypeCode: invoiceTypeCodeSatis,
	}
	for _, opt := range opts {
		opt(o)
	}

	if data == nil {
		return nil, fmt.Errorf("%w: no data", ErrInvalidInvoiceData)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}

	currency := data.CurrencyCode
	if currency == "" {
		currency = model.DefaultCurrency
	}
	docUUID := o.newUUID().String()
	ettn := NewETTN(o.newUUID())
	issueDate := data.InvoiceDate.Format("2006-01-02")
	issueTime := data.InvoiceTime
	if issueTime == "" {
		issueTime = data.InvoiceDate.Format("15:04:05")
	}

	inv := &Invoice{
		UBLNamespace:         NamespaceUBLInvoice,
		CACNamespace:         NamespaceCAC,
		CBCNamespace:         NamespaceCBC,
		UDTNamespace:         NamespaceUDT,
		XSINamespace:         NamespaceXSI,
		SchemaLocation:       SchemaLocationInvoice,
		UBLVersionID:         Version,
		CustomizationID:      CustomizationID,
		ProfileID:            ProfileID,
		ID:                   data.InvoiceNumber,
		CopyIndicator:        "false",
		UUID:                 docUUID,
		IssueDate:            issueDate,
		IssueTime:            issueTime,
		InvoiceTypeCode:      o.invoiceTypeCode,
		Note:                 append([]string{DefaultNote}, data.Notes...),
		DocumentCurrencyCode: currency,
		LineCountNumeric:     len(data.Lines),
		AdditionalDocumentReference: []DocumentReference{
			{ID: ettn, IssueDate: issueDate, DocumentType: DocumentTypeETTN},
		},
		AccountingSupplierParty: newSupplierParty(data.Supplier),
		AccountingCustomerParty: newCustomerParty(data.Customer),
		TaxTotal:                []TaxTotal{newTaxTotal(data, currency)},
		LegalMonetaryTotal:      newMonetaryTotal(data, currency),
		InvoiceLines:            newInvoiceLines(data.Lines, currency),
	}
	inv.XMLName.Local = "Invoice"

	out, err := Bytes(inv)
	if err != nil {
		return nil, fmt.Errorf("ubl: marshal: %w", err)
	}

	return &Document{Invoice: inv, XML: out, UUID: docUUID, ETTN: ettn}, nil
}

// Validate checks that data can be rendered into a document the portal
// would accept. Errors wrap ErrInvalidInvoiceData.
func Validate(data *model.InvoiceData) error {
	err := validation.ValidateStruct(data,
		validation.Field(&data.InvoiceNumber, validation.Required),
		validation.Field(&data.InvoiceDate, validation.Required),
		validation.Field(&data.CurrencyCode, validation.Length(3, 3)),
		validation.Field(&data.Supplier, validation.By(supplierRule)),
		validation.Field(&data.Customer, validation.By(customerRule)),
		validation.Field(&data.Lines, validation.Required, validation.Each(validation.By(lineRule))),
		validation.Field(&data.SubtotalAmount, validation.By(func(interface{}) error {
			return sumRule(lineTotals(data.Lines).Subtotal, data.SubtotalAmount)
		})),
		validation.Field(&data.TotalVATAmount, validation.By(func(interface{}) error {
			return sumRule(lineTotals(data.Lines).TotalVAT, data.TotalVATAmount)
		})),
		validation.Field(&data.TotalAmount, validation.By(func(interface{}) error {
			return sumRule(data.SubtotalAmount.Add(data.TotalVATAmount), data.TotalAmount)
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInvoiceData, err)
	}
	return nil
}

func supplierRule(value interface{}) error {
	p, _ := value.(model.Party)
	return validation.ValidateStruct(&p,
		validation.Field(&p.TaxID, validation.Required, validation.By(func(interface{}) error {
			if !tax.ValidateVKN(p.TaxID) {
				return errors.New("must be a valid VKN")
			}
			return nil
		})),
		validation.Field(&p.Title, validation.Required),
	)
}

// The customer identifier is only shape-checked: the assembly service may
// substitute a placeholder TCKN that does not carry valid check digits.
func customerRule(value interface{}) error {
	p, _ := value.(model.Party)
	return validation.ValidateStruct(&p,
		validation.Field(&p.TaxID, validation.Required, validation.By(func(interface{}) error {
			n := len(tax.CleanDigits(p.TaxID))
			if n != tax.VKNLength && n != tax.TCKNLength {
				return errors.New("must have 10 or 11 digits")
			}
			return nil
		})),
		validation.Field(&p.Title, validation.By(func(interface{}) error {
			if p.DisplayName() == "" {
				return errors.New("title or first and family name required")
			}
			return nil
		})),
	)
}

func lineRule(value interface{}) error {
	l, _ := value.(model.Line)
	return validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Required),
		validation.Field(&l.Quantity, validation.By(func(interface{}) error {
			if l.Quantity.IsNegative() {
				return errors.New("must not be negative")
			}
			return nil
		})),
		validation.Field(&l.VATRate, validation.By(func(interface{}) error {
			if l.VATRate.IsNegative() || l.VATRate.GreaterThan(money.FromInt(100)) {
				return errors.New("must be between 0 and 100")
			}
			return nil
		})),
		validation.Field(&l.LineTotal, validation.By(func(interface{}) error {
			return sumRule(l.LineAmount.Add(l.VATAmount), l.LineTotal)
		})),
	)
}

func sumRule(want, got decimal.Decimal) error {
	if !money.RoundAmount(want).Equal(money.RoundAmount(got)) {
		return fmt.Errorf("expected %s, got %s", money.FormatAmount(want), money.FormatAmount(got))
	}
	return nil
}
