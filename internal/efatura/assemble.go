package efatura

import (
	"strings"
	"time"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// PlaceholderCustomerTaxID stands in for a customer who gave no tax
// identifier. Owners must sign off on issuing documents with it.
const PlaceholderCustomerTaxID = "11111111111"

const defaultCountry = "Türkiye"

// assembleInvoiceData turns an order into the value rendered by the UBL builder
func assembleInvoiceData(order *model.Order, st *model.Settings, number, customerTaxID string, issued time.Time) *model.InvoiceData {
	lines := make([]model.Line, 0, len(order.Items))
	lineTaxes := make([]tax.LineTax, 0, len(order.Items))

	for i, item := range order.Items {
		category := tax.CategoryOther
		name := item.Description
		if item.Service != nil {
			category = item.Service.Category
			name = item.Service.Name
		}
		if name == "" {
			name = "Hizmet"
		}
		unit := item.UnitCode
		if unit == "" {
			unit = model.UnitPiece
		}

		rate := tax.GetVATRateForService(category)
		net := money.RoundAmount(item.Quantity.Mul(item.UnitPrice))
		vat := money.RoundAmount(money.Percent(net, rate))

		lines = append(lines, model.Line{
			ID:          i + 1,
			OrderItemID: item.ID,
			Name:        name,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitCode:    unit,
			UnitPrice:   item.UnitPrice,
			LineAmount:  net,
			VATRate:     rate,
			VATAmount:   vat,
			LineTotal:   net.Add(vat),
		})
		lineTaxes = append(lineTaxes, tax.LineTax{Rate: rate, Net: net, VAT: vat})
	}

	totals := tax.SumRoundedLines(lineTaxes)

	return &model.InvoiceData{
		InvoiceNumber:  number,
		InvoiceDate:    issued,
		InvoiceType:    model.InvoiceTypeSatis,
		CurrencyCode:   model.DefaultCurrency,
		Notes:          orderNotes(order),
		Supplier:       supplierParty(st, order.Business),
		Customer:       customerParty(order.Customer, customerTaxID),
		Lines:          lines,
		SubtotalAmount: totals.Subtotal,
		TotalVATAmount: totals.TotalVAT,
		TotalAmount:    totals.Total,
		PayableAmount:  totals.Total,
	}
}

func orderNotes(order *model.Order) []string {
	if order.OrderNumber == "" {
		return nil
	}
	return []string{"Sipariş No: " + order.OrderNumber}
}

// supplierParty prefers the e-Fatura settings and falls back to the
// business profile field by field
func supplierParty(st *model.Settings, b *model.Business) model.Party {
	if b == nil {
		b = &model.Business{}
	}
	return model.Party{
		TaxID:     tax.CleanDigits(firstNonEmpty(st.CompanyVKN, b.TaxNumber)),
		Title:     firstNonEmpty(st.CompanyTitle, b.Name),
		TaxOffice: firstNonEmpty(st.CompanyTaxOffice, b.TaxOffice),
		Address: model.PartyAddress{
			Street:     firstNonEmpty(st.CompanyAddress, b.Address),
			District:   firstNonEmpty(st.CompanyDistrict, b.District),
			City:       firstNonEmpty(st.CompanyCity, b.City),
			PostalCode: firstNonEmpty(st.CompanyPostalCode, b.PostalCode),
			Country:    defaultCountry,
		},
		Phone: firstNonEmpty(st.CompanyPhone, b.Phone),
		Email: firstNonEmpty(st.CompanyEmail, b.Email),
	}
}

func customerParty(c *model.Customer, taxID string) model.Party {
	if c == nil {
		c = &model.Customer{}
	}
	p := model.Party{
		TaxID: taxID,
		Title: firstNonEmpty(c.CompanyName, c.FullName()),
		Address: model.PartyAddress{
			Street:     c.Address,
			District:   c.District,
			City:       c.City,
			PostalCode: c.PostalCode,
			Country:    defaultCountry,
		},
		Phone: c.Phone,
		Email: c.Email,
	}
	if c.CompanyName == "" {
		p.FirstName = c.FirstName
		p.FamilyName = c.LastName
	}
	if p.Title == "" {
		p.Title = "Nihai Tüketici"
	}
	return p
}

// resolveCustomerTaxID picks the explicit identifier, then the one on the
// customer record, then the placeholder
func resolveCustomerTaxID(explicit string, c *model.Customer) (string, error) {
	candidate := strings.TrimSpace(explicit)
	field := "customerTaxId"
	if candidate == "" && c != nil {
		candidate = strings.TrimSpace(c.TaxNumber)
		field = "customer.taxNumber"
	}
	if candidate == "" {
		return PlaceholderCustomerTaxID, nil
	}

	res := tax.ValidateTurkishTaxNumber(candidate)
	if !res.IsValid {
		return "", model.NewServiceValidationError(field, strings.Join(res.Errors, "; "), nil)
	}
	return res.Formatted, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
