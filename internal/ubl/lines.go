package ubl

import (
	"strconv"

	money "github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/decimal"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// InvoiceLine is one line of the document
type InvoiceLine struct {
	ID                  string   `xml:"cbc:ID"`
	InvoicedQuantity    Quantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount Amount   `xml:"cbc:LineExtensionAmount"`
	TaxTotal            TaxTotal `xml:"cac:TaxTotal"`
	Item                Item     `xml:"cac:Item"`
	Price               Price    `xml:"cac:Price"`
}

// Item describes what was sold. Description precedes Name in UBL.
type Item struct {
	Description string `xml:"cbc:Description,omitempty"`
	Name        string `xml:"cbc:Name"`
}

// Price is the unit price, written with four decimals
type Price struct {
	PriceAmount Amount `xml:"cbc:PriceAmount"`
}

func newInvoiceLines(lines []model.Line, currency string) []InvoiceLine {
	out := make([]InvoiceLine, 0, len(lines))
	for i, l := range lines {
		seq := l.ID
		if seq <= 0 {
			seq = i + 1
		}
		unit := l.UnitCode
		if unit == "" {
			unit = model.UnitPiece
		}

		out = append(out, InvoiceLine{
			ID:                  strconv.Itoa(seq),
			InvoicedQuantity:    Quantity{UnitCode: string(unit), Value: money.FormatQuantity(l.Quantity)},
			LineExtensionAmount: amount(currency, l.LineAmount),
			TaxTotal: TaxTotal{
				TaxAmount: amount(currency, l.VATAmount),
				TaxSubtotal: []TaxSubtotal{{
					TaxableAmount: amount(currency, l.LineAmount),
					TaxAmount:     amount(currency, l.VATAmount),
					Percent:       tax.RateKey(l.VATRate),
					TaxCategory:   kdvCategory(),
				}},
			},
			Item: Item{Description: l.Description, Name: l.Name},
			Price: Price{
				PriceAmount: Amount{CurrencyID: currency, Value: money.FormatPrice(l.UnitPrice)},
			},
		})
	}
	return out
}
