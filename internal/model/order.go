package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// Order status values that gate invoicing
const (
	OrderStatusCompleted = "COMPLETED"
	OrderStatusDelivered = "DELIVERED"
	PaymentStatusPaid    = "PAID"
)

// Business is the supplier profile owned by the tenant
type Business struct {
	ID         string `gorm:"primaryKey;size:64" json:"id"`
	Name       string `gorm:"size:255;not null" json:"name"`
	TaxNumber  string `gorm:"size:11" json:"taxNumber,omitempty"`
	TaxOffice  string `gorm:"size:255" json:"taxOffice,omitempty"`
	Address    string `gorm:"size:500" json:"address,omitempty"`
	District   string `gorm:"size:100" json:"district,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:5" json:"postalCode,omitempty"`
	Phone      string `gorm:"size:32" json:"phone,omitempty"`
	Email      string `gorm:"size:255" json:"email,omitempty"`
}

// Customer is the buyer of an order
type Customer struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	BusinessID  string `gorm:"size:64;not null;index" json:"businessId"`
	FirstName   string `gorm:"size:100" json:"firstName,omitempty"`
	LastName    string `gorm:"size:100" json:"lastName,omitempty"`
	CompanyName string `gorm:"size:255" json:"companyName,omitempty"`
	TaxNumber   string `gorm:"size:11" json:"taxNumber,omitempty"`
	Address     string `gorm:"size:500" json:"address,omitempty"`
	District    string `gorm:"size:100" json:"district,omitempty"`
	City        string `gorm:"size:100" json:"city,omitempty"`
	PostalCode  string `gorm:"size:5" json:"postalCode,omitempty"`
	Phone       string `gorm:"size:32" json:"phone,omitempty"`
	Email       string `gorm:"size:255" json:"email,omitempty"`
}

// FullName joins the first and last name
func (c Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Service is a catalogue entry whose category drives the VAT rate
type Service struct {
	ID       string              `gorm:"primaryKey;size:64" json:"id"`
	Name     string              `gorm:"size:255;not null" json:"name"`
	Category tax.ServiceCategory `gorm:"size:32;not null" json:"category"`
}

// Order is the read model the assembly service invoices from
type Order struct {
	ID              string      `gorm:"primaryKey;size:64" json:"id"`
	BusinessID      string      `gorm:"size:64;not null;index" json:"businessId"`
	Business        *Business   `gorm:"foreignKey:BusinessID" json:"business,omitempty"`
	CustomerID      string      `gorm:"size:64;index" json:"customerId"`
	Customer        *Customer   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	OrderNumber     string      `gorm:"size:32" json:"orderNumber"`
	Status          string      `gorm:"size:32" json:"status"`
	PaymentStatus   string      `gorm:"size:32" json:"paymentStatus"`
	RequiresInvoice bool        `json:"requiresInvoice"`
	Items           []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// IsCompleted reports whether the order has been completed or delivered
func (o Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusDelivered
}

// IsPaid reports whether the order has been paid in full
func (o Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// OrderItem is one priced line of an order
type OrderItem struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	OrderID     string          `gorm:"size:64;not null;index" json:"orderId"`
	ServiceID   string          `gorm:"size:64" json:"serviceId"`
	Service     *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	Description string          `gorm:"size:500" json:"description,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:numeric(18,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"unitPrice"`
	UnitCode    UnitCode        `gorm:"size:8" json:"unitCode,omitempty"`
}

// Settings is the per-business e-Fatura configuration.
// Blank company fields fall back to the Business profile.
type Settings struct {
	BusinessID string `gorm:"primaryKey;size:64" json:"businessId"`
	Enabled    bool   `json:"enabled"`

	CompanyVKN        string `gorm:"size:10" json:"companyVkn"`
	CompanyTitle      string `gorm:"size:255" json:"companyTitle"`
	CompanyTaxOffice  string `gorm:"size:255" json:"companyTaxOffice,omitempty"`
	CompanyAddress    string `gorm:"size:500" json:"companyAddress,omitempty"`
	CompanyDistrict   string `gorm:"size:100" json:"companyDistrict,omitempty"`
	CompanyCity       string `gorm:"size:100" json:"companyCity,omitempty"`
	CompanyPostalCode string `gorm:"size:5" json:"companyPostalCode,omitempty"`
	CompanyPhone      string `gorm:"size:32" json:"companyPhone,omitempty"`
	CompanyEmail      string `gorm:"size:255" json:"companyEmail,omitempty"`

	InvoicePrefix  string `gorm:"size:16;not null" json:"invoicePrefix"`
	InvoiceCounter int64  `gorm:"not null;default:0" json:"invoiceCounter"`
	NumberLength   int    `gorm:"not null;default:9" json:"numberLength"`

	AutoSend             bool `json:"autoSend"`
	AutoCreate           bool `json:"autoCreate"`
	RequirePayment       bool `json:"requirePayment"`
	RequireCompletion    bool `json:"requireCompletion"`
	ArchiveRetentionDays int  `json:"archiveRetentionDays"`

	GIBUsername         string `gorm:"size:64" json:"gibUsername,omitempty"`
	GIBPassword         string `gorm:"size:255" json:"-"`
	GIBTestMode         bool   `json:"gibTestMode"`
	GIBPortalURL        string `gorm:"size:255" json:"gibPortalUrl,omitempty"`
	CertificatePath     string `gorm:"size:500" json:"certificatePath,omitempty"`
	CertificatePassword string `gorm:"size:255" json:"-"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName keeps the settings table name explicit
func (Settings) TableName() string { return "efatura_settings" }
