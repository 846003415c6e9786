package ubl

import (
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/model"
	"github.com/EngindalgaMaku/laundrypro-new-backend-sub002/internal/tax"
)

// SupplierParty wraps the seller
type SupplierParty struct {
	Party Party `xml:"cac:Party"`
}

// CustomerParty wraps the buyer
type CustomerParty struct {
	Party Party `xml:"cac:Party"`
}

// Party is a UBL party; optional blocks are omitted when empty
type Party struct {
	PartyIdentification []PartyIdentification `xml:"cac:PartyIdentification"`
	PartyName           *PartyName            `xml:"cac:PartyName,omitempty"`
	PostalAddress       *PostalAddress        `xml:"cac:PostalAddress,omitempty"`
	PartyTaxScheme      *PartyTaxScheme       `xml:"cac:PartyTaxScheme,omitempty"`
	Contact             *Contact              `xml:"cac:Contact,omitempty"`
	Person              *Person               `xml:"cac:Person,omitempty"`
}

// TaxID returns the first party identification value
func (p Party) TaxID() (value, scheme string) {
	if len(p.PartyIdentification) == 0 {
		return "", ""
	}
	id := p.PartyIdentification[0].ID
	return id.Value, id.SchemeID
}

// PartyIdentification holds a VKN or TCKN
type PartyIdentification struct {
	ID IDType `xml:"cbc:ID"`
}

// PartyName is the legal or display name
type PartyName struct {
	Name string `xml:"cbc:Name"`
}

// PostalAddress follows the UBL address element order
type PostalAddress struct {
	StreetName          string  `xml:"cbc:StreetName,omitempty"`
	CitySubdivisionName string  `xml:"cbc:CitySubdivisionName,omitempty"`
	CityName            string  `xml:"cbc:CityName,omitempty"`
	PostalZone          string  `xml:"cbc:PostalZone,omitempty"`
	Country             Country `xml:"cac:Country"`
}

// Country is identified by name in UBL-TR
type Country struct {
	Name string `xml:"cbc:Name"`
}

// PartyTaxScheme names the tax the party is registered for
type PartyTaxScheme struct {
	TaxScheme TaxScheme `xml:"cac:TaxScheme"`
}

// TaxScheme is a named tax with its GIB type code
type TaxScheme struct {
	Name        string `xml:"cbc:Name,omitempty"`
	TaxTypeCode string `xml:"cbc:TaxTypeCode,omitempty"`
}

// Contact is only written when a phone or e-mail is known
type Contact struct {
	Telephone      string `xml:"cbc:Telephone,omitempty"`
	ElectronicMail string `xml:"cbc:ElectronicMail,omitempty"`
}

// Person names an individual customer
type Person struct {
	FirstName  string `xml:"cbc:FirstName"`
	FamilyName string `xml:"cbc:FamilyName"`
}

func newSupplierParty(p model.Party) SupplierParty {
	party := newParty(p, string(tax.IdentifierVKN), p.Title)
	party.PartyTaxScheme = &PartyTaxScheme{
		TaxScheme: TaxScheme{Name: TaxSchemeIncomeTax, TaxTypeCode: TaxTypeCodeKDV},
	}
	return SupplierParty{Party: party}
}

func newCustomerParty(p model.Party) CustomerParty {
	party := newParty(p, string(tax.SchemeID(p.TaxID)), p.DisplayName())
	if p.HasPerson() {
		party.Person = &Person{FirstName: p.FirstName, FamilyName: p.FamilyName}
	}
	return CustomerParty{Party: party}
}

func newParty(p model.Party, scheme, name string) Party {
	country := p.Address.Country
	if country == "" {
		country = CountryNameTurkey
	}

	party := Party{
		PartyIdentification: []PartyIdentification{
			{ID: IDType{SchemeID: scheme, Value: tax.CleanDigits(p.TaxID)}},
		},
		PartyName: &PartyName{Name: name},
		PostalAddress: &PostalAddress{
			StreetName:          p.Address.Street,
			CitySubdivisionName: p.Address.District,
			CityName:            p.Address.City,
			PostalZone:          p.Address.PostalCode,
			Country:             Country{Name: country},
		},
	}
	if p.Phone != "" || p.Email != "" {
		party.Contact = &Contact{Telephone: p.Phone, ElectronicMail: p.Email}
	}
	return party
}
