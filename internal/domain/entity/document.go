package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Partner is a ledger counterparty
type Partner struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	VAT        string `json:"vat" yaml:"vat"`
	IsVATPayer bool   `json:"is_vat_payer" yaml:"is_vat_payer"`
}

// HasDomesticVAT reports whether the VAT number carries the given country prefix.
func (p *Partner) HasDomesticVAT(prefix string) bool {
	if p == nil {
		return false
	}
	vat := strings.ToUpper(strings.TrimSpace(p.VAT))
	return vat != "" && strings.HasPrefix(vat, strings.ToUpper(prefix))
}

// DocumentRef identifies the invoice a credit note reverses
type DocumentRef struct {
	ID          string     `json:"id"`
	Number      string     `json:"number"`
	InvoiceDate time.Time  `json:"invoice_date"`
	SupplyDate  *time.Time `json:"supply_date,omitempty"`
}

// EffectiveDate returns the supply date, falling back to the invoice date.
func (r *DocumentRef) EffectiveDate() time.Time {
	if r.SupplyDate != nil {
		return *r.SupplyDate
	}
	return r.InvoiceDate
}

// Document is a posted customer invoice or credit note read from the ledger
type Document struct {
	ID            string         `json:"id"`
	CompanyID     string         `json:"company_id"`
	Type          string         `json:"type"`
	State         string         `json:"state"`
	Number        string         `json:"number"`
	Partner       *Partner       `json:"partner,omitempty"`
	InvoiceDate   time.Time      `json:"invoice_date"`
	SupplyDate    *time.Time     `json:"supply_date,omitempty"`
	ReversedEntry *DocumentRef   `json:"reversed_entry,omitempty"`
	Lines         []DocumentLine `json:"lines"`
}

// IsCreditNote reports whether the document is a customer credit note.
func (d *Document) IsCreditNote() bool {
	return d.Type == DocumentTypeCreditNote
}

// OwnEffectiveDate returns the document's own supply date or invoice date.
func (d *Document) OwnEffectiveDate() time.Time {
	if d.SupplyDate != nil {
		return *d.SupplyDate
	}
	return d.InvoiceDate
}

// EffectiveDate returns the date governing the reporting period.
// A document reversing another one is reported in the reversed invoice's period.
func (d *Document) EffectiveDate() time.Time {
	if d.ReversedEntry != nil {
		return d.ReversedEntry.EffectiveDate()
	}
	return d.OwnEffectiveDate()
}

// DocumentLine is one invoice line item with its pre-computed amounts
type DocumentLine struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	NetAmount   decimal.Decimal   `json:"net_amount"`
	GrossAmount decimal.Decimal   `json:"gross_amount"`
	TaxRates    []decimal.Decimal `json:"tax_rates"`
}

// TaxAmount returns gross minus net.
func (l DocumentLine) TaxAmount() decimal.Decimal {
	return l.GrossAmount.Sub(l.NetAmount)
}
