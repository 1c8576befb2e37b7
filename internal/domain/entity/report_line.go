package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReportLine is one classified, rate-grouped row of a statement.
// Summary lines have no partner and no document.
type ReportLine struct {
	ID             string          `json:"id"`
	StatementID    string          `json:"statement_id"`
	Sequence       int             `json:"sequence"`
	PartnerID      *string         `json:"partner_id,omitempty"`
	PartnerVAT     *string         `json:"partner_vat,omitempty"`
	DocumentID     *string         `json:"document_id,omitempty"`
	DocumentNumber string          `json:"document_number"`
	InvoiceDate    time.Time       `json:"invoice_date"`
	SupplyDate     time.Time       `json:"supply_date"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	IsSummary      bool            `json:"is_summary"`
	IsRefund       bool            `json:"is_refund"`
	CreatedAt      time.Time       `json:"created_at"`
}

// PartnerVATValue returns the partner VAT or an empty string.
func (l *ReportLine) PartnerVATValue() string {
	if l.PartnerVAT == nil {
		return ""
	}
	return *l.PartnerVAT
}

// PartnerIDValue returns the partner ID or an empty string.
func (l *ReportLine) PartnerIDValue() string {
	if l.PartnerID == nil {
		return ""
	}
	return *l.PartnerID
}

// DocumentIDValue returns the document ID or an empty string.
func (l *ReportLine) DocumentIDValue() string {
	if l.DocumentID == nil {
		return ""
	}
	return *l.DocumentID
}
