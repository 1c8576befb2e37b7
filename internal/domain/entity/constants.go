package entity

// Statement status constants
const (
	StatusDraft     = "draft"
	StatusGenerated = "generated"
	StatusConfirmed = "confirmed"
	StatusExported  = "exported"
)

// Ledger document type constants
const (
	DocumentTypeInvoice    = "out_invoice"
	DocumentTypeCreditNote = "out_refund"
)

// Ledger document state constants
const (
	DocumentStateDraft  = "draft"
	DocumentStatePosted = "posted"
	DocumentStateCancel = "cancel"
)

// Placeholders written on summary report lines
const (
	PartnerVATIndividuals = "Individuals"
	PartnerVATRefunds     = "Refunds"
)

// DefaultDomesticPrefix is the country prefix of Slovak VAT numbers.
const DefaultDomesticPrefix = "SK"

// DefaultCurrency is used when the company has no currency configured.
const DefaultCurrency = "EUR"
