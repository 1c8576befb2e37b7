package port

import (
	"context"
	"time"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

// LedgerQuery selects posted customer documents of one company.
// A document matches when its supply date is within [DateFrom, DateTo],
// or when it has no supply date and its invoice date is within the range.
type LedgerQuery struct {
	CompanyID string
	DateFrom  time.Time
	DateTo    time.Time
}

// LedgerReader is the read-only view of the accounting ledger
type LedgerReader interface {
	// FindDocuments returns posted invoices and credit notes matching the query
	FindDocuments(ctx context.Context, query LedgerQuery) ([]*entity.Document, error)

	// FindReversals returns posted credit notes reversing any of the given invoices
	FindReversals(ctx context.Context, companyID string, invoiceIDs []string) ([]*entity.Document, error)

	// GetDocument returns a single document with its lines
	GetDocument(ctx context.Context, id string) (*entity.Document, error)

	// GetPartner returns a counterparty
	GetPartner(ctx context.Context, id string) (*entity.Partner, error)
}

// LedgerWriter loads documents into the bundled ledger tables
type LedgerWriter interface {
	SavePartner(ctx context.Context, partner *entity.Partner) error
	SaveDocument(ctx context.Context, doc *entity.Document) error
}
