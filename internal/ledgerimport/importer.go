package ledgerimport

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
)

// Summary counts the imported records
type Summary struct {
	CompanyID string
	Partners  int
	Documents int
}

// Importer writes fixtures through the ledger and company repositories
type Importer struct {
	companies port.CompanyRepository
	ledger    port.LedgerWriter
	txManager port.TransactionManager
	logger    *zap.Logger
}

// NewImporter creates an importer
func NewImporter(
	companies port.CompanyRepository,
	ledger port.LedgerWriter,
	txManager port.TransactionManager,
	logger *zap.Logger,
) *Importer {
	return &Importer{
		companies: companies,
		ledger:    ledger,
		txManager: txManager,
		logger:    logger,
	}
}

// ImportReader parses and imports a fixture
func (i *Importer) ImportReader(ctx context.Context, r io.Reader) (*Summary, error) {
	fixture, err := Parse(r)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, fixture)
}

// Import upserts the company, partners and documents in one transaction.
// Existing documents are replaced including their lines.
func (i *Importer) Import(ctx context.Context, fixture *Fixture) (*Summary, error) {
	docs, err := fixture.Build()
	if err != nil {
		return nil, err
	}

	err = i.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := i.companies.Save(ctx, &fixture.Company); err != nil {
			return err
		}
		for idx := range fixture.Partners {
			if err := i.ledger.SavePartner(ctx, &fixture.Partners[idx]); err != nil {
				return err
			}
		}
		for _, doc := range docs {
			if err := i.ledger.SaveDocument(ctx, doc); err != nil {
				return fmt.Errorf("document %s: %w", doc.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		i.logger.Error("Ledger import failed", zap.String("company_id", fixture.Company.ID), zap.Error(err))
		return nil, err
	}

	summary := &Summary{
		CompanyID: fixture.Company.ID,
		Partners:  len(fixture.Partners),
		Documents: len(docs),
	}
	i.logger.Info("Ledger imported",
		zap.String("company_id", summary.CompanyID),
		zap.Int("partners", summary.Partners),
		zap.Int("documents", summary.Documents))
	return summary, nil
}
