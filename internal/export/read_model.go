package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

// Resolver looks up ledger data the stored lines do not carry
type Resolver interface {
	GetDocument(ctx context.Context, id string) (*entity.Document, error)
	GetPartner(ctx context.Context, id string) (*entity.Partner, error)
}

// Row is a stored line enriched with ledger lookups
type Row struct {
	Line                  *entity.ReportLine
	PartnerIsVATPayer     bool
	OriginalInvoiceNumber string
}

// ReadModel is the data shared by both renderers
type ReadModel struct {
	Statement      *entity.Statement
	Company        *entity.Company
	DomesticPrefix string
	Namespace      string

	Invoices  []Row
	Refunds   []Row
	Summaries []Row
}

// BuildOptions carries renderer settings copied into the read model
type BuildOptions struct {
	DomesticPrefix string
	Namespace      string
}

// BuildReadModel splits the stored lines and resolves payer flags and
// original invoice numbers. Missing ledger records degrade to empty values.
func BuildReadModel(
	ctx context.Context,
	stmt *entity.Statement,
	lines []*entity.ReportLine,
	company *entity.Company,
	resolver Resolver,
	opts BuildOptions,
) (*ReadModel, error) {
	if stmt == nil {
		return nil, ErrNilReadModel
	}
	if company == nil {
		company = &entity.Company{}
	}
	if opts.DomesticPrefix == "" {
		opts.DomesticPrefix = entity.DefaultDomesticPrefix
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}

	model := &ReadModel{
		Statement:      stmt,
		Company:        company,
		DomesticPrefix: opts.DomesticPrefix,
		Namespace:      opts.Namespace,
	}

	payers := make(map[string]bool)
	for _, line := range lines {
		if line.IsSummary {
			model.Summaries = append(model.Summaries, Row{Line: line})
			continue
		}

		row := Row{Line: line}
		isPayer, err := resolvePayer(ctx, resolver, line.PartnerIDValue(), payers)
		if err != nil {
			return nil, err
		}
		row.PartnerIsVATPayer = isPayer

		if line.IsRefund {
			number, err := resolveOriginalNumber(ctx, resolver, line.DocumentIDValue())
			if err != nil {
				return nil, err
			}
			row.OriginalInvoiceNumber = number
			model.Refunds = append(model.Refunds, row)
			continue
		}
		model.Invoices = append(model.Invoices, row)
	}

	return model, nil
}

func resolvePayer(ctx context.Context, resolver Resolver, partnerID string, cache map[string]bool) (bool, error) {
	if partnerID == "" || resolver == nil {
		return false, nil
	}
	if isPayer, ok := cache[partnerID]; ok {
		return isPayer, nil
	}

	partner, err := resolver.GetPartner(ctx, partnerID)
	if errors.Is(err, port.ErrNotFound) {
		cache[partnerID] = false
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve partner %s: %w", partnerID, err)
	}

	cache[partnerID] = partner.IsVATPayer
	return partner.IsVATPayer, nil
}

func resolveOriginalNumber(ctx context.Context, resolver Resolver, documentID string) (string, error) {
	if documentID == "" || resolver == nil {
		return "", nil
	}

	doc, err := resolver.GetDocument(ctx, documentID)
	if errors.Is(err, port.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve document %s: %w", documentID, err)
	}
	if doc.ReversedEntry == nil {
		return "", nil
	}
	return doc.ReversedEntry.Number, nil
}

// counterpartyVAT returns the VAT shown in the Odb attribute.
func (r Row) counterpartyVAT() string {
	if !r.PartnerIsVATPayer {
		return ""
	}
	return r.Line.PartnerVATValue()
}
