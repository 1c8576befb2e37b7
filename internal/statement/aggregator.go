// Package statement builds the report lines of a VAT control statement
// from the posted customer documents of its period.
package statement

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

// Result is the outcome of one generation run
type Result struct {
	RunID         string
	Lines         []*entity.ReportLine
	Totals        entity.Totals
	DocumentCount int
}

// Aggregator selects, classifies and groups ledger documents into report lines.
// It never writes; persisting the result is up to the caller.
type Aggregator struct {
	source         DocumentSource
	observer       Observer
	domesticPrefix string
	newID          func() string
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithObserver sets the decision observer
func WithObserver(observer Observer) Option {
	return func(a *Aggregator) {
		if observer != nil {
			a.observer = observer
		}
	}
}

// WithDomesticPrefix overrides the VAT prefix treated as domestic
func WithDomesticPrefix(prefix string) Option {
	return func(a *Aggregator) {
		if prefix != "" {
			a.domesticPrefix = prefix
		}
	}
}

// WithIDGenerator overrides how line and run IDs are generated
func WithIDGenerator(fn func() string) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// NewAggregator creates a new Aggregator
func NewAggregator(source DocumentSource, opts ...Option) *Aggregator {
	a := &Aggregator{
		source:         source,
		observer:       nopObserver{},
		domesticPrefix: entity.DefaultDomesticPrefix,
		newID:          uuid.NewString,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// run carries the state of a single Generate call
type run struct {
	*Aggregator
	id          string
	stmt        *entity.Statement
	lines       []*entity.ReportLine
	individuals *bucket
	refunds     *bucket
}

// Generate computes the full line set of the statement.
func (a *Aggregator) Generate(ctx context.Context, stmt *entity.Statement) (*Result, error) {
	if stmt == nil {
		return nil, ErrNilStatement
	}

	docs, err := a.selectDocuments(ctx, stmt)
	if err != nil {
		return nil, err
	}

	r := &run{
		Aggregator:  a,
		id:          a.newID(),
		stmt:        stmt,
		individuals: newBucket(bucketIndividuals),
		refunds:     newBucket(bucketRefunds),
	}

	inPeriod := make([]*entity.Document, 0, len(docs))
	for _, doc := range docs {
		if !stmt.InPeriod(doc.EffectiveDate()) {
			r.observe(ctx, Event{Decision: DecisionDocumentOutOfRange, DocumentID: doc.ID, DocumentNumber: doc.Number})
			continue
		}
		inPeriod = append(inPeriod, doc)
	}
	sortDocuments(inPeriod)

	for _, doc := range inPeriod {
		r.observe(ctx, Event{Decision: DecisionDocumentSelected, DocumentID: doc.ID, DocumentNumber: doc.Number})
		r.processDocument(ctx, doc)
	}

	r.emitSummaries(ctx, r.individuals, false, entity.PartnerVATIndividuals, "invoices")
	r.emitSummaries(ctx, r.refunds, true, entity.PartnerVATRefunds, "refunds")

	return &Result{
		RunID:         r.id,
		Lines:         r.lines,
		Totals:        entity.TotalsFromLines(r.lines),
		DocumentCount: len(inPeriod),
	}, nil
}

// selectDocuments returns the documents matching the period filter plus the
// credit notes reversing any selected invoice, without duplicates.
func (a *Aggregator) selectDocuments(ctx context.Context, stmt *entity.Statement) ([]*entity.Document, error) {
	docs, err := a.source.FindDocuments(ctx, port.LedgerQuery{
		CompanyID: stmt.CompanyID,
		DateFrom:  stmt.DateFrom,
		DateTo:    stmt.DateTo,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerQuery, err)
	}

	seen := make(map[string]bool, len(docs))
	invoiceIDs := make([]string, 0, len(docs))
	selected := make([]*entity.Document, 0, len(docs))
	for _, doc := range docs {
		if !eligible(doc, stmt.CompanyID) || seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		selected = append(selected, doc)
		if !doc.IsCreditNote() {
			invoiceIDs = append(invoiceIDs, doc.ID)
		}
	}

	if len(invoiceIDs) == 0 {
		return selected, nil
	}

	reversals, err := a.source.FindReversals(ctx, stmt.CompanyID, invoiceIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLedgerQuery, err)
	}
	for _, doc := range reversals {
		if !eligible(doc, stmt.CompanyID) || !doc.IsCreditNote() || seen[doc.ID] {
			continue
		}
		seen[doc.ID] = true
		selected = append(selected, doc)
	}

	return selected, nil
}

func eligible(doc *entity.Document, companyID string) bool {
	if doc == nil || doc.CompanyID != companyID || doc.State != entity.DocumentStatePosted {
		return false
	}
	return doc.Type == entity.DocumentTypeInvoice || doc.Type == entity.DocumentTypeCreditNote
}

func sortDocuments(docs []*entity.Document) {
	sort.SliceStable(docs, func(i, j int) bool {
		di, dj := docs[i].EffectiveDate(), docs[j].EffectiveDate()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		if docs[i].Number != docs[j].Number {
			return docs[i].Number < docs[j].Number
		}
		return docs[i].ID < docs[j].ID
	})
}

func (r *run) processDocument(ctx context.Context, doc *entity.Document) {
	isRefund := doc.IsCreditNote()
	domestic := doc.Partner.HasDomesticVAT(r.domesticPrefix)

	groups, untaxed := groupByRate(doc)
	if untaxed > 0 {
		r.observe(ctx, Event{Decision: DecisionLineUntaxed, DocumentID: doc.ID, DocumentNumber: doc.Number, Count: untaxed})
	}

	for _, group := range groups {
		if isRefund {
			group.base = forceNegative(group.base)
			group.tax = forceNegative(group.tax)
		}

		if group.base.IsZero() {
			r.observe(ctx, Event{
				Decision:       DecisionGroupZeroBase,
				DocumentID:     doc.ID,
				DocumentNumber: doc.Number,
				Rate:           group.rate,
				Tax:            group.tax,
			})
			continue
		}

		if domestic {
			r.emitDocumentLine(ctx, doc, group, isRefund)
			continue
		}

		target := r.individuals
		if isRefund {
			target = r.refunds
		}
		acc := target.add(group)
		r.observe(ctx, Event{
			Decision:       DecisionGroupAccumulated,
			DocumentID:     doc.ID,
			DocumentNumber: doc.Number,
			Bucket:         target.name,
			Rate:           group.rate,
			Base:           group.base,
			Tax:            group.tax,
			Count:          acc.count,
		})
	}
}

func (r *run) emitDocumentLine(ctx context.Context, doc *entity.Document, group *rateGroup, isRefund bool) {
	documentID := doc.ID
	partnerID := doc.Partner.ID
	partnerVAT := doc.Partner.VAT

	line := &entity.ReportLine{
		ID:             r.newID(),
		StatementID:    r.stmt.ID,
		Sequence:       len(r.lines) + 1,
		PartnerID:      &partnerID,
		PartnerVAT:     &partnerVAT,
		DocumentID:     &documentID,
		DocumentNumber: doc.Number,
		InvoiceDate:    entity.TruncateDay(doc.InvoiceDate),
		SupplyDate:     entity.TruncateDay(doc.EffectiveDate()),
		BaseAmount:     group.base,
		TaxRate:        group.rate,
		TaxAmount:      group.tax,
		IsRefund:       isRefund,
	}
	r.lines = append(r.lines, line)

	r.observe(ctx, Event{
		Decision:       DecisionLineEmitted,
		DocumentID:     doc.ID,
		DocumentNumber: doc.Number,
		Rate:           group.rate,
		Base:           group.base,
		Tax:            group.tax,
	})
}

func (r *run) emitSummaries(ctx context.Context, b *bucket, isRefund bool, placeholder, noun string) {
	for _, group := range b.sorted() {
		if group.base.IsZero() {
			continue
		}

		partnerVAT := placeholder
		line := &entity.ReportLine{
			ID:             r.newID(),
			StatementID:    r.stmt.ID,
			Sequence:       len(r.lines) + 1,
			PartnerVAT:     &partnerVAT,
			DocumentNumber: fmt.Sprintf("Summary (%d %s)", group.count, noun),
			InvoiceDate:    r.stmt.DateTo,
			SupplyDate:     r.stmt.DateTo,
			BaseAmount:     group.base,
			TaxRate:        group.rate,
			TaxAmount:      group.tax,
			IsSummary:      true,
			IsRefund:       isRefund,
		}
		r.lines = append(r.lines, line)

		r.observe(ctx, Event{
			Decision: DecisionSummaryEmitted,
			Bucket:   b.name,
			Rate:     group.rate,
			Base:     group.base,
			Tax:      group.tax,
			Count:    group.count,
		})
	}
}

func (r *run) observe(ctx context.Context, event Event) {
	event.RunID = r.id
	event.StatementID = r.stmt.ID
	r.observer.Observe(ctx, event)
}
