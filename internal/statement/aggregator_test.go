package statement

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

// fakeLedger applies the same period filter as the SQL ledger
type fakeLedger struct {
	docs        []*entity.Document
	findErr     error
	reversalErr error
}

func (f *fakeLedger) FindDocuments(ctx context.Context, q port.LedgerQuery) ([]*entity.Document, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var result []*entity.Document
	for _, doc := range f.docs {
		if doc.CompanyID != q.CompanyID || doc.State != entity.DocumentStatePosted {
			continue
		}
		date := doc.InvoiceDate
		if doc.SupplyDate != nil {
			date = *doc.SupplyDate
		}
		if !date.Before(q.DateFrom) && !date.After(q.DateTo) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (f *fakeLedger) FindReversals(ctx context.Context, companyID string, invoiceIDs []string) ([]*entity.Document, error) {
	if f.reversalErr != nil {
		return nil, f.reversalErr
	}
	ids := make(map[string]bool)
	for _, id := range invoiceIDs {
		ids[id] = true
	}
	var result []*entity.Document
	for _, doc := range f.docs {
		if doc.CompanyID == companyID && doc.State == entity.DocumentStatePosted &&
			doc.ReversedEntry != nil && ids[doc.ReversedEntry.ID] {
			result = append(result, doc)
		}
	}
	return result, nil
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func taxedLine(net, gross string, rates ...string) entity.DocumentLine {
	line := entity.DocumentLine{NetAmount: dec(net), GrossAmount: dec(gross)}
	for _, r := range rates {
		line.TaxRates = append(line.TaxRates, dec(r))
	}
	return line
}

func invoice(id, number, vat string, invoiceDate time.Time, lines ...entity.DocumentLine) *entity.Document {
	return &entity.Document{
		ID:          id,
		CompanyID:   "c1",
		Type:        entity.DocumentTypeInvoice,
		State:       entity.DocumentStatePosted,
		Number:      number,
		Partner:     &entity.Partner{ID: "p-" + id, VAT: vat, IsVATPayer: vat != ""},
		InvoiceDate: invoiceDate,
		Lines:       lines,
	}
}

func creditNote(id, number, vat string, invoiceDate time.Time, reverses *entity.Document, lines ...entity.DocumentLine) *entity.Document {
	doc := invoice(id, number, vat, invoiceDate, lines...)
	doc.Type = entity.DocumentTypeCreditNote
	if reverses != nil {
		doc.ReversedEntry = &entity.DocumentRef{
			ID:          reverses.ID,
			Number:      reverses.Number,
			InvoiceDate: reverses.InvoiceDate,
			SupplyDate:  reverses.SupplyDate,
		}
	}
	return doc
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%03d", n)
	}
}

func march2024(t *testing.T) *entity.Statement {
	t.Helper()
	stmt, err := entity.NewStatement("stmt-1", "c1", 2024, 3)
	require.NoError(t, err)
	return stmt
}

func generate(t *testing.T, docs ...*entity.Document) *Result {
	t.Helper()
	agg := NewAggregator(&fakeLedger{docs: docs}, WithIDGenerator(sequentialIDs()))
	result, err := agg.Generate(context.Background(), march2024(t))
	require.NoError(t, err)
	return result
}

func TestAggregator_DomesticAndIndividuals(t *testing.T) {
	result := generate(t,
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20")),
		invoice("d2", "INV/002", "", date(2024, 3, 6), taxedLine("50", "60", "20")),
	)

	require.Len(t, result.Lines, 2)

	domestic := result.Lines[0]
	assert.False(t, domestic.IsSummary)
	assert.False(t, domestic.IsRefund)
	assert.Equal(t, "SK2020123456", domestic.PartnerVATValue())
	assert.Equal(t, "d1", domestic.DocumentIDValue())
	assert.Equal(t, "INV/001", domestic.DocumentNumber)
	assert.True(t, domestic.BaseAmount.Equal(dec("100")))
	assert.True(t, domestic.TaxAmount.Equal(dec("20")))
	assert.True(t, domestic.TaxRate.Equal(dec("20")))

	summary := result.Lines[1]
	assert.True(t, summary.IsSummary)
	assert.False(t, summary.IsRefund)
	assert.Nil(t, summary.PartnerID)
	assert.Nil(t, summary.DocumentID)
	assert.Equal(t, entity.PartnerVATIndividuals, summary.PartnerVATValue())
	assert.Equal(t, "Summary (1 invoices)", summary.DocumentNumber)
	assert.True(t, summary.BaseAmount.Equal(dec("50")))
	assert.True(t, summary.TaxAmount.Equal(dec("10")))
	assert.Equal(t, "2024-03-31", summary.SupplyDate.Format(entity.DateLayout))
	assert.Equal(t, 2, result.DocumentCount)
}

func TestAggregator_TotalsMatchLines(t *testing.T) {
	inv := invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"), taxedLine("40", "44", "10"))
	result := generate(t,
		inv,
		invoice("d2", "INV/002", "", date(2024, 3, 6), taxedLine("50", "60", "20")),
		creditNote("r1", "RINV/001", "SK2020123456", date(2024, 3, 20), inv, taxedLine("30", "36", "20")),
		creditNote("r2", "RINV/002", "", date(2024, 3, 21), nil, taxedLine("10", "12", "20")),
	)

	var regularBase, regularTax, refundBase, refundTax decimal.Decimal
	for _, line := range result.Lines {
		if line.IsRefund {
			refundBase = refundBase.Add(line.BaseAmount)
			refundTax = refundTax.Add(line.TaxAmount)
		} else {
			regularBase = regularBase.Add(line.BaseAmount)
			regularTax = regularTax.Add(line.TaxAmount)
		}
	}

	assert.True(t, result.Totals.RegularBase.Equal(regularBase))
	assert.True(t, result.Totals.RegularTax.Equal(regularTax))
	assert.True(t, result.Totals.RefundBase.Equal(refundBase))
	assert.True(t, result.Totals.RefundTax.Equal(refundTax))
	assert.Equal(t, "190", result.Totals.RegularBase.String())
	assert.Equal(t, "-40", result.Totals.RefundBase.String())
}

func TestAggregator_MultiRateDocumentYieldsOneLinePerRate(t *testing.T) {
	result := generate(t,
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5),
			taxedLine("100", "120", "20"),
			taxedLine("200", "220", "10"),
			taxedLine("50", "60", "20.00"),
		),
	)

	require.Len(t, result.Lines, 2)
	assert.True(t, result.Lines[0].TaxRate.Equal(dec("10")))
	assert.True(t, result.Lines[0].BaseAmount.Equal(dec("200")))
	assert.True(t, result.Lines[1].TaxRate.Equal(dec("20")))
	assert.True(t, result.Lines[1].BaseAmount.Equal(dec("150")))
	assert.True(t, result.Lines[1].TaxAmount.Equal(dec("30")))
}

func TestAggregator_ExactRateKey(t *testing.T) {
	result := generate(t,
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5),
			taxedLine("100", "119.50", "19.5"),
			taxedLine("100", "120", "20"),
		),
	)

	require.Len(t, result.Lines, 2)
	assert.Equal(t, "19.5", result.Lines[0].TaxRate.String())
	assert.Equal(t, "20", result.Lines[1].TaxRate.String())
}

func TestAggregator_LineWithSeveralTaxes(t *testing.T) {
	result := generate(t,
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "130", "10", "20")),
	)

	require.Len(t, result.Lines, 2)
	for _, line := range result.Lines {
		assert.True(t, line.BaseAmount.Equal(dec("100")))
		assert.True(t, line.TaxAmount.Equal(dec("30")))
	}
}

func TestAggregator_ReversingCreditNoteOutsideWindow(t *testing.T) {
	inv := invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 10), taxedLine("30", "36", "20"))
	inv.SupplyDate = datePtr(2024, 3, 8)
	note := creditNote("r1", "RINV/001", "SK2020123456", date(2024, 4, 15), inv, taxedLine("30", "36", "20"))
	note.SupplyDate = datePtr(2024, 4, 15)

	result := generate(t, inv, note)

	require.Len(t, result.Lines, 2)
	refund := result.Lines[1]
	assert.True(t, refund.IsRefund)
	assert.False(t, refund.IsSummary)
	assert.Equal(t, "RINV/001", refund.DocumentNumber)
	assert.Equal(t, "2024-03-08", refund.SupplyDate.Format(entity.DateLayout))
	assert.Equal(t, "2024-04-15", refund.InvoiceDate.Format(entity.DateLayout))
	assert.True(t, refund.BaseAmount.Equal(dec("-30")))
	assert.True(t, refund.TaxAmount.Equal(dec("-6")))
}

func TestAggregator_CreditNoteForPreviousPeriodDropped(t *testing.T) {
	february := invoice("d0", "INV/000", "SK2020123456", date(2024, 2, 20), taxedLine("30", "36", "20"))
	note := creditNote("r1", "RINV/001", "SK2020123456", date(2024, 3, 3), february, taxedLine("30", "36", "20"))

	var events []Event
	agg := NewAggregator(&fakeLedger{docs: []*entity.Document{february, note}},
		WithObserver(ObserverFunc(func(ctx context.Context, e Event) { events = append(events, e) })))

	result, err := agg.Generate(context.Background(), march2024(t))
	require.NoError(t, err)

	assert.Empty(t, result.Lines)
	assert.Equal(t, 0, result.DocumentCount)
	require.NotEmpty(t, events)
	assert.Equal(t, DecisionDocumentOutOfRange, events[0].Decision)
	assert.Equal(t, "r1", events[0].DocumentID)
}

func TestAggregator_RefundSignForced(t *testing.T) {
	tests := []struct {
		name  string
		net   string
		gross string
	}{
		{"positive stored amounts", "30", "36"},
		{"negative stored amounts", "-30", "-36"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := generate(t,
				creditNote("r1", "RINV/001", "SK2020123456", date(2024, 3, 3), nil, taxedLine(tt.net, tt.gross, "20")),
			)

			require.Len(t, result.Lines, 1)
			assert.Equal(t, "-30", result.Lines[0].BaseAmount.String())
			assert.Equal(t, "-6", result.Lines[0].TaxAmount.String())
			assert.True(t, result.Lines[0].IsRefund)
		})
	}
}

func TestAggregator_ZeroBaseAndUntaxedSkipped(t *testing.T) {
	result := generate(t,
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5),
			taxedLine("100", "120", "20"),
			taxedLine("-100", "-120", "20"),
			taxedLine("80", "80"),
		),
		invoice("d2", "INV/002", "", date(2024, 3, 6), taxedLine("0", "0", "10")),
	)

	assert.Empty(t, result.Lines)
	assert.True(t, result.Totals.RegularBase.IsZero())
}

func TestAggregator_RefundsBucket(t *testing.T) {
	result := generate(t,
		creditNote("r1", "RINV/001", "", date(2024, 3, 3), nil, taxedLine("10", "12", "20")),
		creditNote("r2", "RINV/002", "CZ12345678", date(2024, 3, 4), nil, taxedLine("20", "24", "20")),
		invoice("d1", "INV/001", "CZ12345678", date(2024, 3, 5), taxedLine("100", "110", "10")),
		invoice("d2", "INV/002", "", date(2024, 3, 6), taxedLine("100", "120", "20")),
	)

	require.Len(t, result.Lines, 3)

	assert.Equal(t, entity.PartnerVATIndividuals, result.Lines[0].PartnerVATValue())
	assert.True(t, result.Lines[0].TaxRate.Equal(dec("10")))
	assert.Equal(t, "Summary (1 invoices)", result.Lines[0].DocumentNumber)

	assert.Equal(t, entity.PartnerVATIndividuals, result.Lines[1].PartnerVATValue())
	assert.True(t, result.Lines[1].TaxRate.Equal(dec("20")))

	refunds := result.Lines[2]
	assert.True(t, refunds.IsSummary)
	assert.True(t, refunds.IsRefund)
	assert.Equal(t, entity.PartnerVATRefunds, refunds.PartnerVATValue())
	assert.Equal(t, "Summary (2 refunds)", refunds.DocumentNumber)
	assert.Equal(t, "-30", refunds.BaseAmount.String())
	assert.Equal(t, "-6", refunds.TaxAmount.String())
}

func TestAggregator_SupplyDateDrivesPeriod(t *testing.T) {
	suppliedInMarch := invoice("d1", "INV/001", "SK2020123456", date(2024, 4, 2), taxedLine("100", "120", "20"))
	suppliedInMarch.SupplyDate = datePtr(2024, 3, 28)
	suppliedInApril := invoice("d2", "INV/002", "SK2020123456", date(2024, 3, 30), taxedLine("100", "120", "20"))
	suppliedInApril.SupplyDate = datePtr(2024, 4, 1)
	noSupplyDate := invoice("d3", "INV/003", "SK2020123456", date(2024, 3, 15), taxedLine("100", "120", "20"))

	result := generate(t, suppliedInMarch, suppliedInApril, noSupplyDate)

	require.Len(t, result.Lines, 2)
	assert.Equal(t, "INV/003", result.Lines[0].DocumentNumber)
	assert.Equal(t, "2024-03-15", result.Lines[0].SupplyDate.Format(entity.DateLayout))
	assert.Equal(t, "INV/001", result.Lines[1].DocumentNumber)
	assert.Equal(t, "2024-03-28", result.Lines[1].SupplyDate.Format(entity.DateLayout))
}

func TestAggregator_IneligibleDocumentsIgnored(t *testing.T) {
	otherCompany := invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"))
	otherCompany.CompanyID = "c2"
	vendorBill := invoice("d2", "BILL/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"))
	vendorBill.Type = "in_invoice"
	draft := invoice("d3", "INV/003", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"))
	draft.State = entity.DocumentStateDraft

	result := generate(t, otherCompany, vendorBill, draft)

	assert.Empty(t, result.Lines)
}

func TestAggregator_Idempotent(t *testing.T) {
	inv := invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"), taxedLine("10", "11", "10"))
	docs := []*entity.Document{
		invoice("d3", "INV/003", "", date(2024, 3, 9), taxedLine("70", "84", "20")),
		inv,
		creditNote("r1", "RINV/001", "SK2020123456", date(2024, 5, 1), inv, taxedLine("5", "6", "20")),
		invoice("d2", "INV/002", "SK2020654321", date(2024, 3, 5), taxedLine("1", "1.2", "20")),
	}

	first := generate(t, docs...)
	reversed := make([]*entity.Document, len(docs))
	for i, doc := range docs {
		reversed[len(docs)-1-i] = doc
	}
	second := generate(t, reversed...)

	require.Equal(t, len(first.Lines), len(second.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i], second.Lines[i])
	}
	assert.True(t, first.Totals.Equal(second.Totals))
}

func TestAggregator_LedgerErrorPropagates(t *testing.T) {
	agg := NewAggregator(&fakeLedger{findErr: errors.New("connection refused")})

	result, err := agg.Generate(context.Background(), march2024(t))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrLedgerQuery)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAggregator_ReversalErrorPropagates(t *testing.T) {
	agg := NewAggregator(&fakeLedger{
		docs:        []*entity.Document{invoice("d1", "INV/001", "SK1", date(2024, 3, 5), taxedLine("1", "1.2", "20"))},
		reversalErr: errors.New("timeout"),
	})

	_, err := agg.Generate(context.Background(), march2024(t))

	assert.ErrorIs(t, err, ErrLedgerQuery)
}

func TestAggregator_NilStatement(t *testing.T) {
	_, err := NewAggregator(&fakeLedger{}).Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNilStatement)
}

func TestAggregator_CustomDomesticPrefix(t *testing.T) {
	agg := NewAggregator(&fakeLedger{docs: []*entity.Document{
		invoice("d1", "INV/001", "CZ12345678", date(2024, 3, 5), taxedLine("100", "121", "21")),
	}}, WithDomesticPrefix("CZ"))

	result, err := agg.Generate(context.Background(), march2024(t))
	require.NoError(t, err)

	require.Len(t, result.Lines, 1)
	assert.False(t, result.Lines[0].IsSummary)
}

func TestAggregator_ObserverSeesEveryDecision(t *testing.T) {
	counts := make(map[Decision]int)
	runIDs := make(map[string]bool)
	observer := ObserverFunc(func(ctx context.Context, e Event) {
		counts[e.Decision]++
		runIDs[e.RunID] = true
	})

	agg := NewAggregator(&fakeLedger{docs: []*entity.Document{
		invoice("d1", "INV/001", "SK2020123456", date(2024, 3, 5), taxedLine("100", "120", "20"), taxedLine("5", "5")),
		invoice("d2", "INV/002", "", date(2024, 3, 6), taxedLine("50", "60", "20"), taxedLine("0", "0", "10")),
	}}, WithObserver(observer))

	_, err := agg.Generate(context.Background(), march2024(t))
	require.NoError(t, err)

	assert.Equal(t, 2, counts[DecisionDocumentSelected])
	assert.Equal(t, 1, counts[DecisionLineUntaxed])
	assert.Equal(t, 1, counts[DecisionLineEmitted])
	assert.Equal(t, 1, counts[DecisionGroupZeroBase])
	assert.Equal(t, 1, counts[DecisionGroupAccumulated])
	assert.Equal(t, 1, counts[DecisionSummaryEmitted])
	assert.Len(t, runIDs, 1)
}
