package export

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

type fakeResolver struct {
	partners  map[string]*entity.Partner
	documents map[string]*entity.Document
	err       error
	calls     int
}

func (f *fakeResolver) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	doc, ok := f.documents[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return doc, nil
}

func (f *fakeResolver) GetPartner(ctx context.Context, id string) (*entity.Partner, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	partner, ok := f.partners[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return partner, nil
}

func strPtr(s string) *string {
	return &s
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testStatement() *entity.Statement {
	stmt, _ := entity.NewStatement("stmt-1", "c1", 2024, 3)
	stmt.Status = entity.StatusConfirmed
	return stmt
}

func testCompany() *entity.Company {
	return &entity.Company{
		ID:           "c1",
		Name:         "Acme s.r.o.",
		VAT:          "2020123456",
		Country:      "Slovensko",
		City:         "Bratislava",
		Zip:          "81101",
		Street:       "Hlavná",
		StreetNumber: "12",
		Email:        "office@acme.sk",
	}
}

func invoiceLine(seq int, partnerID, vat, number string, base, tax, rate string) *entity.ReportLine {
	return &entity.ReportLine{
		ID:             number,
		StatementID:    "stmt-1",
		Sequence:       seq,
		PartnerID:      strPtr(partnerID),
		PartnerVAT:     strPtr(vat),
		DocumentID:     strPtr("doc-" + number),
		DocumentNumber: number,
		InvoiceDate:    day(2024, 3, 10),
		SupplyDate:     day(2024, 3, 8),
		BaseAmount:     dec(base),
		TaxAmount:      dec(tax),
		TaxRate:        dec(rate),
	}
}

func refundLine(seq int, partnerID, vat, number string, base, tax, rate string) *entity.ReportLine {
	line := invoiceLine(seq, partnerID, vat, number, base, tax, rate)
	line.IsRefund = true
	return line
}

func summaryLine(seq int, placeholder, label string, base, tax, rate string, refund bool) *entity.ReportLine {
	return &entity.ReportLine{
		ID:             label,
		StatementID:    "stmt-1",
		Sequence:       seq,
		PartnerVAT:     strPtr(placeholder),
		DocumentNumber: label,
		InvoiceDate:    day(2024, 3, 31),
		SupplyDate:     day(2024, 3, 31),
		BaseAmount:     dec(base),
		TaxAmount:      dec(tax),
		TaxRate:        dec(rate),
		IsSummary:      true,
		IsRefund:       refund,
	}
}
