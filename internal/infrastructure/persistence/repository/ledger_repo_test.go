package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

func seedLedger(t *testing.T, repo *LedgerRepository) {
	t.Helper()
	ctx := context.Background()

	domestic := &entity.Partner{ID: "p1", Name: "Domestic", VAT: "SK1234567890", IsVATPayer: true}
	private := &entity.Partner{ID: "p2", Name: "Private"}

	docs := []*entity.Document{
		{
			ID: "inv1", CompanyID: "c1", Type: entity.DocumentTypeInvoice, State: entity.DocumentStatePosted,
			Number: "INV/001", Partner: domestic, InvoiceDate: date("2024-03-05"),
			Lines: []entity.DocumentLine{
				{Description: "Goods", NetAmount: dec("100"), GrossAmount: dec("120"), TaxRates: []decimal.Decimal{dec("20")}},
				{Description: "Books", NetAmount: dec("50"), GrossAmount: dec("55"), TaxRates: []decimal.Decimal{dec("10")}},
			},
		},
		{
			ID: "inv2", CompanyID: "c1", Type: entity.DocumentTypeInvoice, State: entity.DocumentStatePosted,
			Number: "INV/002", Partner: private, InvoiceDate: date("2024-04-02"), SupplyDate: datePtr("2024-03-30"),
			Lines: []entity.DocumentLine{
				{Description: "Service", NetAmount: dec("10"), GrossAmount: dec("12"), TaxRates: []decimal.Decimal{dec("20")}},
			},
		},
		{
			ID: "inv3", CompanyID: "c1", Type: entity.DocumentTypeInvoice, State: entity.DocumentStatePosted,
			Number: "INV/003", Partner: domestic, InvoiceDate: date("2024-03-20"), SupplyDate: datePtr("2024-02-28"),
		},
		{
			ID: "draft1", CompanyID: "c1", Type: entity.DocumentTypeInvoice, State: entity.DocumentStateDraft,
			Number: "DRAFT", InvoiceDate: date("2024-03-10"),
		},
		{
			ID: "ref1", CompanyID: "c1", Type: entity.DocumentTypeCreditNote, State: entity.DocumentStatePosted,
			Number: "RINV/001", Partner: domestic, InvoiceDate: date("2024-04-10"),
			ReversedEntry: &entity.DocumentRef{ID: "inv1"},
			Lines: []entity.DocumentLine{
				{Description: "Goods", NetAmount: dec("20"), GrossAmount: dec("24"), TaxRates: []decimal.Decimal{dec("20")}},
			},
		},
	}
	for _, doc := range docs {
		require.NoError(t, repo.SaveDocument(ctx, doc))
	}
}

func TestLedgerRepository_FindDocuments(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	repo := NewLedgerRepository(db, zap.NewNop())
	seedLedger(t, repo)

	docs, err := repo.FindDocuments(context.Background(), port.LedgerQuery{
		CompanyID: "c1",
		DateFrom:  date("2024-03-01"),
		DateTo:    date("2024-03-31"),
	})
	require.NoError(t, err)

	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	// inv3 is supplied in February, draft1 is not posted, ref1 is dated April
	assert.ElementsMatch(t, []string{"inv1", "inv2"}, ids)

	var inv1 *entity.Document
	for _, doc := range docs {
		if doc.ID == "inv1" {
			inv1 = doc
		}
	}
	require.NotNil(t, inv1)
	require.NotNil(t, inv1.Partner)
	assert.Equal(t, "SK1234567890", inv1.Partner.VAT)
	assert.True(t, inv1.Partner.IsVATPayer)
	assert.Nil(t, inv1.SupplyDate)
	require.Len(t, inv1.Lines, 2)
	assert.Equal(t, "Goods", inv1.Lines[0].Description)
	assert.True(t, inv1.Lines[0].TaxAmount().Equal(dec("20")))
	require.Len(t, inv1.Lines[1].TaxRates, 1)
	assert.True(t, inv1.Lines[1].TaxRates[0].Equal(dec("10")))
}

func TestLedgerRepository_FindReversals(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	repo := NewLedgerRepository(db, zap.NewNop())
	seedLedger(t, repo)
	ctx := context.Background()

	docs, err := repo.FindReversals(ctx, "c1", []string{"inv1", "inv2"})
	require.NoError(t, err)
	require.Len(t, docs, 1)

	ref := docs[0]
	assert.Equal(t, "ref1", ref.ID)
	assert.True(t, ref.IsCreditNote())
	require.NotNil(t, ref.ReversedEntry)
	assert.Equal(t, "INV/001", ref.ReversedEntry.Number)
	assert.Equal(t, date("2024-03-05"), ref.EffectiveDate())
	require.Len(t, ref.Lines, 1)

	none, err := repo.FindReversals(ctx, "c1", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLedgerRepository_GetDocumentAndPartner(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	repo := NewLedgerRepository(db, zap.NewNop())
	seedLedger(t, repo)
	ctx := context.Background()

	doc, err := repo.GetDocument(ctx, "inv2")
	require.NoError(t, err)
	require.NotNil(t, doc.SupplyDate)
	assert.Equal(t, date("2024-03-30"), *doc.SupplyDate)

	_, err = repo.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)

	partner, err := repo.GetPartner(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Private", partner.Name)
	assert.False(t, partner.IsVATPayer)

	_, err = repo.GetPartner(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)
}

func TestLedgerRepository_SaveDocumentReplacesLines(t *testing.T) {
	db := newTestDB(t)
	seedCompany(t, db)
	repo := NewLedgerRepository(db, zap.NewNop())
	seedLedger(t, repo)
	ctx := context.Background()

	doc, err := repo.GetDocument(ctx, "inv1")
	require.NoError(t, err)
	doc.Lines = doc.Lines[:1]
	doc.Lines[0].ID = ""
	require.NoError(t, repo.SaveDocument(ctx, doc))

	got, err := repo.GetDocument(ctx, "inv1")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, "inv1-1", got.Lines[0].ID)
}

func TestRates(t *testing.T) {
	assert.Equal(t, "20,10", joinRates([]decimal.Decimal{dec("20"), dec("10")}))

	rates, err := splitRates("20, 5.5")
	require.NoError(t, err)
	require.Len(t, rates, 2)
	assert.True(t, rates[1].Equal(dec("5.5")))

	rates, err = splitRates("")
	require.NoError(t, err)
	assert.Nil(t, rates)

	_, err = splitRates("x")
	assert.Error(t, err)
}
