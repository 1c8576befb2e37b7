package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

func TestBuildReadModel_SplitsLines(t *testing.T) {
	resolver := &fakeResolver{
		partners: map[string]*entity.Partner{
			"p1": {ID: "p1", VAT: "SK2020111111", IsVATPayer: true},
			"p2": {ID: "p2", VAT: "SK2020222222", IsVATPayer: false},
		},
		documents: map[string]*entity.Document{
			"doc-RINV/001": {ID: "doc-RINV/001", ReversedEntry: &entity.DocumentRef{ID: "doc-INV/001", Number: "INV/001"}},
		},
	}
	lines := []*entity.ReportLine{
		invoiceLine(1, "p1", "SK2020111111", "INV/001", "100", "20", "20"),
		invoiceLine(2, "p2", "SK2020222222", "INV/002", "50", "10", "20"),
		refundLine(3, "p1", "SK2020111111", "RINV/001", "-30", "-6", "20"),
		refundLine(4, "p3", "SK2020333333", "RINV/002", "-10", "-2", "20"),
		summaryLine(5, entity.PartnerVATIndividuals, "Summary (2 invoices)", "70", "14", "20", false),
	}

	model, err := BuildReadModel(context.Background(), testStatement(), lines, testCompany(), resolver, BuildOptions{})
	require.NoError(t, err)

	require.Len(t, model.Invoices, 2)
	require.Len(t, model.Refunds, 2)
	require.Len(t, model.Summaries, 1)

	assert.True(t, model.Invoices[0].PartnerIsVATPayer)
	assert.False(t, model.Invoices[1].PartnerIsVATPayer)
	assert.True(t, model.Refunds[0].PartnerIsVATPayer)
	assert.Equal(t, "INV/001", model.Refunds[0].OriginalInvoiceNumber)
	assert.False(t, model.Refunds[1].PartnerIsVATPayer)
	assert.Equal(t, "", model.Refunds[1].OriginalInvoiceNumber)

	assert.Equal(t, DefaultNamespace, model.Namespace)
	assert.Equal(t, entity.DefaultDomesticPrefix, model.DomesticPrefix)
	assert.Equal(t, 3, resolver.calls, "partner lookups are cached")
}

func TestBuildReadModel_ResolverFailure(t *testing.T) {
	resolver := &fakeResolver{err: errors.New("db down")}
	lines := []*entity.ReportLine{invoiceLine(1, "p1", "SK1", "INV/001", "1", "0.2", "20")}

	_, err := BuildReadModel(context.Background(), testStatement(), lines, testCompany(), resolver, BuildOptions{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}

func TestBuildReadModel_MissingCompany(t *testing.T) {
	model, err := BuildReadModel(context.Background(), testStatement(), nil, nil, nil, BuildOptions{Namespace: "urn:test"})
	require.NoError(t, err)

	assert.NotNil(t, model.Company)
	assert.Equal(t, "urn:test", model.Namespace)
}

func TestBuildReadModel_NilStatement(t *testing.T) {
	_, err := BuildReadModel(context.Background(), nil, nil, nil, nil, BuildOptions{})
	assert.ErrorIs(t, err, ErrNilReadModel)
}
