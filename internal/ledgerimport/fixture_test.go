package ledgerimport

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

func openFixture(t *testing.T) *Fixture {
	t.Helper()
	f, err := os.Open("testdata/march.yaml")
	require.NoError(t, err)
	defer f.Close()

	fixture, err := Parse(f)
	require.NoError(t, err)
	return fixture
}

func TestParse_ReadsCompanyAndPartners(t *testing.T) {
	fixture := openFixture(t)

	assert.Equal(t, "c1", fixture.Company.ID)
	assert.Equal(t, "SK2020123456", fixture.Company.VAT)
	assert.Equal(t, "81101", fixture.Company.Zip)
	require.Len(t, fixture.Partners, 2)
	assert.True(t, fixture.Partners[0].IsVATPayer)
	assert.False(t, fixture.Partners[1].IsVATPayer)
	assert.Len(t, fixture.Documents, 3)
}

func TestBuild_OrdersReversedInvoicesFirst(t *testing.T) {
	docs, err := openFixture(t).Build()
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "inv1", docs[0].ID)
	assert.Equal(t, "inv2", docs[1].ID)
	assert.Equal(t, "ref1", docs[2].ID)

	inv1 := docs[0]
	assert.Equal(t, "c1", inv1.CompanyID)
	assert.Equal(t, entity.DocumentStatePosted, inv1.State)
	assert.Equal(t, "2024-03-05", inv1.InvoiceDate.Format(entity.DateLayout))
	require.NotNil(t, inv1.SupplyDate)
	assert.Equal(t, "2024-03-04", inv1.SupplyDate.Format(entity.DateLayout))
	require.NotNil(t, inv1.Partner)
	assert.Equal(t, "p1", inv1.Partner.ID)
	require.Len(t, inv1.Lines, 1)
	assert.Equal(t, "20", inv1.Lines[0].TaxAmount().String())

	assert.Equal(t, entity.DocumentTypeInvoice, docs[1].Type)
	assert.Nil(t, docs[1].SupplyDate)

	ref := docs[2]
	assert.True(t, ref.IsCreditNote())
	require.NotNil(t, ref.ReversedEntry)
	assert.Equal(t, "inv1", ref.ReversedEntry.ID)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing company id",
			yaml: "company:\n  name: Acme\n",
		},
		{
			name: "bad company vat",
			yaml: "company:\n  id: c1\n  vat: \"12\"\n",
		},
		{
			name: "bad company email",
			yaml: "company:\n  id: c1\n  email: nope\n",
		},
		{
			name: "bad partner vat",
			yaml: "company:\n  id: c1\npartners:\n  - id: p1\n    vat: X\n",
		},
		{
			name: "unknown field",
			yaml: "company:\n  id: c1\n  owner: someone\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestBuild_Rejects(t *testing.T) {
	base := "company:\n  id: c1\npartners:\n  - id: p1\ndocuments:\n"
	tests := []struct {
		name string
		docs string
	}{
		{
			name: "unknown partner",
			docs: "  - id: d1\n    partner: p9\n    invoice_date: 2024-03-01\n",
		},
		{
			name: "unknown reversed invoice",
			docs: "  - id: d1\n    type: out_refund\n    reverses: d9\n    invoice_date: 2024-03-01\n",
		},
		{
			name: "duplicate id",
			docs: "  - id: d1\n    invoice_date: 2024-03-01\n  - id: d1\n    invoice_date: 2024-03-02\n",
		},
		{
			name: "missing invoice date",
			docs: "  - id: d1\n",
		},
		{
			name: "unsupported type",
			docs: "  - id: d1\n    type: in_invoice\n    invoice_date: 2024-03-01\n",
		},
		{
			name: "bad amount",
			docs: "  - id: d1\n    invoice_date: 2024-03-01\n    lines:\n      - net: abc\n        gross: \"1\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture, err := Parse(strings.NewReader(base + tt.docs))
			require.NoError(t, err)

			_, err = fixture.Build()
			assert.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}
