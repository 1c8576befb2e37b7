package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

func TestCompanyRepository_SaveAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewCompanyRepository(db, zap.NewNop())
	ctx := context.Background()

	company := seedCompany(t, db)

	got, err := repo.GetByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, company, got)

	company.Name = "Acme a.s."
	company.Currency = ""
	require.NoError(t, repo.Save(ctx, company))

	got, err = repo.GetByID(ctx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme a.s.", got.Name)
	assert.Equal(t, entity.DefaultCurrency, got.Currency)
}

func TestCompanyRepository_NotFound(t *testing.T) {
	repo := NewCompanyRepository(newTestDB(t), zap.NewNop())

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, port.ErrNotFound)
}
