package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
	"github.com/garyjia/kvdph/migrations"
	"github.com/garyjia/kvdph/pkg/database"
)

func newTestDB(t *testing.T) *sqlstore.DB {
	t.Helper()

	logger := zap.NewNop()
	db, err := database.New(database.Config{Driver: database.DriverSQLite, Path: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(migrations.FS, migrations.Dir(db.Driver())))

	return sqlstore.NewDB(db.DB, sqlstore.DialectSQLite, logger)
}

func date(s string) time.Time {
	t, err := entity.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	t := date(s)
	return &t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedCompany(t *testing.T, db *sqlstore.DB) *entity.Company {
	t.Helper()
	company := &entity.Company{
		ID:       "c1",
		Name:     "Acme s.r.o.",
		VAT:      "SK2020123456",
		Country:  "SK",
		City:     "Bratislava",
		Currency: "EUR",
	}
	require.NoError(t, NewCompanyRepository(db, zap.NewNop()).Save(context.Background(), company))
	return company
}
