package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
)

// CompanyRepository implements port.CompanyRepository
type CompanyRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sqlstore.DB, logger *zap.Logger) port.CompanyRepository {
	return &CompanyRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a company profile
func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	query := `
		SELECT id, name, vat, country, city, zip, street, street_number, phone, email, currency
		FROM companies WHERE id = ?
	`

	var c entity.Company
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Name, &c.VAT, &c.Country, &c.City, &c.Zip,
		&c.Street, &c.StreetNumber, &c.Phone, &c.Email, &c.Currency,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: company %s", port.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

// Save inserts or replaces a company profile
func (r *CompanyRepository) Save(ctx context.Context, c *entity.Company) error {
	query := `
		INSERT INTO companies (id, name, vat, country, city, zip, street, street_number, phone, email, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, vat = excluded.vat, country = excluded.country,
			city = excluded.city, zip = excluded.zip, street = excluded.street,
			street_number = excluded.street_number, phone = excluded.phone,
			email = excluded.email, currency = excluded.currency
	`

	currency := c.Currency
	if currency == "" {
		currency = entity.DefaultCurrency
	}

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		c.ID, c.Name, c.VAT, c.Country, c.City, c.Zip,
		c.Street, c.StreetNumber, c.Phone, c.Email, currency,
	)
	if err != nil {
		r.logger.Error("Failed to save company", zap.String("id", c.ID), zap.Error(err))
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}
