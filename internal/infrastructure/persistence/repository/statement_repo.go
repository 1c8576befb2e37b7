package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
)

const statementColumns = `
	id, reference, company_id, year, month, date_from, date_to, status, currency,
	total_regular_base, total_regular_tax, total_refund_base, total_refund_tax,
	xml_file, xml_filename, xlsx_file, xlsx_filename, created_at, updated_at`

// StatementRepository implements port.StatementRepository
type StatementRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewStatementRepository creates a new statement repository
func NewStatementRepository(db *sqlstore.DB, logger *zap.Logger) port.StatementRepository {
	return &StatementRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a statement. A second statement for the same company and
// period fails with port.ErrDuplicateStatement.
func (r *StatementRepository) Create(ctx context.Context, stmt *entity.Statement) error {
	query := `
		INSERT INTO statements (` + statementColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	if stmt.CreatedAt.IsZero() {
		stmt.CreatedAt = now
	}
	stmt.UpdatedAt = stmt.CreatedAt

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		stmt.ID,
		stmt.Reference,
		stmt.CompanyID,
		stmt.Year,
		stmt.Month,
		sqlstore.NewDate(stmt.DateFrom),
		sqlstore.NewDate(stmt.DateTo),
		stmt.Status,
		stmt.Currency,
		stmt.Totals.RegularBase,
		stmt.Totals.RegularTax,
		stmt.Totals.RefundBase,
		stmt.Totals.RefundTax,
		stmt.XMLFile,
		stmt.XMLFileName,
		stmt.XLSXFile,
		stmt.XLSXFileName,
		stmt.CreatedAt,
		stmt.UpdatedAt,
	)
	if err != nil {
		if sqlstore.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s", port.ErrDuplicateStatement, stmt.CompanyID, stmt.PeriodLabel())
		}
		r.logger.Error("Failed to create statement", zap.String("id", stmt.ID), zap.Error(err))
		return fmt.Errorf("failed to create statement: %w", err)
	}
	return nil
}

// GetByID retrieves a statement by ID
func (r *StatementRepository) GetByID(ctx context.Context, id string) (*entity.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE id = ?`

	stmt, err := scanStatement(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: statement %s", port.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get statement", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get statement: %w", err)
	}
	return stmt, nil
}

// GetByPeriod retrieves the statement of a company for one month
func (r *StatementRepository) GetByPeriod(ctx context.Context, companyID string, year, month int) (*entity.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements WHERE company_id = ? AND year = ? AND month = ?`

	stmt, err := scanStatement(r.db.Executor(ctx).QueryRowContext(ctx, query, companyID, year, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: statement %s %04d/%02d", port.ErrNotFound, companyID, year, month)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get statement by period: %w", err)
	}
	return stmt, nil
}

// List returns the statements of a company, newest period first.
// An empty companyID lists all companies.
func (r *StatementRepository) List(ctx context.Context, companyID string) ([]*entity.Statement, error) {
	query := `SELECT ` + statementColumns + ` FROM statements`
	var args []interface{}
	if companyID != "" {
		query += ` WHERE company_id = ?`
		args = append(args, companyID)
	}
	query += ` ORDER BY year DESC, month DESC, company_id`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list statements: %w", err)
	}
	defer rows.Close()

	var statements []*entity.Statement
	for rows.Next() {
		stmt, err := scanStatement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan statement: %w", err)
		}
		statements = append(statements, stmt)
	}
	return statements, rows.Err()
}

// Update writes status, totals and stored artifacts of a statement
func (r *StatementRepository) Update(ctx context.Context, stmt *entity.Statement) error {
	query := `
		UPDATE statements SET
			reference = ?, status = ?, currency = ?,
			total_regular_base = ?, total_regular_tax = ?,
			total_refund_base = ?, total_refund_tax = ?,
			xml_file = ?, xml_filename = ?, xlsx_file = ?, xlsx_filename = ?,
			updated_at = ?
		WHERE id = ?
	`

	stmt.UpdatedAt = time.Now().UTC()
	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		stmt.Reference,
		stmt.Status,
		stmt.Currency,
		stmt.Totals.RegularBase,
		stmt.Totals.RegularTax,
		stmt.Totals.RefundBase,
		stmt.Totals.RefundTax,
		stmt.XMLFile,
		stmt.XMLFileName,
		stmt.XLSXFile,
		stmt.XLSXFileName,
		stmt.UpdatedAt,
		stmt.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update statement", zap.String("id", stmt.ID), zap.Error(err))
		return fmt.Errorf("failed to update statement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: statement %s", port.ErrNotFound, stmt.ID)
	}
	return nil
}

// NextReference allocates the next statement reference of a year,
// formatted KV/<year>/<NNNN>.
func (r *StatementRepository) NextReference(ctx context.Context, year int) (string, error) {
	query := `
		INSERT INTO statement_sequences (year, next_value) VALUES (?, 2)
		ON CONFLICT (year) DO UPDATE SET next_value = statement_sequences.next_value + 1
		RETURNING next_value - 1
	`

	var value int
	if err := r.db.Executor(ctx).QueryRowContext(ctx, query, year).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to allocate statement reference: %w", err)
	}
	return fmt.Sprintf("KV/%04d/%04d", year, value), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStatement(row rowScanner) (*entity.Statement, error) {
	var stmt entity.Statement
	var dateFrom, dateTo sqlstore.Date

	err := row.Scan(
		&stmt.ID,
		&stmt.Reference,
		&stmt.CompanyID,
		&stmt.Year,
		&stmt.Month,
		&dateFrom,
		&dateTo,
		&stmt.Status,
		&stmt.Currency,
		&stmt.Totals.RegularBase,
		&stmt.Totals.RegularTax,
		&stmt.Totals.RefundBase,
		&stmt.Totals.RefundTax,
		&stmt.XMLFile,
		&stmt.XMLFileName,
		&stmt.XLSXFile,
		&stmt.XLSXFileName,
		&stmt.CreatedAt,
		&stmt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	stmt.DateFrom = dateFrom.Time
	stmt.DateTo = dateTo.Time
	return &stmt, nil
}
