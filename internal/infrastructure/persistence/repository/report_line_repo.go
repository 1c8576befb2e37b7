package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
)

// ReportLineRepository implements port.ReportLineRepository
type ReportLineRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewReportLineRepository creates a new report line repository
func NewReportLineRepository(db *sqlstore.DB, logger *zap.Logger) port.ReportLineRepository {
	return &ReportLineRepository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts lines in one transaction
func (r *ReportLineRepository) CreateBatch(ctx context.Context, lines []*entity.ReportLine) error {
	if len(lines) == 0 {
		return nil
	}

	query := `
		INSERT INTO report_lines (
			id, statement_id, sequence, partner_id, partner_vat, document_id,
			document_number, invoice_date, supply_date, base_amount, tax_rate,
			tax_amount, is_summary, is_refund, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		exec := r.db.Executor(ctx)
		now := time.Now().UTC()
		for _, line := range lines {
			if line.CreatedAt.IsZero() {
				line.CreatedAt = now
			}
			_, err := exec.ExecContext(ctx, query,
				line.ID,
				line.StatementID,
				line.Sequence,
				nullString(line.PartnerID),
				nullString(line.PartnerVAT),
				nullString(line.DocumentID),
				line.DocumentNumber,
				sqlstore.NewDate(line.InvoiceDate),
				sqlstore.NewDate(line.SupplyDate),
				line.BaseAmount,
				line.TaxRate,
				line.TaxAmount,
				line.IsSummary,
				line.IsRefund,
				line.CreatedAt,
			)
			if err != nil {
				r.logger.Error("Failed to insert report line",
					zap.String("statement_id", line.StatementID),
					zap.Int("sequence", line.Sequence),
					zap.Error(err))
				return fmt.Errorf("failed to insert report line %d: %w", line.Sequence, err)
			}
		}
		return nil
	})
}

// DeleteByStatement removes every line of a statement
func (r *ReportLineRepository) DeleteByStatement(ctx context.Context, statementID string) (int64, error) {
	result, err := r.db.Executor(ctx).ExecContext(ctx, `DELETE FROM report_lines WHERE statement_id = ?`, statementID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete report lines: %w", err)
	}
	return result.RowsAffected()
}

// ListByStatement returns the lines of a statement in sequence order
func (r *ReportLineRepository) ListByStatement(ctx context.Context, statementID string) ([]*entity.ReportLine, error) {
	query := `
		SELECT id, statement_id, sequence, partner_id, partner_vat, document_id,
			document_number, invoice_date, supply_date, base_amount, tax_rate,
			tax_amount, is_summary, is_refund, created_at
		FROM report_lines
		WHERE statement_id = ?
		ORDER BY sequence
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, statementID)
	if err != nil {
		return nil, fmt.Errorf("failed to list report lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.ReportLine
	for rows.Next() {
		var line entity.ReportLine
		var partnerID, partnerVAT, documentID sql.NullString
		var invoiceDate, supplyDate sqlstore.Date

		if err := rows.Scan(
			&line.ID,
			&line.StatementID,
			&line.Sequence,
			&partnerID,
			&partnerVAT,
			&documentID,
			&line.DocumentNumber,
			&invoiceDate,
			&supplyDate,
			&line.BaseAmount,
			&line.TaxRate,
			&line.TaxAmount,
			&line.IsSummary,
			&line.IsRefund,
			&line.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report line: %w", err)
		}

		line.PartnerID = stringPtr(partnerID)
		line.PartnerVAT = stringPtr(partnerVAT)
		line.DocumentID = stringPtr(documentID)
		line.InvoiceDate = invoiceDate.Time
		line.SupplyDate = supplyDate.Time
		lines = append(lines, &line)
	}
	return lines, rows.Err()
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
