package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/kvdph/internal/application/port"
	"github.com/garyjia/kvdph/internal/domain/entity"
	"github.com/garyjia/kvdph/internal/infrastructure/persistence/sqlstore"
)

const documentSelect = `
	SELECT d.id, d.company_id, d.move_type, d.state, d.number, d.invoice_date, d.supply_date,
		p.id, p.name, p.vat, p.is_vat_payer,
		r.id, r.number, r.invoice_date, r.supply_date
	FROM ledger_documents d
	LEFT JOIN partners p ON p.id = d.partner_id
	LEFT JOIN ledger_documents r ON r.id = d.reversed_entry_id`

// LedgerRepository reads and loads the bundled ledger tables.
// It implements port.LedgerReader and port.LedgerWriter.
type LedgerRepository struct {
	db     *sqlstore.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *sqlstore.DB, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// FindDocuments returns posted invoices and credit notes whose supply date,
// or invoice date when no supply date is set, falls in the query range.
func (r *LedgerRepository) FindDocuments(ctx context.Context, q port.LedgerQuery) ([]*entity.Document, error) {
	query := documentSelect + `
		WHERE d.company_id = ? AND d.state = ? AND d.move_type IN (?, ?)
		AND (
			(d.supply_date IS NOT NULL AND d.supply_date >= ? AND d.supply_date <= ?)
			OR (d.supply_date IS NULL AND d.invoice_date >= ? AND d.invoice_date <= ?)
		)
		ORDER BY d.invoice_date, d.number, d.id
	`

	from, to := sqlstore.NewDate(q.DateFrom), sqlstore.NewDate(q.DateTo)
	docs, err := r.queryDocuments(ctx, query,
		q.CompanyID, entity.DocumentStatePosted,
		entity.DocumentTypeInvoice, entity.DocumentTypeCreditNote,
		from, to, from, to,
	)
	if err != nil {
		r.logger.Error("Failed to find ledger documents",
			zap.String("company_id", q.CompanyID),
			zap.Error(err))
		return nil, err
	}
	return docs, nil
}

// FindReversals returns posted credit notes reversing any of the invoices
func (r *LedgerRepository) FindReversals(ctx context.Context, companyID string, invoiceIDs []string) ([]*entity.Document, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}

	query := documentSelect + `
		WHERE d.company_id = ? AND d.state = ? AND d.move_type = ?
		AND d.reversed_entry_id IN (` + sqlstore.Placeholders(len(invoiceIDs)) + `)
		ORDER BY d.invoice_date, d.number, d.id
	`

	args := []interface{}{companyID, entity.DocumentStatePosted, entity.DocumentTypeCreditNote}
	for _, id := range invoiceIDs {
		args = append(args, id)
	}
	return r.queryDocuments(ctx, query, args...)
}

// GetDocument returns a single document with its lines
func (r *LedgerRepository) GetDocument(ctx context.Context, id string) (*entity.Document, error) {
	docs, err := r.queryDocuments(ctx, documentSelect+` WHERE d.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: document %s", port.ErrNotFound, id)
	}
	return docs[0], nil
}

// GetPartner returns a counterparty
func (r *LedgerRepository) GetPartner(ctx context.Context, id string) (*entity.Partner, error) {
	var p entity.Partner
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, name, vat, is_vat_payer FROM partners WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.VAT, &p.IsVATPayer)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: partner %s", port.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &p, nil
}

// SavePartner inserts or replaces a partner
func (r *LedgerRepository) SavePartner(ctx context.Context, p *entity.Partner) error {
	query := `
		INSERT INTO partners (id, name, vat, is_vat_payer) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, vat = excluded.vat, is_vat_payer = excluded.is_vat_payer
	`
	if _, err := r.db.Executor(ctx).ExecContext(ctx, query, p.ID, p.Name, p.VAT, p.IsVATPayer); err != nil {
		return fmt.Errorf("failed to save partner %s: %w", p.ID, err)
	}
	return nil
}

// SaveDocument inserts or replaces a document and all of its lines.
// The partner, when set, is saved too.
func (r *LedgerRepository) SaveDocument(ctx context.Context, doc *entity.Document) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context) error {
		var partnerID sql.NullString
		if doc.Partner != nil {
			if err := r.SavePartner(ctx, doc.Partner); err != nil {
				return err
			}
			partnerID = sql.NullString{String: doc.Partner.ID, Valid: true}
		}

		var reversedID sql.NullString
		if doc.ReversedEntry != nil {
			reversedID = sql.NullString{String: doc.ReversedEntry.ID, Valid: true}
		}

		exec := r.db.Executor(ctx)
		_, err := exec.ExecContext(ctx, `
			INSERT INTO ledger_documents (
				id, company_id, move_type, state, number, partner_id,
				invoice_date, supply_date, reversed_entry_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				company_id = excluded.company_id, move_type = excluded.move_type,
				state = excluded.state, number = excluded.number,
				partner_id = excluded.partner_id, invoice_date = excluded.invoice_date,
				supply_date = excluded.supply_date, reversed_entry_id = excluded.reversed_entry_id
		`,
			doc.ID, doc.CompanyID, doc.Type, doc.State, doc.Number, partnerID,
			sqlstore.NewDate(doc.InvoiceDate), sqlstore.NewDatePtr(doc.SupplyDate), reversedID,
		)
		if err != nil {
			r.logger.Error("Failed to save ledger document", zap.String("id", doc.ID), zap.Error(err))
			return fmt.Errorf("failed to save document %s: %w", doc.ID, err)
		}

		if _, err := exec.ExecContext(ctx, `DELETE FROM ledger_document_lines WHERE document_id = ?`, doc.ID); err != nil {
			return fmt.Errorf("failed to clear document lines: %w", err)
		}

		for i, line := range doc.Lines {
			lineID := line.ID
			if lineID == "" {
				lineID = fmt.Sprintf("%s-%d", doc.ID, i+1)
			}
			_, err := exec.ExecContext(ctx, `
				INSERT INTO ledger_document_lines (
					id, document_id, sequence, description, net_amount, gross_amount, tax_rates
				) VALUES (?, ?, ?, ?, ?, ?, ?)
			`, lineID, doc.ID, i+1, line.Description, line.NetAmount, line.GrossAmount, joinRates(line.TaxRates))
			if err != nil {
				return fmt.Errorf("failed to save document line %s: %w", lineID, err)
			}
		}
		return nil
	})
}

func (r *LedgerRepository) queryDocuments(ctx context.Context, query string, args ...interface{}) ([]*entity.Document, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	// lines are loaded on the same connection
	rows.Close()

	if err := r.loadLines(ctx, docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var doc entity.Document
	var invoiceDate, supplyDate sqlstore.Date
	var partnerID, partnerName, partnerVAT sql.NullString
	var partnerPayer sql.NullBool
	var reversedID, reversedNumber sql.NullString
	var reversedInvoiceDate, reversedSupplyDate sqlstore.Date

	if err := row.Scan(
		&doc.ID, &doc.CompanyID, &doc.Type, &doc.State, &doc.Number, &invoiceDate, &supplyDate,
		&partnerID, &partnerName, &partnerVAT, &partnerPayer,
		&reversedID, &reversedNumber, &reversedInvoiceDate, &reversedSupplyDate,
	); err != nil {
		return nil, err
	}

	doc.InvoiceDate = invoiceDate.Time
	doc.SupplyDate = supplyDate.Ptr()

	if partnerID.Valid {
		doc.Partner = &entity.Partner{
			ID:         partnerID.String,
			Name:       partnerName.String,
			VAT:        partnerVAT.String,
			IsVATPayer: partnerPayer.Bool,
		}
	}
	if reversedID.Valid {
		doc.ReversedEntry = &entity.DocumentRef{
			ID:          reversedID.String,
			Number:      reversedNumber.String,
			InvoiceDate: reversedInvoiceDate.Time,
			SupplyDate:  reversedSupplyDate.Ptr(),
		}
	}
	return &doc, nil
}

func (r *LedgerRepository) loadLines(ctx context.Context, docs []*entity.Document) error {
	if len(docs) == 0 {
		return nil
	}

	byID := make(map[string]*entity.Document, len(docs))
	args := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		if _, ok := byID[doc.ID]; ok {
			continue
		}
		byID[doc.ID] = doc
		args = append(args, doc.ID)
	}

	query := `
		SELECT document_id, id, description, net_amount, gross_amount, tax_rates
		FROM ledger_document_lines
		WHERE document_id IN (` + sqlstore.Placeholders(len(args)) + `)
		ORDER BY document_id, sequence
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query document lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var documentID, rates string
		var line entity.DocumentLine
		if err := rows.Scan(&documentID, &line.ID, &line.Description, &line.NetAmount, &line.GrossAmount, &rates); err != nil {
			return fmt.Errorf("failed to scan document line: %w", err)
		}
		line.TaxRates, err = splitRates(rates)
		if err != nil {
			return fmt.Errorf("document line %s: %w", line.ID, err)
		}
		if doc, ok := byID[documentID]; ok {
			doc.Lines = append(doc.Lines, line)
		}
	}
	return rows.Err()
}

func joinRates(rates []decimal.Decimal) string {
	parts := make([]string, len(rates))
	for i, rate := range rates {
		parts[i] = rate.String()
	}
	return strings.Join(parts, ",")
}

func splitRates(value string) ([]decimal.Decimal, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	rates := make([]decimal.Decimal, 0, len(parts))
	for _, part := range parts {
		rate, err := decimal.NewFromString(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid tax rate %q: %w", part, err)
		}
		rates = append(rates, rate)
	}
	return rates, nil
}

var (
	_ port.LedgerReader = (*LedgerRepository)(nil)
	_ port.LedgerWriter = (*LedgerRepository)(nil)
)
