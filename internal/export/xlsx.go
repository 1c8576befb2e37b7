package export

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

// SheetName is the only sheet of the spreadsheet
const SheetName = "KV DPH"

// Columns lists the fixed header row:
// 0-11 identification, 12-17 invoices (A1), 18-23 refunds (C1), 24-27 totals.
var Columns = [28]string{
	"IČ DPH", "Rok", "Mesiac", "Druh", "Názov", "Štát",
	"Obec", "PSČ", "Ulica", "Číslo", "Telefón", "Email",
	"A1 IČ DPH odberateľa", "A1 Číslo faktúry", "A1 Dátum dodania", "A1 Základ dane", "A1 Daň", "A1 Sadzba",
	"C1 IČ DPH odberateľa", "C1 Číslo opravnej faktúry", "C1 Číslo pôvodnej faktúry", "C1 Základ dane", "C1 Daň", "C1 Sadzba",
	"Základ dane faktúry", "Daň faktúry", "Základ dane dobropisy", "Daň dobropisy",
}

const (
	colInvoiceStart = 12
	colRefundStart  = 18
	colTotalsStart  = 24
)

// XLSXRenderer renders the auxiliary spreadsheet
type XLSXRenderer struct{}

// NewXLSXRenderer creates a new XLSXRenderer
func NewXLSXRenderer() *XLSXRenderer {
	return &XLSXRenderer{}
}

// Render builds the workbook in memory.
func (r *XLSXRenderer) Render(model *ReadModel) (*Artifact, error) {
	if model == nil || model.Statement == nil {
		return nil, ErrNilReadModel
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, name := range Columns {
		header[i] = name
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	rowNum := 2
	for _, row := range r.orderedRows(model) {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return nil, err
		}
		values := r.dataRow(model, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", rowNum, err)
		}
		rowNum++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	stmt := model.Statement
	return &Artifact{
		Format:      FormatXLSX,
		FileName:    XLSXFileName(stmt.Year, stmt.Month),
		ContentType: ContentTypeXLSX,
		Content:     buf.Bytes(),
	}, nil
}

// orderedRows returns stored lines in sequence order with summaries last.
func (r *XLSXRenderer) orderedRows(model *ReadModel) []Row {
	rows := make([]Row, 0, len(model.Invoices)+len(model.Refunds)+len(model.Summaries))
	i, j := 0, 0
	for i < len(model.Invoices) || j < len(model.Refunds) {
		if j >= len(model.Refunds) || (i < len(model.Invoices) && model.Invoices[i].Line.Sequence <= model.Refunds[j].Line.Sequence) {
			rows = append(rows, model.Invoices[i])
			i++
			continue
		}
		rows = append(rows, model.Refunds[j])
		j++
	}
	return append(rows, model.Summaries...)
}

func (r *XLSXRenderer) dataRow(model *ReadModel, row Row) []interface{} {
	stmt := model.Statement
	company := model.Company
	line := row.Line

	values := make([]interface{}, len(Columns))
	for i := range values {
		values[i] = ""
	}

	copy(values, []interface{}{
		entity.NormalizedVAT(company.VAT, model.DomesticPrefix),
		stmt.Year,
		stmt.Month,
		statementKindRegular,
		company.Name,
		company.Country,
		company.City,
		company.Zip,
		company.Street,
		company.StreetNumber,
		company.Phone,
		company.Email,
	})

	partnerVAT := row.counterpartyVAT()
	if line.IsSummary {
		partnerVAT = line.PartnerVATValue()
	}

	if line.IsRefund {
		copy(values[colRefundStart:], []interface{}{
			partnerVAT,
			line.DocumentNumber,
			row.OriginalInvoiceNumber,
			amount(line.BaseAmount.Abs().Neg()),
			amount(line.TaxAmount.Abs().Neg()),
			line.TaxRate.IntPart(),
		})
	} else {
		copy(values[colInvoiceStart:], []interface{}{
			partnerVAT,
			line.DocumentNumber,
			lineDate(line),
			amount(line.BaseAmount),
			amount(line.TaxAmount),
			line.TaxRate.IntPart(),
		})
	}

	copy(values[colTotalsStart:], []interface{}{
		amount(stmt.Totals.RegularBase),
		amount(stmt.Totals.RegularTax),
		amount(stmt.Totals.RefundBase),
		amount(stmt.Totals.RefundTax),
	})

	return values
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
