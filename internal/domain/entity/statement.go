package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Statement represents one monthly VAT control statement of a company
type Statement struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference"`
	CompanyID string    `json:"company_id"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	DateFrom  time.Time `json:"date_from"`
	DateTo    time.Time `json:"date_to"`
	Status    string    `json:"status"`
	Currency  string    `json:"currency"`
	Totals    Totals    `json:"totals"`

	XMLFile      []byte `json:"-"`
	XMLFileName  string `json:"xml_file_name,omitempty"`
	XLSXFile     []byte `json:"-"`
	XLSXFileName string `json:"xlsx_file_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Totals holds the four aggregated amounts of a statement
type Totals struct {
	RegularBase decimal.Decimal `json:"regular_base"`
	RegularTax  decimal.Decimal `json:"regular_tax"`
	RefundBase  decimal.Decimal `json:"refund_base"`
	RefundTax   decimal.Decimal `json:"refund_tax"`
}

// NetBase returns regular plus refund base.
func (t Totals) NetBase() decimal.Decimal {
	return t.RegularBase.Add(t.RefundBase)
}

// NetTax returns regular plus refund tax.
func (t Totals) NetTax() decimal.Decimal {
	return t.RegularTax.Add(t.RefundTax)
}

// Equal reports whether both totals hold the same amounts.
func (t Totals) Equal(other Totals) bool {
	return t.RegularBase.Equal(other.RegularBase) &&
		t.RegularTax.Equal(other.RegularTax) &&
		t.RefundBase.Equal(other.RefundBase) &&
		t.RefundTax.Equal(other.RefundTax)
}

// TotalsFromLines sums line amounts split by the refund flag.
func TotalsFromLines(lines []*ReportLine) Totals {
	totals := Totals{}
	for _, line := range lines {
		if line.IsRefund {
			totals.RefundBase = totals.RefundBase.Add(line.BaseAmount)
			totals.RefundTax = totals.RefundTax.Add(line.TaxAmount)
			continue
		}
		totals.RegularBase = totals.RegularBase.Add(line.BaseAmount)
		totals.RegularTax = totals.RegularTax.Add(line.TaxAmount)
	}
	return totals
}

// NewStatement creates a draft statement for the given period.
// The period boundaries are always derived from year and month.
func NewStatement(id, companyID string, year, month int) (*Statement, error) {
	from, to, err := MonthBounds(year, month)
	if err != nil {
		return nil, err
	}
	return &Statement{
		ID:        id,
		CompanyID: companyID,
		Year:      year,
		Month:     month,
		DateFrom:  from,
		DateTo:    to,
		Status:    StatusDraft,
		Currency:  DefaultCurrency,
	}, nil
}

// InPeriod reports whether the date falls within [DateFrom, DateTo].
func (s *Statement) InPeriod(date time.Time) bool {
	day := TruncateDay(date)
	return !day.Before(s.DateFrom) && !day.After(s.DateTo)
}

// ClearArtifacts drops both rendered files.
func (s *Statement) ClearArtifacts() {
	s.XMLFile = nil
	s.XMLFileName = ""
	s.XLSXFile = nil
	s.XLSXFileName = ""
}

// PeriodLabel returns the period as YYYY/MM.
func (s *Statement) PeriodLabel() string {
	return fmt.Sprintf("%04d/%02d", s.Year, s.Month)
}

// CanExportXML reports whether the XML submission may be rendered.
func (s *Statement) CanExportXML() bool {
	return s.Status == StatusConfirmed || s.Status == StatusExported
}

// CanExportXLSX reports whether the spreadsheet may be rendered.
func (s *Statement) CanExportXLSX() bool {
	return s.Status == StatusGenerated || s.Status == StatusConfirmed || s.Status == StatusExported
}
