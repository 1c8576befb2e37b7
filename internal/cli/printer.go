package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/garyjia/kvdph/internal/application/service"
	"github.com/garyjia/kvdph/internal/domain/entity"
)

type printer struct {
	out  io.Writer
	json bool
}

func (p *printer) printf(format string, args ...interface{}) error {
	_, err := fmt.Fprintf(p.out, format, args...)
	return err
}

func (p *printer) printJSON(v interface{}) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) statement(stmt *entity.Statement) error {
	if p.json {
		return p.printJSON(stmt)
	}
	return p.statementHeader(stmt)
}

func (p *printer) statementHeader(stmt *entity.Statement) error {
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", stmt.ID)
	fmt.Fprintf(w, "Reference:\t%s\n", stmt.Reference)
	fmt.Fprintf(w, "Company:\t%s\n", stmt.CompanyID)
	fmt.Fprintf(w, "Period:\t%04d-%02d (%s - %s)\n", stmt.Year, stmt.Month,
		stmt.DateFrom.Format(entity.DateLayout), stmt.DateTo.Format(entity.DateLayout))
	fmt.Fprintf(w, "Status:\t%s\n", stmt.Status)
	fmt.Fprintf(w, "Base:\t%s (refunds %s)\n", stmt.Totals.RegularBase.StringFixed(2), stmt.Totals.RefundBase.StringFixed(2))
	fmt.Fprintf(w, "Tax:\t%s (refunds %s)\n", stmt.Totals.RegularTax.StringFixed(2), stmt.Totals.RefundTax.StringFixed(2))
	if stmt.XMLFileName != "" {
		fmt.Fprintf(w, "XML:\t%s\n", stmt.XMLFileName)
	}
	if stmt.XLSXFileName != "" {
		fmt.Fprintf(w, "XLSX:\t%s\n", stmt.XLSXFileName)
	}
	return w.Flush()
}

func (p *printer) detail(detail *service.StatementDetail) error {
	if p.json {
		return p.printJSON(detail)
	}
	if err := p.statementHeader(detail.Statement); err != nil {
		return err
	}
	if len(detail.Lines) == 0 {
		return p.printf("\nno lines\n")
	}

	if err := p.printf("\n"); err != nil {
		return err
	}
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tPartner VAT\tDocument\tSupply date\tBase\tRate\tTax\tKind\t")
	for _, line := range detail.Lines {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			line.Sequence,
			line.PartnerVATValue(),
			line.DocumentNumber,
			line.SupplyDate.Format(entity.DateLayout),
			line.BaseAmount.StringFixed(2),
			line.TaxRate.String(),
			line.TaxAmount.StringFixed(2),
			lineKind(line),
		)
	}
	return w.Flush()
}

func (p *printer) statements(list []*entity.Statement) error {
	if p.json {
		return p.printJSON(list)
	}
	w := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tREFERENCE\tCOMPANY\tPERIOD\tSTATUS\tBASE\tTAX")
	for _, stmt := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%04d-%02d\t%s\t%s\t%s\n",
			stmt.ID, stmt.Reference, stmt.CompanyID, stmt.Year, stmt.Month, stmt.Status,
			stmt.Totals.NetBase().StringFixed(2), stmt.Totals.NetTax().StringFixed(2))
	}
	return w.Flush()
}

func (p *printer) notes(notes []*entity.Note) error {
	if p.json {
		return p.printJSON(notes)
	}
	for _, note := range notes {
		if err := p.printf("%s  %s\n", note.CreatedAt.Format("2006-01-02 15:04:05"), note.Body); err != nil {
			return err
		}
	}
	return nil
}

func lineKind(line *entity.ReportLine) string {
	switch {
	case line.IsSummary && line.IsRefund:
		return "refund summary"
	case line.IsSummary:
		return "summary"
	case line.IsRefund:
		return "refund"
	default:
		return "invoice"
	}
}
