package export

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

var zero = decimal.Zero

func absAmount(amount decimal.Decimal) string {
	return amount.Abs().StringFixed(2)
}

func negativeAmount(amount decimal.Decimal) string {
	return amount.Abs().Neg().StringFixed(2)
}

// clampPair splits a signed amount into (positive part, negative magnitude).
func clampPair(amount decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if amount.IsNegative() {
		return zero, amount.Abs()
	}
	return amount, zero
}

func integerRate(rate decimal.Decimal) string {
	return strconv.FormatInt(rate.IntPart(), 10)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(entity.DateLayout)
}

// lineDate returns the supply date with the invoice date as fallback.
func lineDate(line *entity.ReportLine) string {
	if !line.SupplyDate.IsZero() {
		return formatDate(line.SupplyDate)
	}
	return formatDate(line.InvoiceDate)
}
