package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/now"
)

// ErrInvalidPeriod is returned for a year/month pair outside the supported range
var ErrInvalidPeriod = errors.New("invalid reporting period")

// DateLayout is the calendar date layout used in storage and output files
const DateLayout = "2006-01-02"

// MonthBounds returns the first and last calendar day of the month.
func MonthBounds(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	if year < 2000 || year > 9999 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}

	anchor := now.With(time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC))
	return TruncateDay(anchor.BeginningOfMonth()), TruncateDay(anchor.EndOfMonth()), nil
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(value string) (time.Time, error) {
	return time.Parse(DateLayout, value)
}

// PreviousPeriod returns the year and month preceding the month of ref.
func PreviousPeriod(ref time.Time) (int, int) {
	prev := now.With(ref).BeginningOfMonth().AddDate(0, -1, 0)
	return prev.Year(), int(prev.Month())
}
