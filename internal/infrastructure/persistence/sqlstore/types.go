package sqlstore

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/garyjia/kvdph/internal/domain/entity"
)

// Date stores a calendar date as YYYY-MM-DD.
// It scans TEXT columns (sqlite) and DATE columns (postgres).
type Date struct {
	Time  time.Time
	Valid bool
}

// NewDate wraps a time, treating the zero time as NULL
func NewDate(t time.Time) Date {
	return Date{Time: t, Valid: !t.IsZero()}
}

// NewDatePtr wraps an optional time
func NewDatePtr(t *time.Time) Date {
	if t == nil {
		return Date{}
	}
	return NewDate(*t)
}

// Scan implements sql.Scanner.
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = Date{Time: entity.TruncateDay(v), Valid: true}
		return nil
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

func (d *Date) parse(s string) error {
	if s == "" {
		*d = Date{}
		return nil
	}
	if len(s) > len(entity.DateLayout) {
		s = s[:len(entity.DateLayout)]
	}
	t, err := entity.ParseDate(s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	*d = Date{Time: t, Valid: true}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time.Format(entity.DateLayout), nil
}

// Ptr returns the date or nil.
func (d Date) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
