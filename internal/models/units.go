package models

import (
	"database/sql/driver"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Units is an amount in the currency's smallest unit. It is stored as an exact
// decimal so the full uint64 range survives every dialect.
type Units uint64

// Value implements driver.Valuer
func (u Units) Value() (driver.Value, error) {
	return strconv.FormatUint(uint64(u), 10), nil
}

// Scan implements sql.Scanner
func (u *Units) Scan(value interface{}) error {
	var s string
	switch v := value.(type) {
	case nil:
		*u = 0
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("negative units: %d", v)
		}
		*u = Units(v)
		return nil
	case []byte:
		s = string(v)
	case string:
		s = v
	case float64:
		s = decimal.NewFromFloat(v).String()
	default:
		return fmt.Errorf("cannot scan %T into Units", value)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		// postgres may render numeric(20,0) with a trailing ".0" after casts
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.IsInteger() || d.IsNegative() {
			return fmt.Errorf("invalid units %q: %w", s, err)
		}
		n, err = strconv.ParseUint(d.String(), 10, 64)
		if err != nil {
			return fmt.Errorf("invalid units %q: %w", s, err)
		}
	}
	*u = Units(n)
	return nil
}

// GormDataType implements schema.GormDataTypeInterface
func (Units) GormDataType() string {
	return "units"
}

// GormDBDataType implements migrator.GormDataTypeInterface
func (Units) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "numeric(20,0)"
	default:
		return "text"
	}
}

// Display renders u as a decimal amount with the given number of decimals.
func (u Units) Display(decimals int32) string {
	return decimal.RequireFromString(strconv.FormatUint(uint64(u), 10)).Shift(-decimals).String()
}

// ParseUnits parses a base-unit decimal string.
func ParseUnits(s string) (Units, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return Units(n), nil
}

// MarshalText encodes u as a decimal string so JSON clients keep full precision.
func (u Units) MarshalText() ([]byte, error) {
	return []byte(strconv.FormatUint(uint64(u), 10)), nil
}

func (u *Units) UnmarshalText(b []byte) error {
	n, err := ParseUnits(string(b))
	if err != nil {
		return err
	}
	*u = n
	return nil
}
