// Package money wraps shopspring/decimal with the exact-arithmetic rules the
// ledger engine needs: amounts are arbitrary-precision decimals, rounded to
// 2 fractional digits whenever an operation result is applied to a balance,
// and encoded as decimal strings on every boundary (JSON, SQL). A Money value
// is never converted through a binary float.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount. The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

var oneHundred = decimal.NewFromInt(100)

// Zero returns a zero amount.
func Zero() Money {
	return Money{}
}

// FromString parses a decimal string such as "9500" or "1020.00".
func FromString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{d: d}, nil
}

// MustFromString is FromString for literals known to be valid.
func MustFromString(s string) Money {
	m, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromInt returns an amount of whole currency units.
func FromInt(n int64) Money {
	return Money{d: decimal.NewFromInt(n)}
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// Percent returns rate% of m, e.g. Percent(FromInt(5)) of 10000 is 500.
func (m Money) Percent(rate Money) Money {
	return Money{d: m.d.Mul(rate.d).Div(oneHundred)}
}

// Round2 rounds half-up to 2 fractional digits.
func (m Money) Round2() Money {
	return Money{d: m.d.Round(2)}
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsZero reports whether m == 0.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// Cmp compares m and other: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports whether m and other represent the same amount.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// String renders the amount with exactly 2 fractional digits.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a decimal string, e.g. "1020.00".
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Bare numbers arrive as the raw token; decimal parses it without
		// a float round-trip.
		s = string(data)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	m.d = d
	return nil
}

// Value implements driver.Valuer, storing the amount as a decimal string.
func (m Money) Value() (driver.Value, error) {
	return m.d.String(), nil
}

// Scan implements sql.Scanner for postgres numeric columns.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		m.d = decimal.Decimal{}
		return nil
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return err
		}
		m.d = d
		return nil
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return err
		}
		m.d = d
		return nil
	case int64:
		m.d = decimal.NewFromInt(v)
		return nil
	case float64:
		// Some drivers hand numerics back as float64; go through the
		// decimal constructor rather than formatting the float ourselves.
		m.d = decimal.NewFromFloat(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into money.Money", src)
	}
}

// GormDataType tells GORM to create numeric columns for Money fields.
func (Money) GormDataType() string {
	return "decimal(15,2)"
}
