// Package core provides money parsing and handling utilities.
//
// Amounts are kept as integer cents so that sums never drift. Conversion to and
// from decimal text goes through shopspring/decimal.
package core

import (
	"bytes"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxCents bounds a single amount (ten trillion units). Sums of up to about
// nine thousand such amounts still fit in an int64.
const MaxCents int64 = 1_000_000_000_000_000

var maxCents = decimal.New(MaxCents, 0)

// ParseAmount converts a decimal string to Money with half-up rounding to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is a
// valid amount; negative values, signs and empty input are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234 cents
//	ParseAmount("12,34")  -> 1234 cents
//	ParseAmount("12.345") -> 1235 cents (half-up)
//	ParseAmount("12.344") -> 1234 cents
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d)
}

// MoneyFromDecimal rounds d half-up to whole cents.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	cents := d.Round(2).Shift(2)
	if cents.GreaterThan(maxCents) {
		return Money{}, ErrInvalidAmount
	}
	return Money{Cents: cents.IntPart()}, nil
}

// Add returns m+o, saturating at the int64 bounds instead of wrapping.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		sum = math.MaxInt64
	case o.Cents < 0 && sum > m.Cents:
		sum = math.MinInt64
	}
	return Money{Cents: sum}
}

// Sub returns m-o, saturating at the int64 bounds instead of wrapping.
func (m Money) Sub(o Money) Money {
	diff := m.Cents - o.Cents
	switch {
	case o.Cents < 0 && diff < m.Cents:
		diff = math.MaxInt64
	case o.Cents > 0 && diff > m.Cents:
		diff = math.MinInt64
	}
	return Money{Cents: diff}
}

// InRange reports whether m is a storable amount: not negative and at most MaxCents.
func (m Money) InRange() bool { return m.Cents >= 0 && m.Cents <= MaxCents }

func (m Money) IsZero() bool { return m.Cents == 0 }

// Decimal returns the exact decimal value of m.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String returns the shortest exact decimal form, e.g. "1000" or "12.5".
func (m Money) String() string {
	return m.Decimal().String()
}

// Float returns the value as a float64 for charting.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// MarshalJSON writes the amount as a bare JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON reads a JSON number. Quoted numbers are tolerated since some
// exporters write decimals as strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		return nil
	}
	data = bytes.Trim(data, `"`)
	d, err := decimal.NewFromString(string(data))
	if err != nil {
		return ErrInvalidAmount
	}
	if d.IsNegative() {
		// negative values survive decoding so that validation can report them
		cents := d.Round(2).Shift(2)
		if cents.Abs().GreaterThan(maxCents) {
			return ErrInvalidAmount
		}
		*m = Money{Cents: cents.IntPart()}
		return nil
	}
	parsed, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
