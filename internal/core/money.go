// Package core provides the donation domain types.
//
// This file contains the decimal amount type and its parsing helpers.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative decimal money value.
type Amount struct {
	decimal.Decimal
}

// averagePlaces is the precision averages are rounded to.
const averagePlaces = 2

// ZeroAmount is the additive identity.
var ZeroAmount = Amount{Decimal: decimal.Zero}

// NewAmount builds an Amount from a float, for tests and literals.
func NewAmount(v float64) Amount {
	return Amount{Decimal: decimal.NewFromFloat(v)}
}

// AmountFromCents builds an Amount from an integer number of cents.
func AmountFromCents(cents int64) Amount {
	return Amount{Decimal: decimal.New(cents, -2)}
}

// ParseAmount converts a decimal string to an Amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Negative
// values, thousands separators and non-numeric input are rejected.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("-1")    -> error
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	if strings.Count(s, ",") > 1 || (strings.Contains(s, ",") && strings.Contains(s, ".")) {
		return Amount{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Amount{}, ErrInvalidAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return Amount{}, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{Decimal: d}, nil
}

// AmountFromFloat converts a JSON number, rejecting NaN, infinities and negatives.
func AmountFromFloat(v float64) (Amount, error) {
	if v != v || v > 1e15 || v < 0 {
		return Amount{}, ErrInvalidAmount
	}
	return NewAmount(v), nil
}

func (a Amount) Validate() error {
	if a.Decimal.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{Decimal: a.Decimal.Add(b.Decimal)}
}

// DivBy divides by an integer count. A zero count yields zero.
func (a Amount) DivBy(n int) Amount {
	if n == 0 {
		return ZeroAmount
	}
	return Amount{Decimal: a.Decimal.DivRound(decimal.NewFromInt(int64(n)), averagePlaces)}
}

// Cmp compares two amounts: -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.Decimal.Cmp(b.Decimal)
}

// Equal reports numeric equality, ignoring scale (50 == 50.00).
func (a Amount) Equal(b Amount) bool {
	return a.Decimal.Equal(b.Decimal)
}

// String renders the amount with two decimals.
func (a Amount) String() string {
	return a.Decimal.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON number with two decimals.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal.StringFixed(2)), nil
}
