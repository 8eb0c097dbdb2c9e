// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values with two fractional digits. They are
// persisted as integer cents so that store-side sums stay exact.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmount mirrors the DECIMAL(10,2) column of the records table.
var maxAmount = decimal.RequireFromString("99999999.99")

// ParseAmount converts a decimal string to an amount with half-up rounding
// to two places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. The
// result is always strictly positive.
//
// Examples:
//
//	ParseAmount("50")     -> 50.00
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35
//	ParseAmount("0")      -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "amount is required", Err: ErrInvalidAmount}
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "amount is not a number", Err: ErrInvalidAmount}
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "amount must be greater than zero", Err: ErrInvalidAmount}
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "amount is too large", Err: ErrInvalidAmount}
	}
	return d, nil
}

// ToCents returns the amount in integer cents.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromCents builds an amount from integer cents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders an amount with exactly two decimals (e.g. "50.00").
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
