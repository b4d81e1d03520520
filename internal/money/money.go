// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package money is a thin façade over shopspring/decimal shared by every
// component that touches monetary or crypto quantities, so rounding and
// parsing rules live in exactly one place.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal re-exports decimal.Decimal so packages that only ever touch
// money through this façade don't need a second import.
type Decimal = decimal.Decimal

// Zero is the additive identity, exported so callers don't sprinkle
// decimal.Zero imports everywhere.
var Zero = decimal.Zero

// ParseDecimal parses a trimmed decimal string. An empty string is treated
// as "absent" and returns (Zero, false) rather than an error — callers
// that require the field check the bool; callers that accept blank fields
// ignore it.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, false
	}
	return d, true
}

// IsStrictlyPositive reports whether d > 0.
func IsStrictlyPositive(d decimal.Decimal) bool {
	return d.Sign() > 0
}

// Div performs decimal division (shopspring's Div, which rounds a
// non-terminating quotient to decimal.DivisionPrecision places), returning
// (Zero, false) for a zero denominator instead of panicking.
func Div(numerator, denominator decimal.Decimal) (decimal.Decimal, bool) {
	if denominator.Sign() == 0 {
		return Zero, false
	}
	return numerator.Div(denominator), true
}

// FormatAsset renders an amount to 8 decimal places with trailing zeros
// (and a trailing radix point) trimmed, matching the §4.9 8949-row
// description format.
func FormatAsset(d decimal.Decimal) string {
	s := d.StringFixed(8)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}

// FormatUSD renders an amount rounded to cents, as used in summary output.
func FormatUSD(d decimal.Decimal) string {
	return d.StringFixed(2)
}
