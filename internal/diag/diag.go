// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package diag holds the two-severity diagnostic model the engine uses in
// place of aborting on the first bad row or transaction: an Error drops a
// row (or a single transaction's effect), a Warning keeps the data but
// flags something worth a human's attention.
package diag

import "fmt"

// ErrorKind enumerates the row/transaction-level failures a caller can act
// on programmatically (§7).
type ErrorKind string

const (
	MissingRequiredField  ErrorKind = "MissingRequiredField"
	InvalidNumber         ErrorKind = "InvalidNumber"
	NonPositiveAmount     ErrorKind = "NonPositiveAmount"
	UnknownTransactionKind ErrorKind = "UnknownTransactionKind"
	InvalidDate           ErrorKind = "InvalidDate"
	InsufficientLots      ErrorKind = "InsufficientLots"
	NumericParse          ErrorKind = "NumericParse"
)

// WarningKind enumerates the informational diagnostics (§7).
type WarningKind string

const (
	MissingTimezone    WarningKind = "MissingTimezone"
	InvalidDateWarning WarningKind = "InvalidDate"
	NormalizationRemap WarningKind = "NormalizationRemap"
	OracleFetchFailed  WarningKind = "OracleFetchFailed"
	OracleEmpty        WarningKind = "OracleEmpty"
	AutoFilledPrice    WarningKind = "AutoFilledPrice"
	ObfuscatedCostBasis WarningKind = "ObfuscatedCostBasis"
	FeeDisposalSkipped WarningKind = "FeeDisposalSkipped"
)

// Error is a row- or transaction-level failure. Row is 1-based and counts
// the header row, per §4.4. Row is 0 when the diagnostic does not refer to
// a specific input row (e.g. a file whose format could not be detected).
type Error struct {
	Row     int
	Field   string
	Kind    ErrorKind
	Message string
}

func (e Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Warning is informational; the row or transaction it refers to is still
// retained in the output.
type Warning struct {
	Row     int
	Field   string
	Kind    WarningKind
	Message string
}

func (w Warning) String() string {
	if w.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", w.Row, w.Field, w.Message)
	}
	return fmt.Sprintf("row %d: %s", w.Row, w.Message)
}

// NewError builds an Error with no associated field.
func NewError(row int, kind ErrorKind, message string) Error {
	return Error{Row: row, Kind: kind, Message: message}
}

// NewFieldError builds an Error tied to one CSV column.
func NewFieldError(row int, field string, kind ErrorKind, message string) Error {
	return Error{Row: row, Field: field, Kind: kind, Message: message}
}

// NewWarning builds a Warning with no associated field.
func NewWarning(row int, kind WarningKind, message string) Warning {
	return Warning{Row: row, Kind: kind, Message: message}
}

// NewFieldWarning builds a Warning tied to one CSV column.
func NewFieldWarning(row int, field string, kind WarningKind, message string) Warning {
	return Warning{Row: row, Field: field, Kind: kind, Message: message}
}

// ErrInsufficientLots is the sentinel the lot pool returns from consume
// when the pool cannot satisfy the requested amount (§4.5 step 1 and 4).
// The pool wraps it with wallet/asset context and callers match it with
// errors.Is; the calculator records the wrapped message as an
// engine.TxError.
var ErrInsufficientLots = fmt.Errorf("insufficient lots")
