// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package engine is the tax engine proper: the disposal engine, income
// classifier and replay orchestrator (§4.6-§4.8) that drive an
// internal/lot.Pool from a normalized transaction stream.
package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"cryptotax/internal/lot"
)

// TxKind is the closed set of transaction kinds from §3.
type TxKind string

const (
	Buy          TxKind = "BUY"
	Sell         TxKind = "SELL"
	Trade        TxKind = "TRADE"
	Send         TxKind = "SEND"
	Receive      TxKind = "RECEIVE"
	Mining       TxKind = "MINING"
	Staking      TxKind = "STAKING"
	Airdrop      TxKind = "AIRDROP"
	Fork         TxKind = "FORK"
	Spend        TxKind = "SPEND"
	GiftSent     TxKind = "GIFT_SENT"
	GiftReceived TxKind = "GIFT_RECEIVED"
	Income       TxKind = "INCOME"
)

// acquisitionKinds are the kinds that add to inventory without disposing of
// anything, used for the §4.8 same-instant tiebreak (acquisitions and
// income before disposals).
var acquisitionKinds = map[TxKind]bool{
	Buy: true, GiftReceived: true, Receive: true,
	Mining: true, Staking: true, Airdrop: true, Fork: true, Income: true,
}

// Transaction is the canonical, typed record every ingestion path produces.
// Which of the sent/received halves are populated is determined by Kind
// per §4.5's required-field table; unused fields are left at their zero
// value.
type Transaction struct {
	Timestamp time.Time
	Kind      TxKind

	SentAsset        string
	SentAmount       decimal.Decimal
	SentUnitPriceUSD decimal.Decimal

	ReceivedAsset        string
	ReceivedAmount       decimal.Decimal
	ReceivedUnitPriceUSD decimal.Decimal

	FeeAmount decimal.Decimal
	FeeAsset  string
	FeeUSD    decimal.Decimal

	Wallet string
	TxHash string
	Notes  string

	// Row is the 1-based source row this transaction was parsed from, for
	// diagnostics raised during replay; 0 if not applicable.
	Row int
}

// DisposalResult is a value-typed snapshot of one consumed lot realized by
// a disposal (§3). It does not alias lot.Pool state.
type DisposalResult struct {
	Asset           string
	Wallet          string
	Amount          decimal.Decimal
	DisposalAt      time.Time
	DisposalKind    TxKind
	Proceeds        decimal.Decimal
	CostBasis       decimal.Decimal
	GainOrLoss      decimal.Decimal
	LongTerm        bool
	DaysHeld        int64
	AcquiredAt      time.Time
	LotID           string
}

// IncomeEvent is the FMV recognition for an ordinary-income transaction
// (§4.7). FMV is both the recognized income and the basis of the lot the
// event creates.
type IncomeEvent struct {
	Date   time.Time
	Kind   TxKind
	Asset  string
	Amount decimal.Decimal
	FMV    decimal.Decimal
	Wallet string
}

// Result is the full output of a replay (§4.8, §6 calculate()).
type Result struct {
	Disposals []DisposalResult
	Income    []IncomeEvent
	Remaining []lot.Lot
	Errors    []TxError
	Warnings  []TxWarning
}

// TxError annotates a calculator-stage failure with the offending
// transaction's kind and timestamp (§4.8: "recorded as an error annotated
// with kind and timestamp").
type TxError struct {
	Kind      TxKind
	Timestamp time.Time
	Message   string
}

func (e TxError) Error() string {
	return e.Message
}

// TxWarning is the calculator-stage counterpart to TxError (e.g. a skipped
// fee disposal).
type TxWarning struct {
	Kind      TxKind
	Timestamp time.Time
	Message   string
}
