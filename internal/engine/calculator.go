// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"cryptotax/internal/lot"
)

// Calculate replays txs in effective time order against a fresh lot pool,
// routing each transaction's kind to the appropriate mutation (§4.8). It
// never aborts on a single transaction's failure: the failure is recorded
// as a TxError and processing continues.
func Calculate(txs []Transaction, method lot.Method, log *logrus.Logger) Result {
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}

	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, tj := ordered[i], ordered[j]
		if !ti.Timestamp.Equal(tj.Timestamp) {
			return ti.Timestamp.Before(tj.Timestamp)
		}
		pi, pj := effectivePriority(ti.Kind), effectivePriority(tj.Kind)
		return pi < pj
	})

	pool := lot.NewPool()
	result := Result{}

	for _, tx := range ordered {
		dispatch(pool, tx, method, &result, log)
	}

	result.Remaining = pool.Remaining()
	return result
}

// effectivePriority implements the §4.8 same-instant tiebreak: acquisitions
// and income sort before disposals so a same-instant buy-then-sell
// succeeds when the buy supplies the required lots.
func effectivePriority(k TxKind) int {
	if acquisitionKinds[k] || k == Receive {
		return 0
	}
	return 1
}

func dispatch(pool *lot.Pool, tx Transaction, method lot.Method, result *Result, log *logrus.Logger) {
	defer func() {
		if r := recover(); r != nil {
			result.Errors = append(result.Errors, TxError{
				Kind:      tx.Kind,
				Timestamp: tx.Timestamp,
				Message:   fmt.Sprintf("panic processing %s transaction: %v", tx.Kind, r),
			})
		}
	}()

	log.WithFields(logrus.Fields{
		"kind": tx.Kind, "wallet": tx.Wallet, "time": tx.Timestamp,
	}).Debug("replaying transaction")

	switch tx.Kind {
	case Buy, GiftReceived, Receive:
		dispatchAcquire(pool, tx)

	case Mining, Staking, Airdrop, Fork, Income:
		dispatchIncome(pool, tx, result)

	case Sell, Spend:
		dispatchDisposal(pool, tx, method, result)

	case Trade:
		dispatchTrade(pool, tx, method, result)

	case Send:
		dispatchSend(pool, tx, method, result, log)

	case GiftSent:
		dispatchGiftSent(pool, tx, method, result)

	default:
		result.Errors = append(result.Errors, TxError{
			Kind: tx.Kind, Timestamp: tx.Timestamp,
			Message: fmt.Sprintf("unhandled transaction kind %q", tx.Kind),
		})
	}
}

// dispatchAcquire adds one lot at the received leg's price. A missing
// price yields zero basis, not an error (§4.8).
//
// Open question (§9): for a BUY whose canonical row also carries a sent-USD
// leg, this adopts the per-unit-price-is-authoritative convention —
// ReceivedUnitPriceUSD is the basis regardless of any sent USD amount/fee.
// See DESIGN.md and TestBuyWithUSDSentUsesUnitPriceAsBasis.
func dispatchAcquire(pool *lot.Pool, tx Transaction) {
	if tx.ReceivedAsset == "" || tx.ReceivedAmount.Sign() <= 0 {
		return
	}
	pool.Add(tx.Wallet, tx.ReceivedAsset, tx.ReceivedAmount, tx.ReceivedUnitPriceUSD, tx.Timestamp, lot.AcquisitionKind(tx.Kind))
}

func dispatchIncome(pool *lot.Pool, tx Transaction, result *Result) {
	event, newLot, ok := ClassifyIncome(tx)
	if !ok {
		return
	}
	result.Income = append(result.Income, event)
	pool.Add(newLot.Wallet, newLot.Asset, newLot.Remaining, newLot.BasisPerUnit, newLot.AcquiredAt, newLot.AcquisitionKind)
}

func dispatchDisposal(pool *lot.Pool, tx Transaction, method lot.Method, result *Result) {
	if tx.SentAsset == "" || tx.SentAmount.Sign() <= 0 {
		result.Errors = append(result.Errors, TxError{
			Kind: tx.Kind, Timestamp: tx.Timestamp,
			Message: fmt.Sprintf("%s transaction missing sent asset/amount", tx.Kind),
		})
		return
	}
	proceeds := tx.SentAmount.Mul(tx.SentUnitPriceUSD)
	disposals, err := Dispose(pool, tx.Wallet, tx.SentAsset, tx.SentAmount, proceeds, tx.Timestamp, tx.Kind, method)
	if err != nil {
		result.Errors = append(result.Errors, TxError{Kind: tx.Kind, Timestamp: tx.Timestamp, Message: err.Error()})
		return
	}
	result.Disposals = append(result.Disposals, disposals...)
}

func dispatchTrade(pool *lot.Pool, tx Transaction, method lot.Method, result *Result) {
	dispatchDisposal(pool, tx, method, result)
	if tx.ReceivedAsset != "" && tx.ReceivedAmount.Sign() > 0 {
		pool.Add(tx.Wallet, tx.ReceivedAsset, tx.ReceivedAmount, tx.ReceivedUnitPriceUSD, tx.Timestamp, lot.AcquisitionKind(tx.Kind))
	}
}

// dispatchSend consumes the sent amount from the source wallet under FIFO,
// producing no disposal for the principal. If the network fee shares the
// sent asset, the fee itself is realized as a SPEND-style disposal at
// FeeUSD proceeds; if lots run out for the fee alone, that's a warning, not
// an error (§4.8). A fee denominated in a different asset is not silently
// dropped: it is flagged (§9 open question).
func dispatchSend(pool *lot.Pool, tx Transaction, method lot.Method, result *Result, log *logrus.Logger) {
	if tx.SentAsset == "" || tx.SentAmount.Sign() <= 0 {
		result.Errors = append(result.Errors, TxError{
			Kind: tx.Kind, Timestamp: tx.Timestamp,
			Message: "SEND transaction missing sent asset/amount",
		})
		return
	}
	if _, err := pool.Consume(tx.Wallet, tx.SentAsset, tx.SentAmount, lot.FIFO); err != nil {
		result.Errors = append(result.Errors, TxError{Kind: tx.Kind, Timestamp: tx.Timestamp, Message: err.Error()})
		return
	}

	if tx.FeeAmount.Sign() <= 0 {
		return
	}
	if tx.FeeAsset != "" && tx.FeeAsset != tx.SentAsset {
		msg := fmt.Sprintf("SEND fee denominated in %s differs from sent asset %s; fee disposal skipped", tx.FeeAsset, tx.SentAsset)
		log.Warn(msg)
		result.Warnings = append(result.Warnings, TxWarning{Kind: tx.Kind, Timestamp: tx.Timestamp, Message: msg})
		return
	}

	disposals, err := Dispose(pool, tx.Wallet, tx.SentAsset, tx.FeeAmount, tx.FeeUSD, tx.Timestamp, Spend, method)
	if err != nil {
		msg := fmt.Sprintf("insufficient lots to realize SEND fee: %v", err)
		log.Warn(msg)
		result.Warnings = append(result.Warnings, TxWarning{Kind: tx.Kind, Timestamp: tx.Timestamp, Message: msg})
		return
	}
	result.Disposals = append(result.Disposals, disposals...)
}

// dispatchGiftSent disposes at $0 proceeds, recognizing a loss equal to the
// full basis of whatever lots are consumed. §9 documents this as a
// verbatim, flagged reproduction of the source behavior rather than the
// donee-carries-basis treatment U.S. tax law actually prescribes.
func dispatchGiftSent(pool *lot.Pool, tx Transaction, method lot.Method, result *Result) {
	if tx.SentAsset == "" || tx.SentAmount.Sign() <= 0 {
		result.Errors = append(result.Errors, TxError{
			Kind: tx.Kind, Timestamp: tx.Timestamp,
			Message: "GIFT_SENT transaction missing sent asset/amount",
		})
		return
	}
	disposals, err := Dispose(pool, tx.Wallet, tx.SentAsset, tx.SentAmount, decimal.Zero, tx.Timestamp, tx.Kind, method)
	if err != nil {
		result.Errors = append(result.Errors, TxError{Kind: tx.Kind, Timestamp: tx.Timestamp, Message: err.Error()})
		return
	}
	result.Disposals = append(result.Disposals, disposals...)
}
