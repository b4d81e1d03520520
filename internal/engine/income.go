// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package engine

import "cryptotax/internal/lot"

// incomeKinds are the kinds §4.7 recognizes as ordinary income.
var incomeKinds = map[TxKind]bool{
	Mining: true, Staking: true, Airdrop: true, Fork: true, Income: true,
}

// ClassifyIncome recognizes an ordinary-income transaction and returns the
// income event plus the lot it creates (basis-per-unit equal to FMV/amount,
// which equals the unit price). ok is false when tx is not an income kind
// or lacks the received leg required to compute FMV (§4.7).
func ClassifyIncome(tx Transaction) (event IncomeEvent, acquiredLot lot.Lot, ok bool) {
	if !incomeKinds[tx.Kind] {
		return IncomeEvent{}, lot.Lot{}, false
	}
	if tx.ReceivedAsset == "" || tx.ReceivedAmount.Sign() <= 0 || tx.ReceivedUnitPriceUSD.Sign() <= 0 {
		return IncomeEvent{}, lot.Lot{}, false
	}

	fmv := tx.ReceivedAmount.Mul(tx.ReceivedUnitPriceUSD)
	event = IncomeEvent{
		Date:   tx.Timestamp,
		Kind:   tx.Kind,
		Asset:  tx.ReceivedAsset,
		Amount: tx.ReceivedAmount,
		FMV:    fmv,
		Wallet: tx.Wallet,
	}
	acquiredLot = lot.Lot{
		Asset:           tx.ReceivedAsset,
		Wallet:          tx.Wallet,
		Remaining:       tx.ReceivedAmount,
		Original:        tx.ReceivedAmount,
		BasisPerUnit:    tx.ReceivedUnitPriceUSD,
		AcquiredAt:      tx.Timestamp,
		AcquisitionKind: lot.AcquisitionKind(tx.Kind),
	}
	return event, acquiredLot, true
}
