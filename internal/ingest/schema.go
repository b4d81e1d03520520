// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package ingest

// CanonicalHeader is the 14-column native schema (§6). Column order matters
// for serialization (the CoinTracker normalizer and price enricher both
// emit rows in this order).
var CanonicalHeader = []string{
	"date_time", "transaction_type",
	"sent_asset", "sent_amount", "sent_asset_price_usd",
	"received_asset", "received_amount", "received_asset_price_usd",
	"fee_amount", "fee_asset", "fee_usd",
	"wallet_or_exchange", "tx_hash", "notes",
}

// column indices into CanonicalHeader, named for readability.
const (
	colDateTime = iota
	colType
	colSentAsset
	colSentAmount
	colSentPrice
	colReceivedAsset
	colReceivedAmount
	colReceivedPrice
	colFeeAmount
	colFeeAsset
	colFeeUSD
	colWallet
	colTxHash
	colNotes
)
