// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package ingest

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptotax/internal/diag"
	"cryptotax/internal/engine"
)

func nativeHeader() string {
	return strings.Join(CanonicalHeader, ",")
}

func dd(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// nativeRow builds one canonical data row in CanonicalHeader's column
// order, so tests never hand-count commas.
func nativeRow(dateTime, kind, sentAsset, sentAmount, sentPrice, receivedAsset, receivedAmount, receivedPrice, feeAmount, feeAsset, feeUSD, wallet, txHash, notes string) string {
	return strings.Join([]string{
		dateTime, kind,
		sentAsset, sentAmount, sentPrice,
		receivedAsset, receivedAmount, receivedPrice,
		feeAmount, feeAsset, feeUSD,
		wallet, txHash, notes,
	}, ",")
}

func TestParseNativeEmptyInputYieldsEmptyResult(t *testing.T) {
	txs, errs, warns := ParseNative("")
	assert.Empty(t, txs)
	assert.Empty(t, errs)
	assert.Empty(t, warns)
}

func TestParseNativeMissingRequiredHeaderIsError(t *testing.T) {
	txs, errs, _ := ParseNative("foo,bar\n1,2\n")
	assert.Empty(t, txs)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.MissingRequiredField, errs[0].Kind)
}

func TestParseNativeValidBuyRow(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "30000", "", "", "", "Coinbase", "", "") + "\n"

	txs, errs, warns := ParseNative(raw)
	require.Empty(t, errs)
	require.Empty(t, warns)
	require.Len(t, txs, 1)
	tx := txs[0]
	assert.Equal(t, engine.Buy, tx.Kind)
	assert.Equal(t, "BTC", tx.ReceivedAsset)
	assert.True(t, tx.ReceivedAmount.Equal(dd("1")))
	assert.True(t, tx.ReceivedUnitPriceUSD.Equal(dd("30000")))
	assert.Equal(t, "Coinbase", tx.Wallet)
	assert.Equal(t, 2, tx.Row)
}

func TestParseNativeMissingTimezoneWarnsAndAssumesUTC(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00", "BUY", "", "", "", "BTC", "1", "30000", "", "", "", "Coinbase", "", "") + "\n"

	txs, _, warns := ParseNative(raw)
	require.Len(t, txs, 1)
	require.Len(t, warns, 1)
	assert.Equal(t, diag.MissingTimezone, warns[0].Kind)
	assert.Equal(t, 0, txs[0].Timestamp.UTC().Hour())
}

func TestParseNativeUnknownKindIsError(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "NOT_A_KIND", "", "", "", "BTC", "1", "30000", "", "", "", "Coinbase", "", "") + "\n"

	txs, errs, _ := ParseNative(raw)
	assert.Empty(t, txs)
	require.Len(t, errs, 1)
	assert.Equal(t, diag.UnknownTransactionKind, errs[0].Kind)
}

func TestParseNativeMissingWalletIsError(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "30000", "", "", "", "", "", "") + "\n"

	txs, errs, _ := ParseNative(raw)
	assert.Empty(t, txs)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if e.Field == "wallet_or_exchange" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseNativeSellMissingSentAmountIsError(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "SELL", "BTC", "", "", "", "", "", "", "", "", "Coinbase", "", "") + "\n"

	txs, errs, _ := ParseNative(raw)
	assert.Empty(t, txs)
	require.NotEmpty(t, errs)
}

func TestParseNativeFeeUSDAllowsZeroOrNegative(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "SEND", "BTC", "0.5", "", "", "", "", "0.001", "BTC", "0", "Coinbase", "", "") + "\n"

	txs, errs, _ := ParseNative(raw)
	require.Empty(t, errs)
	require.Len(t, txs, 1)
	assert.True(t, txs[0].FeeUSD.IsZero())
}

func TestParseNativeNonPositiveSentAmountIsError(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "SELL", "BTC", "-1", "50000", "", "", "", "", "", "", "Coinbase", "", "") + "\n"

	txs, errs, _ := ParseNative(raw)
	assert.Empty(t, txs)
	require.NotEmpty(t, errs)
	assert.Equal(t, diag.NonPositiveAmount, errs[0].Kind)
}

func TestParseNativeMalformedRowIsSkippedNotFatal(t *testing.T) {
	raw := nativeHeader() + "\n" +
		nativeRow("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "30000", "", "", "", "Coinbase", "", "") + "\n" +
		"\"unterminated\n"

	txs, errs, _ := ParseNative(raw)
	require.Len(t, txs, 1)
	assert.NotEmpty(t, errs)
}
