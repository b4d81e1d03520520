// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ctHeaderLine() string {
	return strings.Join([]string{
		ctDate, ctType, ctSentQty, ctSentCurrency, ctReceivedQty, ctReceivedCurrency,
		ctReceivedCostBasis, ctFeeAmount, ctFeeCurrency, ctFeeUSD,
		ctSentWallet, ctReceivedWallet, ctTxHash, ctSentComment, ctReceivedComment,
	}, ",")
}

// ctRow builds one CoinTracker data row in the exact column order
// ctHeaderLine declares, so tests never hand-count commas.
func ctRow(date, typ, sentQty, sentCur, recvQty, recvCur, recvCostBasis, feeAmt, feeCur, feeUSD, sentWallet, recvWallet, txHash, sentComment, recvComment string) string {
	return strings.Join([]string{
		date, typ, sentQty, sentCur, recvQty, recvCur,
		recvCostBasis, feeAmt, feeCur, feeUSD,
		sentWallet, recvWallet, txHash, sentComment, recvComment,
	}, ",")
}

func TestNormalizeEmptyInput(t *testing.T) {
	canonical, warns := Normalize("")
	assert.Empty(t, canonical)
	assert.Empty(t, warns)
}

func TestNormalizeBuyDerivesPriceFromCostBasis(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("1/1/2024 0:00:00", "BUY", "", "", "1", "BTC", "30000", "", "", "", "", "Coinbase", "", "", "") + "\n"

	canonical, warns := Normalize(raw)
	require.Empty(t, warns)

	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], ",")
	assert.Equal(t, "BUY", fields[colType])
	assert.Equal(t, "BTC", fields[colReceivedAsset])
	assert.Equal(t, "1", fields[colReceivedAmount])
	assert.Equal(t, "30000", fields[colReceivedPrice])
	assert.Equal(t, "Coinbase", fields[colWallet])
}

// TestNormalizeTransferSplitsIntoSendAndReceive is the §8 TRANSFER scenario:
// 0.0161652 BTC moved from Coinbase to River, cost basis $1500, fee 0.0001
// BTC / $9.50. It must become a SEND (with the fee) and a RECEIVE (with a
// derived price) sharing the timestamp and tx hash.
func TestNormalizeTransferSplitsIntoSendAndReceive(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("3/15/2024 10:30:00", "TRANSFER", "0.0161652", "BTC", "0.0161652", "BTC", "1500", "0.0001", "BTC", "9.50", "Coinbase", "River", "abc123", "", "") + "\n"

	canonical, warns := Normalize(raw)
	require.Empty(t, warns)

	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	require.Len(t, lines, 3)

	send := strings.Split(lines[1], ",")
	assert.Equal(t, "SEND", send[colType])
	assert.Equal(t, "BTC", send[colSentAsset])
	assert.Equal(t, "0.0161652", send[colSentAmount])
	assert.Equal(t, "0.0001", send[colFeeAmount])
	assert.Equal(t, "BTC", send[colFeeAsset])
	assert.Equal(t, "9.50", send[colFeeUSD])
	assert.Equal(t, "Coinbase", send[colWallet])
	assert.Equal(t, "abc123", send[colTxHash])

	recv := strings.Split(lines[2], ",")
	assert.Equal(t, "RECEIVE", recv[colType])
	assert.Equal(t, "BTC", recv[colReceivedAsset])
	assert.Equal(t, "0.0161652", recv[colReceivedAmount])
	assert.Equal(t, "River", recv[colWallet])
	assert.Equal(t, "abc123", recv[colTxHash])
	assert.NotEmpty(t, recv[colReceivedPrice])
}

func TestNormalizeObfuscatedCostBasisWarns(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("1/1/2024 0:00:00", "BUY", "", "", "1", "BTC", "...", "", "", "", "", "Coinbase", "", "", "") + "\n"

	_, warns := Normalize(raw)
	require.Len(t, warns, 1)
	assert.Equal(t, "ObfuscatedCostBasis", string(warns[0].Kind))
}

func TestNormalizeUnparseableDateDropsRowAndWarns(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("not-a-date", "BUY", "", "", "1", "BTC", "30000", "", "", "", "", "Coinbase", "", "", "") + "\n"

	canonical, warns := Normalize(raw)
	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	require.Len(t, lines, 1) // header only
	require.Len(t, warns, 1)
	assert.Equal(t, "InvalidDate", string(warns[0].Kind))
}

func TestNormalizeUnrecognizedTypeDropsRowAndWarns(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("1/1/2024 0:00:00", "WITHDRAWAL", "", "", "1", "BTC", "30000", "", "", "", "", "Coinbase", "", "", "") + "\n"

	canonical, warns := Normalize(raw)
	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	require.Len(t, lines, 1)
	require.Len(t, warns, 1)
	assert.Equal(t, "NormalizationRemap", string(warns[0].Kind))
}

func TestNormalizeSuppressesPureUSDLegs(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("1/1/2024 0:00:00", "RECEIVE", "", "", "100", "USD", "", "", "", "", "", "Coinbase", "", "", "") + "\n"

	canonical, warns := Normalize(raw)
	require.Empty(t, warns)
	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	assert.Len(t, lines, 1)
}

func TestNormalizeStakingRewardMapsToStakingKind(t *testing.T) {
	raw := ctHeaderLine() + "\n" +
		ctRow("1/1/2024 0:00:00", "STAKING_REWARD", "", "", "1", "ETH", "2500", "", "", "", "", "Coinbase", "", "", "") + "\n"

	canonical, warns := Normalize(raw)
	require.Empty(t, warns)
	lines := strings.Split(strings.TrimSpace(canonical), "\n")
	require.Len(t, lines, 2)
	fields := strings.Split(lines[1], ",")
	assert.Equal(t, "STAKING", fields[colType])
}
