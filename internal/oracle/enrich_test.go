// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package oracle

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptotax/internal/ingest"
)

type fakeOracle struct {
	calls  map[string]int
	points map[string]map[string]decimal.Decimal
	err    error
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{calls: map[string]int{}, points: map[string]map[string]decimal.Decimal{}}
}

func (f *fakeOracle) FetchDailyCloses(ctx context.Context, ticker string, toDate time.Time) (map[string]decimal.Decimal, error) {
	f.calls[ticker]++
	if f.err != nil {
		return nil, f.err
	}
	return f.points[ticker], nil
}

func canonicalRowLine(dateTime, kind, sentAsset, sentAmount, sentPrice, receivedAsset, receivedAmount, receivedPrice, feeAmount, feeAsset, feeUSD, wallet, txHash, notes string) string {
	return strings.Join([]string{
		dateTime, kind,
		sentAsset, sentAmount, sentPrice,
		receivedAsset, receivedAmount, receivedPrice,
		feeAmount, feeAsset, feeUSD,
		wallet, txHash, notes,
	}, ",")
}

func canonicalHeaderLine() string {
	return strings.Join(ingest.CanonicalHeader, ",")
}

func TestEnrichZeroCallsWhenNoLegNeedsIt(t *testing.T) {
	raw := canonicalHeaderLine() + "\n" +
		canonicalRowLine("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "30000", "", "", "", "Coinbase", "", "") + "\n"

	o := newFakeOracle()
	filled, count, warns, err := Enrich(context.Background(), raw, o)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, warns)
	assert.Empty(t, o.calls)
	assert.Equal(t, raw, filled)
}

func TestEnrichCallsOnceForEachUniqueTicker(t *testing.T) {
	raw := canonicalHeaderLine() + "\n" +
		canonicalRowLine("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "", "", "", "", "Coinbase", "", "") + "\n" +
		canonicalRowLine("2024-01-02T00:00:00Z", "BUY", "", "", "", "BTC", "1", "", "", "", "", "Coinbase", "", "") + "\n"

	o := newFakeOracle()
	o.points["BTC"] = map[string]decimal.Decimal{
		"2024-01-01": decimal.NewFromInt(30000),
		"2024-01-02": decimal.NewFromInt(31000),
	}

	filled, count, warns, err := Enrich(context.Background(), raw, o)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, warns, 1)
	assert.Equal(t, "AutoFilledPrice", string(warns[0].Kind))
	assert.Equal(t, 1, o.calls["BTC"])
	assert.Contains(t, filled, "30000")
	assert.Contains(t, filled, "31000")
}

func TestEnrichFallsBackToAdjacentDay(t *testing.T) {
	raw := canonicalHeaderLine() + "\n" +
		canonicalRowLine("2024-01-02T00:00:00Z", "BUY", "", "", "", "BTC", "1", "", "", "", "", "Coinbase", "", "") + "\n"

	o := newFakeOracle()
	o.points["BTC"] = map[string]decimal.Decimal{
		"2024-01-01": decimal.NewFromInt(30000),
	}

	filled, count, _, err := Enrich(context.Background(), raw, o)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Contains(t, filled, "30000")
}

func TestEnrichOracleFetchFailureWarnsAndLeavesBlank(t *testing.T) {
	raw := canonicalHeaderLine() + "\n" +
		canonicalRowLine("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "", "", "", "", "Coinbase", "", "") + "\n"

	o := newFakeOracle()
	o.err = assertError{}

	_, count, warns, err := Enrich(context.Background(), raw, o)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	require.Len(t, warns, 1)
	assert.Equal(t, "OracleFetchFailed", string(warns[0].Kind))
}

func TestEnrichOracleEmptyResultWarns(t *testing.T) {
	raw := canonicalHeaderLine() + "\n" +
		canonicalRowLine("2024-01-01T00:00:00Z", "BUY", "", "", "", "BTC", "1", "", "", "", "", "Coinbase", "", "") + "\n"

	o := newFakeOracle()
	_, count, warns, err := Enrich(context.Background(), raw, o)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	require.Len(t, warns, 1)
	assert.Equal(t, "OracleEmpty", string(warns[0].Kind))
}

type assertError struct{}

func (assertError) Error() string { return "fetch failed" }
