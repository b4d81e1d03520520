// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseDecimalBlankIsAbsent(t *testing.T) {
	d, ok := ParseDecimal("  ")
	assert.False(t, ok)
	assert.True(t, d.Equal(Zero))
}

func TestParseDecimalValid(t *testing.T) {
	d, ok := ParseDecimal("12.5")
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromFloat(12.5)))
}

func TestParseDecimalInvalid(t *testing.T) {
	_, ok := ParseDecimal("not-a-number")
	assert.False(t, ok)
}

func TestIsStrictlyPositive(t *testing.T) {
	assert.True(t, IsStrictlyPositive(decimal.NewFromInt(1)))
	assert.False(t, IsStrictlyPositive(decimal.Zero))
	assert.False(t, IsStrictlyPositive(decimal.NewFromInt(-1)))
}

func TestDivByZeroReturnsNotOK(t *testing.T) {
	_, ok := Div(decimal.NewFromInt(10), decimal.Zero)
	assert.False(t, ok)
}

func TestDivExact(t *testing.T) {
	q, ok := Div(decimal.NewFromInt(10), decimal.NewFromInt(4))
	assert.True(t, ok)
	assert.True(t, q.Equal(decimal.NewFromFloat(2.5)))
}

func TestFormatAssetTrimsTrailingZeros(t *testing.T) {
	assert.Equal(t, "0.5", FormatAsset(decimal.NewFromFloat(0.5)))
	assert.Equal(t, "1", FormatAsset(decimal.NewFromInt(1)))
	assert.Equal(t, "0", FormatAsset(decimal.Zero))
}

func TestFormatUSDRoundsToCents(t *testing.T) {
	assert.Equal(t, "1234.50", FormatUSD(decimal.NewFromFloat(1234.5)))
}
