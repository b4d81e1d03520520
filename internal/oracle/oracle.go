// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package oracle fills in missing per-unit USD prices on a canonical CSV
// from a historical daily-price source (§4.3). The oracle itself is an
// abstract interface — network I/O is confined to HistoDayOracle, the
// reference implementation.
package oracle

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Oracle fetches daily closing prices for one ticker, keyed by calendar
// day (YYYY-MM-DD), up to and including toDate (§6). Implementations are
// expected to be idempotent; the engine calls each ticker at most once per
// run (§4.3, §8 "oracle frugality").
type Oracle interface {
	FetchDailyCloses(ctx context.Context, ticker string, toDate time.Time) (map[string]decimal.Decimal, error)
}
