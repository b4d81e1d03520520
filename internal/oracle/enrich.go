// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package oracle

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptotax/internal/diag"
)

const dayLayout = "2006-01-02"

type blankLeg struct {
	row      int
	ticker   string
	priceCol string // "sent_asset_price_usd" or "received_asset_price_usd", which price column to fill
	day      time.Time
}

// Enrich fills blank per-unit USD prices on a canonical CSV from the
// oracle, calling it at most once per unique ticker and never when no leg
// needs enrichment (§4.3, §8 "oracle frugality").
func Enrich(ctx context.Context, canonicalCSV string, o Oracle) (filled string, count int, warnings []diag.Warning, err error) {
	if strings.TrimSpace(canonicalCSV) == "" {
		return canonicalCSV, 0, nil, nil
	}

	r := csv.NewReader(strings.NewReader(canonicalCSV))
	r.FieldsPerRecord = -1
	header, rerr := r.Read()
	if rerr != nil {
		return canonicalCSV, 0, nil, rerr
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}

	var records [][]string
	var maxTS time.Time
	tickers := map[string]bool{}
	var blanks []blankLeg

	rowNum := 1
	for {
		rec, e := r.Read()
		if e == io.EOF {
			break
		}
		rowNum++
		if e != nil {
			continue
		}
		records = append(records, rec)

		ts, ok := parseISO(cell(rec, idx, "date_time"))
		if ok && ts.After(maxTS) {
			maxTS = ts
		}

		if asset := cell(rec, idx, "sent_asset"); asset != "" && !strings.EqualFold(asset, "USD") {
			if cell(rec, idx, "sent_asset_price_usd") == "" {
				tickers[asset] = true
				if ok {
					blanks = append(blanks, blankLeg{row: rowNum, ticker: asset, priceCol: "sent_asset_price_usd", day: ts})
				}
			}
		}
		if asset := cell(rec, idx, "received_asset"); asset != "" && !strings.EqualFold(asset, "USD") {
			if cell(rec, idx, "received_asset_price_usd") == "" {
				tickers[asset] = true
				if ok {
					blanks = append(blanks, blankLeg{row: rowNum, ticker: asset, priceCol: "received_asset_price_usd", day: ts})
				}
			}
		}
	}

	if len(tickers) == 0 {
		return canonicalCSV, 0, nil, nil
	}

	toDate := maxTS.Add(24 * time.Hour)
	closes := map[string]map[string]decimal.Decimal{}
	for ticker := range tickers {
		points, ferr := o.FetchDailyCloses(ctx, ticker, toDate)
		if ferr != nil {
			warnings = append(warnings, diag.NewWarning(0, diag.OracleFetchFailed, fmt.Sprintf("fetching daily closes for %s: %v", ticker, ferr)))
			continue
		}
		if len(points) == 0 {
			warnings = append(warnings, diag.NewWarning(0, diag.OracleEmpty, fmt.Sprintf("oracle returned no data for %s", ticker)))
			continue
		}
		cleaned := map[string]decimal.Decimal{}
		for day, price := range points {
			if price.Sign() > 0 {
				cleaned[day] = price
			}
		}
		closes[ticker] = cleaned
	}

	filledByRow := map[int]map[string]string{}
	for _, b := range blanks {
		points, ok := closes[b.ticker]
		if !ok {
			continue
		}
		price, found := lookupWithFallback(points, b.day)
		if !found {
			continue
		}
		if filledByRow[b.row] == nil {
			filledByRow[b.row] = map[string]string{}
		}
		filledByRow[b.row][b.priceCol] = price.String()
		count++
	}

	rowNum = 1
	for i, rec := range records {
		rowNum++
		fills, ok := filledByRow[rowNum]
		if !ok {
			continue
		}
		for col, val := range fills {
			if j, ok := idx[col]; ok && j < len(rec) {
				rec[j] = val
			}
		}
		records[i] = rec
	}

	if count > 0 {
		warnings = append(warnings, diag.NewWarning(0, diag.AutoFilledPrice, fmt.Sprintf("Auto-filled %d price(s)", count)))
	}

	return serialize(header, records), count, warnings, nil
}

func lookupWithFallback(points map[string]decimal.Decimal, day time.Time) (decimal.Decimal, bool) {
	for _, d := range []time.Time{day, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1)} {
		if p, ok := points[d.Format(dayLayout)]; ok {
			return p, true
		}
	}
	return decimal.Zero, false
}

func cell(rec []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseISO(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func serialize(header []string, records [][]string) string {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	for _, rec := range records {
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.String()
}

