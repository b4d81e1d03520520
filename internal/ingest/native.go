// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"cryptotax/internal/diag"
	"cryptotax/internal/engine"
	"cryptotax/internal/money"
)

var requiredNativeHeaders = []string{"date_time", "transaction_type", "wallet_or_exchange"}

// timezoneSuffix matches a trailing "Z" or "+HH:MM"/"+HHMM" offset, per
// §4.4's "ends in Z or ±HH[:]MM" rule.
var timezoneSuffix = regexp.MustCompile(`(?i)(Z|[+-]\d{2}:?\d{2})$`)

// ParseNative strictly validates canonical rows per §4.4. A row with any
// field error contributes no transaction; rows with only warnings still
// produce one. Empty or whitespace-only input yields empty results with no
// error (§4.4, §7).
func ParseNative(raw string) ([]engine.Transaction, []diag.Error, []diag.Warning) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil, nil
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF || header == nil {
		return nil, nil, nil
	}
	if err != nil {
		return nil, []diag.Error{diag.NewError(1, diag.InvalidNumber, fmt.Sprintf("malformed header: %v", err))}, nil
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, req := range requiredNativeHeaders {
		if _, ok := idx[req]; !ok {
			return nil, []diag.Error{diag.NewFieldError(1, req, diag.MissingRequiredField, "missing required header column")}, nil
		}
	}

	var (
		txs   []engine.Transaction
		errs  []diag.Error
		warns []diag.Warning
	)

	rowNum := 1 // header counts as row 1 (§4.4: "including the header row")
	for {
		rec, rerr := r.Read()
		if rerr == io.EOF {
			break
		}
		rowNum++
		if rerr != nil {
			errs = append(errs, diag.NewError(rowNum, diag.InvalidNumber, fmt.Sprintf("malformed row: %v", rerr)))
			continue
		}

		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		var rowErrs []diag.Error
		var rowWarns []diag.Warning

		ts, tsOK, tsWarn := parseTimestamp(get("date_time"), rowNum)
		if !tsOK {
			rowErrs = append(rowErrs, diag.NewFieldError(rowNum, "date_time", diag.InvalidDate, fmt.Sprintf("unparseable date_time %q", get("date_time"))))
		}
		if tsWarn != nil {
			rowWarns = append(rowWarns, *tsWarn)
		}

		kind := engine.TxKind(strings.TrimSpace(get("transaction_type")))
		if !validKind(kind) {
			rowErrs = append(rowErrs, diag.NewFieldError(rowNum, "transaction_type", diag.UnknownTransactionKind, fmt.Sprintf("unrecognized transaction_type %q", kind)))
		}

		wallet := strings.TrimSpace(get("wallet_or_exchange"))
		if wallet == "" {
			rowErrs = append(rowErrs, diag.NewFieldError(rowNum, "wallet_or_exchange", diag.MissingRequiredField, "wallet_or_exchange is required"))
		}

		numeric := func(col string, allowZeroOrNeg bool) (d decimalOrZero) {
			raw := get(col)
			val, present := money.ParseDecimal(raw)
			if !present {
				if strings.TrimSpace(raw) != "" {
					rowErrs = append(rowErrs, diag.NewFieldError(rowNum, col, diag.InvalidNumber, fmt.Sprintf("%q is not a valid number", raw)))
				}
				return decimalOrZero{}
			}
			if !allowZeroOrNeg && !money.IsStrictlyPositive(val) {
				rowErrs = append(rowErrs, diag.NewFieldError(rowNum, col, diag.NonPositiveAmount, fmt.Sprintf("%s must be strictly positive, got %s", col, raw)))
				return decimalOrZero{}
			}
			return decimalOrZero{val: val, present: true}
		}

		sentAmount := numeric("sent_amount", false)
		sentPrice := numeric("sent_asset_price_usd", false)
		receivedAmount := numeric("received_amount", false)
		receivedPrice := numeric("received_asset_price_usd", false)
		feeAmount := numeric("fee_amount", false)
		feeUSD := numeric("fee_usd", true)

		sentAsset := strings.TrimSpace(get("sent_asset"))
		receivedAsset := strings.TrimSpace(get("received_asset"))
		feeAsset := strings.TrimSpace(get("fee_asset"))

		rowErrs = append(rowErrs, requiredFieldErrors(rowNum, kind, sentAsset, sentAmount, receivedAsset, receivedAmount, receivedPrice)...)

		errs = append(errs, rowErrs...)
		warns = append(warns, rowWarns...)
		if len(rowErrs) > 0 {
			continue
		}

		txs = append(txs, engine.Transaction{
			Timestamp:            ts,
			Kind:                 kind,
			SentAsset:            sentAsset,
			SentAmount:           sentAmount.val,
			SentUnitPriceUSD:     sentPrice.val,
			ReceivedAsset:        receivedAsset,
			ReceivedAmount:       receivedAmount.val,
			ReceivedUnitPriceUSD: receivedPrice.val,
			FeeAmount:            feeAmount.val,
			FeeAsset:             feeAsset,
			FeeUSD:               feeUSD.val,
			Wallet:               wallet,
			TxHash:               strings.TrimSpace(get("tx_hash")),
			Notes:                strings.TrimSpace(get("notes")),
			Row:                  rowNum,
		})
	}

	return txs, errs, warns
}

type decimalOrZero struct {
	val     money.Decimal
	present bool
}

func requiredFieldErrors(row int, kind engine.TxKind, sentAsset string, sentAmount decimalOrZero, receivedAsset string, receivedAmount, receivedPrice decimalOrZero) []diag.Error {
	var errs []diag.Error
	need := func(ok bool, field string) {
		if !ok {
			errs = append(errs, diag.NewFieldError(row, field, diag.MissingRequiredField, fmt.Sprintf("%s is required for %s", field, kind)))
		}
	}
	switch kind {
	case engine.Sell, engine.Spend, engine.Send, engine.GiftSent:
		need(sentAsset != "", "sent_asset")
		need(sentAmount.present, "sent_amount")
	case engine.Buy, engine.Receive, engine.GiftReceived:
		need(receivedAsset != "", "received_asset")
		need(receivedAmount.present, "received_amount")
	case engine.Trade:
		need(sentAsset != "", "sent_asset")
		need(sentAmount.present, "sent_amount")
		need(receivedAsset != "", "received_asset")
		need(receivedAmount.present, "received_amount")
	case engine.Mining, engine.Staking, engine.Airdrop, engine.Fork, engine.Income:
		need(receivedAsset != "", "received_asset")
		need(receivedAmount.present, "received_amount")
		need(receivedPrice.present, "received_asset_price_usd")
	}
	return errs
}

func validKind(k engine.TxKind) bool {
	switch k {
	case engine.Buy, engine.Sell, engine.Trade, engine.Send, engine.Receive,
		engine.Mining, engine.Staking, engine.Airdrop, engine.Fork, engine.Spend,
		engine.GiftSent, engine.GiftReceived, engine.Income:
		return true
	}
	return false
}

// parseTimestamp parses date_time as an absolute instant. A trimmed value
// not ending in Z or a ±HH[:]MM offset gets a MissingTimezone warning and
// is taken as UTC (§4.4); an unparseable value is an error (ok=false).
func parseTimestamp(raw string, row int) (ts time.Time, ok bool, warn *diag.Warning) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false, nil
	}
	hasTZ := timezoneSuffix.MatchString(trimmed)

	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			if !hasTZ {
				t = t.UTC()
				w := diag.NewFieldWarning(row, "date_time", diag.MissingTimezone, fmt.Sprintf("date_time %q has no timezone; assuming UTC", trimmed))
				return t, true, &w
			}
			return t.UTC(), true, nil
		}
	}
	return time.Time{}, false, nil
}
