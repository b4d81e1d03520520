// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cryptotax/internal/diag"
)

// cointracker column names, as read from the header row. The pack's
// retrieval set has no literal CoinTracker export to copy verbatim; these
// are the columns §4.2's rules require to be addressable (quantity,
// currency, cost basis, fee, and sender/receiver wallet per leg).
const (
	ctDate            = "Date"
	ctType            = "Type"
	ctSentQty         = "Sent Quantity"
	ctSentCurrency    = "Sent Currency"
	ctReceivedQty     = "Received Quantity"
	ctReceivedCurrency = "Received Currency"
	ctReceivedCostBasis = "Received Cost Basis (USD)"
	ctFeeAmount       = "Fee Amount"
	ctFeeCurrency     = "Fee Currency"
	ctFeeUSD          = "Fee Cost Basis (USD)"
	ctSentWallet      = "Sent Wallet"
	ctReceivedWallet  = "Received Wallet"
	ctTxHash          = "Tx Hash"
	ctSentComment     = "Sent Comment"
	ctReceivedComment = "Received Comment"
)

var cointrackerKindMap = map[string]string{
	"BUY":               "BUY",
	"SELL":              "SELL",
	"TRADE":             "TRADE",
	"RECEIVE":           "RECEIVE",
	"SEND":              "SEND",
	"STAKING_REWARD":    "STAKING",
	"INTEREST_PAYMENT":  "STAKING",
}

// canonicalRow is an intermediate, typed row the normalizer assembles
// before serializing to the canonical CSV text §4.3/§4.4 expect.
type canonicalRow struct {
	dateTime      time.Time
	kind          string
	sentAsset     string
	sentAmount    string
	sentPrice     string
	receivedAsset string
	receivedAmount string
	receivedPrice string
	feeAmount     string
	feeAsset      string
	feeUSD        string
	wallet        string
	txHash        string
	notes         string
}

// Normalize rewrites a CoinTracker export into canonical native rows,
// splitting TRANSFER into a SEND+RECEIVE pair and dropping pure-USD legs
// (§4.2).
func Normalize(raw string) (canonicalCSV string, warnings []diag.Warning) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}

	r := csv.NewReader(strings.NewReader(raw))
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return "", nil
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []canonicalRow
	obfuscated := false
	rowNum := 1

	for {
		rec, rerr := r.Read()
		if rerr == io.EOF {
			break
		}
		rowNum++
		if rerr != nil {
			continue
		}

		if isObfuscated(get(rec, ctReceivedCostBasis)) {
			obfuscated = true
		}

		dateRaw := get(rec, ctDate)
		ts, ok := parseCoinTrackerDate(dateRaw)
		if !ok {
			warnings = append(warnings, diag.NewFieldWarning(rowNum, ctDate, diag.InvalidDateWarning, fmt.Sprintf("unparseable CoinTracker date %q; row dropped", dateRaw)))
			continue
		}

		rawType := strings.ToUpper(get(rec, ctType))
		txHash := get(rec, ctTxHash)
		sentQty := get(rec, ctSentQty)
		sentCurrency := get(rec, ctSentCurrency)
		receivedQty := get(rec, ctReceivedQty)
		receivedCurrency := get(rec, ctReceivedCurrency)
		receivedCostBasis := get(rec, ctReceivedCostBasis)
		feeAmount := get(rec, ctFeeAmount)
		feeCurrency := get(rec, ctFeeCurrency)
		feeUSD := get(rec, ctFeeUSD)
		sentWallet := get(rec, ctSentWallet)
		receivedWallet := get(rec, ctReceivedWallet)
		notes := joinNotes(get(rec, ctSentComment), get(rec, ctReceivedComment))

		if rawType == "TRANSFER" {
			sendWallet := preferWallet(sentWallet, receivedWallet)
			recvWallet := preferWallet(receivedWallet, sentWallet)
			recvPrice := ratio(receivedCostBasis, receivedQty)

			rows = append(rows, canonicalRow{
				dateTime: ts, kind: "SEND",
				sentAsset: sentCurrency, sentAmount: sentQty,
				feeAmount: feeAmount, feeAsset: feeCurrency, feeUSD: feeUSD,
				wallet: sendWallet, txHash: txHash, notes: notes,
			})
			rows = append(rows, canonicalRow{
				dateTime: ts, kind: "RECEIVE",
				receivedAsset: receivedCurrency, receivedAmount: receivedQty,
				receivedPrice: recvPrice,
				wallet:        recvWallet, txHash: txHash, notes: notes,
			})
			continue
		}

		kind, known := cointrackerKindMap[rawType]
		if !known {
			warnings = append(warnings, diag.NewFieldWarning(rowNum, ctType, diag.NormalizationRemap, fmt.Sprintf("unrecognized type %q; row dropped", rawType)))
			continue
		}

		if kind == "RECEIVE" && strings.EqualFold(receivedCurrency, "USD") {
			continue
		}
		if kind == "SEND" && strings.EqualFold(sentCurrency, "USD") {
			continue
		}

		row := canonicalRow{
			dateTime: ts, kind: kind,
			sentAsset: sentCurrency, sentAmount: sentQty,
			receivedAsset: receivedCurrency, receivedAmount: receivedQty,
			feeAmount: feeAmount, feeAsset: feeCurrency, feeUSD: feeUSD,
			txHash: txHash, notes: notes,
		}

		switch kind {
		case "BUY", "STAKING", "RECEIVE":
			row.receivedPrice = ratio(receivedCostBasis, receivedQty)
			row.wallet = preferWallet(receivedWallet, sentWallet)
		case "SELL":
			row.sentPrice = ratio(receivedCostBasis, sentQty)
			row.wallet = preferWallet(sentWallet, receivedWallet)
		case "TRADE":
			row.receivedPrice = ratio(receivedCostBasis, receivedQty)
			row.sentPrice = ratio(receivedCostBasis, sentQty)
			row.wallet = preferWallet(sentWallet, receivedWallet)
		case "SEND":
			row.wallet = preferWallet(sentWallet, receivedWallet)
		}

		rows = append(rows, row)
	}

	if obfuscated {
		warnings = append(warnings, diag.NewWarning(0, diag.ObfuscatedCostBasis,
			"cost basis obfuscated with \"...\" in source export; downstream income rows will lack fair-market value"))
	}

	return serializeCanonical(rows), warnings
}

func isObfuscated(s string) bool {
	return strings.TrimSpace(s) == "..."
}

// parseCoinTrackerDate parses the "M/D/YYYY H:MM:SS" CoinTracker timestamp
// (variable-width fields, UTC assumed) into RFC3339 Z (§4.2).
func parseCoinTrackerDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"1/2/2006 15:4:5", "1/2/2006 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ratio computes numerator/denominator, leaving the price blank (for the
// enricher to fill in later) whenever either operand is absent or <= 0
// (§4.2's price-derivation table).
func ratio(numerator, denominator string) string {
	if strings.TrimSpace(numerator) == "" || strings.TrimSpace(denominator) == "" {
		return ""
	}
	n, err := decimal.NewFromString(strings.TrimSpace(numerator))
	if err != nil {
		return ""
	}
	d, err := decimal.NewFromString(strings.TrimSpace(denominator))
	if err != nil {
		return ""
	}
	if n.Sign() <= 0 || d.Sign() <= 0 {
		return ""
	}
	return n.Div(d).String()
}

func preferWallet(first, second string) string {
	if first != "" {
		return first
	}
	if second != "" {
		return second
	}
	return "Unknown"
}

func joinNotes(sent, received string) string {
	switch {
	case sent != "" && received != "":
		return sent + "; " + received
	case sent != "":
		return sent
	default:
		return received
	}
}

func serializeCanonical(rows []canonicalRow) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(CanonicalHeader)
	for _, row := range rows {
		rec := make([]string, len(CanonicalHeader))
		rec[colDateTime] = row.dateTime.Format(time.RFC3339)
		rec[colType] = row.kind
		rec[colSentAsset] = row.sentAsset
		rec[colSentAmount] = row.sentAmount
		rec[colSentPrice] = row.sentPrice
		rec[colReceivedAsset] = row.receivedAsset
		rec[colReceivedAmount] = row.receivedAmount
		rec[colReceivedPrice] = row.receivedPrice
		rec[colFeeAmount] = row.feeAmount
		rec[colFeeAsset] = row.feeAsset
		rec[colFeeUSD] = row.feeUSD
		rec[colWallet] = row.wallet
		rec[colTxHash] = row.txHash
		rec[colNotes] = row.notes
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.String()
}
