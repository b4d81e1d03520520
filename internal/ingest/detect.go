// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package ingest turns raw CSV text — native or CoinTracker-style — into
// the canonical transaction stream the engine replays (§4.1-§4.4).
package ingest

import "strings"

// Format is the result of detecting a raw CSV's shape from its header row
// alone (§4.1).
type Format string

const (
	FormatNative      Format = "native"
	FormatCoinTracker  Format = "cointracker"
	FormatUnknown     Format = "unknown"
)

var nativeHeaderSet = []string{"date_time", "transaction_type", "wallet_or_exchange"}

var coinTrackerHeaderSet = []string{
	"Date", "Type", "Received Quantity", "Received Currency",
	"Received Cost Basis (USD)", "Sent Quantity", "Sent Currency",
}

// DetectFormat classifies raw CSV text from its first non-empty header
// line only; no data row is inspected (§4.1).
func DetectFormat(raw string) Format {
	headers := firstLineHeaders(raw)
	if len(headers) == 0 {
		return FormatUnknown
	}
	set := make(map[string]bool, len(headers))
	for _, h := range headers {
		set[strings.TrimSpace(h)] = true
	}
	if supersetOf(set, nativeHeaderSet) {
		return FormatNative
	}
	if supersetOf(set, coinTrackerHeaderSet) {
		return FormatCoinTracker
	}
	return FormatUnknown
}

func firstLineHeaders(raw string) []string {
	// Accept both LF and CRLF; take the first non-empty line.
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	for _, line := range strings.Split(normalized, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		out := make([]string, len(fields))
		for i, f := range fields {
			out[i] = strings.TrimSpace(f)
		}
		return out
	}
	return nil
}

func supersetOf(set map[string]bool, required []string) bool {
	for _, r := range required {
		if !set[r] {
			return false
		}
	}
	return true
}
