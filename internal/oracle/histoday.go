// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// HistoDayOracle is the reference Oracle implementation, addressing a
// CryptoCompare-style histoday endpoint with fsym=TICKER, tsym=USD,
// limit=2000, toTs=<unix-seconds> (§6). No HTTP client library appears
// anywhere in the retrieval pack for this kind of outbound call, so this
// is built directly on net/http (see DESIGN.md).
type HistoDayOracle struct {
	BaseURL string // e.g. "https://min-api.cryptocompare.com/data/v2/histoday"
	Client  *http.Client
}

// NewHistoDayOracle returns a HistoDayOracle with sane defaults.
func NewHistoDayOracle(baseURL string) *HistoDayOracle {
	return &HistoDayOracle{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type histoDayResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []struct {
			Time  int64   `json:"time"`
			Close float64 `json:"close"`
		} `json:"Data"`
	} `json:"Data"`
}

// FetchDailyCloses implements Oracle by calling histoday once for ticker
// and returning its daily closes keyed by calendar day.
func (h *HistoDayOracle) FetchDailyCloses(ctx context.Context, ticker string, toDate time.Time) (map[string]decimal.Decimal, error) {
	q := url.Values{}
	q.Set("fsym", ticker)
	q.Set("tsym", "USD")
	q.Set("limit", "2000")
	q.Set("toTs", strconv.FormatInt(toDate.Unix(), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building histoday request for %s: %w", ticker, err)
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("histoday transport failure for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("histoday returned status %d for %s", resp.StatusCode, ticker)
	}

	var body histoDayResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding histoday response for %s: %w", ticker, err)
	}
	if body.Response == "Error" {
		return nil, fmt.Errorf("histoday upstream error for %s: %s", ticker, body.Message)
	}

	out := map[string]decimal.Decimal{}
	for _, point := range body.Data.Data {
		if point.Close <= 0 {
			continue
		}
		day := time.Unix(point.Time, 0).UTC().Format(dayLayout)
		out[day] = decimal.NewFromFloat(point.Close)
	}
	return out, nil
}
