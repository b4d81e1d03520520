// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"cryptotax/internal/lot"
)

const dayHours = 24 * time.Hour

// Dispose drives the pool for one disposal: consume the requested amount
// under method, then emit one DisposalResult per consumed lot with
// proceeds split proportionally across them (§4.6).
func Dispose(pool *lot.Pool, wallet, asset string, amount, proceeds decimal.Decimal, at time.Time, kind TxKind, method lot.Method) ([]DisposalResult, error) {
	consumed, err := pool.Consume(wallet, asset, amount, method)
	if err != nil {
		return nil, err
	}

	var total decimal.Decimal
	for _, c := range consumed {
		total = total.Add(c.Amount)
	}

	results := make([]DisposalResult, 0, len(consumed))
	var allocated decimal.Decimal
	for i, c := range consumed {
		// The last consumed lot absorbs whatever the running allocation
		// didn't, so the portions sum to proceeds exactly (no rounding
		// drift from repeated division) regardless of how many lots a
		// disposal spans.
		var portion decimal.Decimal
		if i == len(consumed)-1 {
			portion = proceeds.Sub(allocated)
		} else if total.Sign() != 0 {
			portion = proceeds.Mul(c.Amount).Div(total)
			allocated = allocated.Add(portion)
		}
		costBasis := c.Amount.Mul(c.BasisPerUnit)
		gain := portion.Sub(costBasis)
		daysHeld := int64(at.Sub(c.AcquiredAt) / dayHours)
		results = append(results, DisposalResult{
			Asset:        asset,
			Wallet:       wallet,
			Amount:       c.Amount,
			DisposalAt:   at,
			DisposalKind: kind,
			Proceeds:     portion,
			CostBasis:    costBasis,
			GainOrLoss:   gain,
			LongTerm:     daysHeld > 365,
			DaysHeld:     daysHeld,
			AcquiredAt:   c.AcquiredAt,
			LotID:        c.LotID,
		})
	}
	return results, nil
}
