// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package report filters a calculator Result to one tax year and produces
// the Schedule-D-style summary and 8949-style rows (§4.9).
package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"cryptotax/internal/engine"
	"cryptotax/internal/lot"
	"cryptotax/internal/money"
)

// Row is one Form-8949-style line for a single disposed lot.
type Row struct {
	Description string // "<amount> <asset>", 8 decimals, trailing zeros trimmed
	AcquiredAt  time.Time
	DisposedAt  time.Time
	Proceeds    decimal.Decimal
	Basis       decimal.Decimal
	Gain        decimal.Decimal
	LongTerm    bool
	DaysHeld    int64
}

// ScheduleSummary holds the four Schedule-D bucket scalars, their nets and
// the grand total. Losses are stored as non-positive values (§3).
type ScheduleSummary struct {
	ShortTermGains  decimal.Decimal
	ShortTermLosses decimal.Decimal
	LongTermGains   decimal.Decimal
	LongTermLosses  decimal.Decimal
	NetShort        decimal.Decimal
	NetLong         decimal.Decimal
	Total           decimal.Decimal
}

// TaxReport is the full output of generating a report for one year.
type TaxReport struct {
	Year      int
	Method    lot.Method
	Rows      []Row
	Income    []engine.IncomeEvent
	Summary   ScheduleSummary
	Remaining []lot.Lot
	Errors    []engine.TxError
	Warnings  []engine.TxWarning
}

// GenerateReport filters disposals and income to the target calendar year
// (UTC) and aggregates the Schedule-D buckets. Residual lots are included
// verbatim, unfiltered by year, so the report doubles as a carry-forward
// inventory snapshot (§4.9).
func GenerateReport(result engine.Result, year int, method lot.Method, preErrors []engine.TxError, preWarnings []engine.TxWarning) TaxReport {
	rpt := TaxReport{
		Year:      year,
		Method:    method,
		Remaining: result.Remaining,
		Errors:    append(append([]engine.TxError{}, preErrors...), result.Errors...),
		Warnings:  append(append([]engine.TxWarning{}, preWarnings...), result.Warnings...),
	}

	var summary ScheduleSummary
	for _, d := range result.Disposals {
		if d.DisposalAt.UTC().Year() != year {
			continue
		}
		rpt.Rows = append(rpt.Rows, Row{
			Description: fmt.Sprintf("%s %s", money.FormatAsset(d.Amount), d.Asset),
			AcquiredAt:  d.AcquiredAt,
			DisposedAt:  d.DisposalAt,
			Proceeds:    d.Proceeds,
			Basis:       d.CostBasis,
			Gain:        d.GainOrLoss,
			LongTerm:    d.LongTerm,
			DaysHeld:    d.DaysHeld,
		})
		accumulate(&summary, d.GainOrLoss, d.LongTerm)
	}
	summary.NetShort = summary.ShortTermGains.Add(summary.ShortTermLosses)
	summary.NetLong = summary.LongTermGains.Add(summary.LongTermLosses)
	summary.Total = summary.NetShort.Add(summary.NetLong)
	rpt.Summary = summary

	for _, ev := range result.Income {
		if ev.Date.UTC().Year() != year {
			continue
		}
		rpt.Income = append(rpt.Income, ev)
	}

	return rpt
}

func accumulate(s *ScheduleSummary, gain decimal.Decimal, longTerm bool) {
	if longTerm {
		if gain.Sign() >= 0 {
			s.LongTermGains = s.LongTermGains.Add(gain)
		} else {
			s.LongTermLosses = s.LongTermLosses.Add(gain)
		}
		return
	}
	if gain.Sign() >= 0 {
		s.ShortTermGains = s.ShortTermGains.Add(gain)
	} else {
		s.ShortTermLosses = s.ShortTermLosses.Add(gain)
	}
}
