// SPDX-License-Identifier: EPL-2.0
// Copyright (c) 2025-present Marko Kocić <marko@euptera.com>

// Package lot implements the per-(wallet, asset) tax lot pool: add, consume
// under a selection policy, and transfer between wallets while preserving
// basis (§4.5).
package lot

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cryptotax/internal/diag"
)

// Method is a lot-selection policy tag. It is consumed by a plain sort, no
// virtual dispatch needed (§9).
type Method string

const (
	FIFO Method = "FIFO"
	LIFO Method = "LIFO"
	HIFO Method = "HIFO"
)

// AcquisitionKind records why a lot came into existence, carried through to
// reporting for diagnostics/audit trails; it does not affect consumption
// order.
type AcquisitionKind string

// Lot is a unit of inventory. Remaining is mutated in place by consume;
// Original never changes once the lot is created.
type Lot struct {
	ID              string
	Asset           string
	Wallet          string
	Remaining       decimal.Decimal
	Original        decimal.Decimal
	BasisPerUnit    decimal.Decimal
	AcquiredAt      time.Time
	AcquisitionKind AcquisitionKind
}

// ConsumedLot is a value-typed snapshot of a partial or full consumption of
// one lot. It does not alias pool state.
type ConsumedLot struct {
	LotID           string
	Asset           string
	Wallet          string
	Amount          decimal.Decimal
	BasisPerUnit    decimal.Decimal
	AcquiredAt      time.Time
	AcquisitionKind AcquisitionKind
}

type key struct {
	wallet string
	asset  string
}

// Pool owns every lot across every (wallet, asset) pair. It is not
// thread-safe by contract (§5); a single replay mutates it sequentially.
type Pool struct {
	lots map[key][]*Lot
}

// NewPool returns an empty pool.
func NewPool() *Pool {
	return &Pool{lots: make(map[key][]*Lot)}
}

// Add appends a new lot; the caller supplies everything but the id, which
// the pool mints so ids stay stable and collision-free across parallel
// report runs (§5, §9).
func (p *Pool) Add(wallet, asset string, remaining, basisPerUnit decimal.Decimal, acquiredAt time.Time, kind AcquisitionKind) *Lot {
	l := &Lot{
		ID:              uuid.NewString(),
		Asset:           asset,
		Wallet:          wallet,
		Remaining:       remaining,
		Original:        remaining,
		BasisPerUnit:    basisPerUnit,
		AcquiredAt:      acquiredAt,
		AcquisitionKind: kind,
	}
	k := key{wallet, asset}
	p.lots[k] = append(p.lots[k], l)
	return l
}

// AddLot re-inserts a fully formed lot (used by Transfer to preserve basis
// and acquisition instant across a wallet move) and mints a fresh id.
func (p *Pool) AddLot(wallet, asset string, remaining, basisPerUnit decimal.Decimal, acquiredAt time.Time, kind AcquisitionKind) *Lot {
	return p.Add(wallet, asset, remaining, basisPerUnit, acquiredAt, kind)
}

func sortedView(lots []*Lot, method Method) []*Lot {
	view := make([]*Lot, len(lots))
	copy(view, lots)
	switch method {
	case LIFO:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].AcquiredAt.After(view[j].AcquiredAt)
		})
	case HIFO:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].BasisPerUnit.GreaterThan(view[j].BasisPerUnit)
		})
	default: // FIFO
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].AcquiredAt.Before(view[j].AcquiredAt)
		})
	}
	return view
}

// Consume realizes `amount` of (wallet, asset) under the given method,
// returning one snapshot per lot touched. It is atomic: either the full
// amount is found and every touched lot is mutated, or nothing is mutated
// and ErrInsufficientLots is returned (§4.5 steps 1-4).
func (p *Pool) Consume(wallet, asset string, amount decimal.Decimal, method Method) ([]ConsumedLot, error) {
	k := key{wallet, asset}
	lots := p.lots[k]
	if len(lots) == 0 {
		return nil, fmt.Errorf("%w: no lots for wallet %q asset %q", diag.ErrInsufficientLots, wallet, asset)
	}

	view := sortedView(lots, method)

	// Build the consumption plan against remaining amounts without
	// mutating anything yet, so a shortfall leaves the pool untouched.
	type step struct {
		l   *Lot
		use decimal.Decimal
	}
	var plan []step
	outstanding := amount
	for _, l := range view {
		if outstanding.Sign() <= 0 {
			break
		}
		if l.Remaining.Sign() <= 0 {
			continue
		}
		use := l.Remaining
		if outstanding.LessThan(use) {
			use = outstanding
		}
		plan = append(plan, step{l: l, use: use})
		outstanding = outstanding.Sub(use)
	}
	if outstanding.Sign() > 0 {
		return nil, fmt.Errorf("%w: wallet %q asset %q short by %s", diag.ErrInsufficientLots, wallet, asset, outstanding.String())
	}

	consumed := make([]ConsumedLot, 0, len(plan))
	for _, st := range plan {
		consumed = append(consumed, ConsumedLot{
			LotID:           st.l.ID,
			Asset:           st.l.Asset,
			Wallet:          st.l.Wallet,
			Amount:          st.use,
			BasisPerUnit:    st.l.BasisPerUnit,
			AcquiredAt:      st.l.AcquiredAt,
			AcquisitionKind: st.l.AcquisitionKind,
		})
		st.l.Remaining = st.l.Remaining.Sub(st.use)
	}
	p.gc(k)
	return consumed, nil
}

// gc drops lots whose remaining has reached zero; they are never
// resurrected (§3 invariant).
func (p *Pool) gc(k key) {
	lots := p.lots[k]
	kept := lots[:0]
	for _, l := range lots {
		if l.Remaining.Sign() > 0 {
			kept = append(kept, l)
		}
	}
	p.lots[k] = kept
}

// Transfer moves `amount` of asset from one wallet to another, consuming
// FIFO at the source and re-adding each consumed snapshot at the
// destination with a fresh id, preserving basis and acquisition instant.
// No tax event is produced.
func (p *Pool) Transfer(from, to, asset string, amount decimal.Decimal) ([]*Lot, error) {
	consumed, err := p.Consume(from, asset, amount, FIFO)
	if err != nil {
		return nil, err
	}
	out := make([]*Lot, 0, len(consumed))
	for _, c := range consumed {
		out = append(out, p.AddLot(to, asset, c.Amount, c.BasisPerUnit, c.AcquiredAt, c.AcquisitionKind))
	}
	return out, nil
}

// Remaining returns every lot with remaining > 0 across all wallets/assets,
// in no particular guaranteed order (callers sort as needed).
func (p *Pool) Remaining() []Lot {
	var out []Lot
	for _, lots := range p.lots {
		for _, l := range lots {
			if l.Remaining.Sign() > 0 {
				out = append(out, *l)
			}
		}
	}
	return out
}
