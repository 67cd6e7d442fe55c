// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package analytics

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Tracker accumulates market statistics for reporting. Amounts are
// taken in raw payment units and exposed as decimals so averages and
// rates survive integer division.
type Tracker struct {
	mu sync.RWMutex

	sales       uint64
	volume      decimal.Decimal
	fees        decimal.Decimal
	royalties   decimal.Decimal
	largestSale decimal.Decimal
}

// Stats is a point-in-time snapshot of the tracker.
type Stats struct {
	Sales            uint64          `json:"sales"`
	Volume           decimal.Decimal `json:"volume"`
	Fees             decimal.Decimal `json:"fees"`
	Royalties        decimal.Decimal `json:"royalties"`
	AverageSalePrice decimal.Decimal `json:"average_sale_price"`
	LargestSale      decimal.Decimal `json:"largest_sale"`
	EffectiveFeeRate decimal.Decimal `json:"effective_fee_rate"`
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		volume:      decimal.Zero,
		fees:        decimal.Zero,
		royalties:   decimal.Zero,
		largestSale: decimal.Zero,
	}
}

// RecordSale folds one settled sale into the running totals.
func (t *Tracker) RecordSale(gross, marketplaceFee, royalty uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g := decimal.NewFromUint64(gross)
	t.sales++
	t.volume = t.volume.Add(g)
	t.fees = t.fees.Add(decimal.NewFromUint64(marketplaceFee))
	t.royalties = t.royalties.Add(decimal.NewFromUint64(royalty))
	if g.GreaterThan(t.largestSale) {
		t.largestSale = g
	}
}

// Snapshot returns the current statistics.
func (t *Tracker) Snapshot() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Stats{
		Sales:            t.sales,
		Volume:           t.volume,
		Fees:             t.fees,
		Royalties:        t.royalties,
		AverageSalePrice: decimal.Zero,
		LargestSale:      t.largestSale,
		EffectiveFeeRate: decimal.Zero,
	}
	if t.sales > 0 {
		s.AverageSalePrice = t.volume.Div(decimal.NewFromUint64(t.sales))
	}
	if t.volume.IsPositive() {
		s.EffectiveFeeRate = t.fees.Div(t.volume)
	}
	return s
}
