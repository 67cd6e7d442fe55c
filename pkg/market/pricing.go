// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import "time"

// CurrentPrice computes the price at which a listing can be bought
// outright at the given instant. Pure; deterministic given now.
//
// Fixed-price and English-auction listings always price at
// BuyNowPrice (the auction resolves through bids, not through this
// value). Dutch listings step down by DecayStep once per full
// DecayInterval elapsed since StartTime, never rising, never below
// MinPrice, and are pinned to exactly MinPrice from EndTime onward.
func CurrentPrice(l *Listing, now time.Time) uint64 {
	if !l.Dutch {
		return l.BuyNowPrice
	}
	if now.Before(l.StartTime) {
		return l.BuyNowPrice
	}
	if !now.Before(l.EndTime()) {
		return l.MinPrice
	}
	if l.DecayInterval <= 0 || l.DecayStep == 0 {
		return l.BuyNowPrice
	}

	elapsed := now.Sub(l.StartTime)
	steps := uint64(elapsed / l.DecayInterval)

	// Compare against the step count needed to reach the floor so the
	// subtraction below cannot underflow or overflow.
	span := l.BuyNowPrice - l.MinPrice
	stepsToFloor := span / l.DecayStep
	if span%l.DecayStep != 0 {
		stepsToFloor++
	}
	if steps >= stepsToFloor {
		return l.MinPrice
	}
	return l.BuyNowPrice - steps*l.DecayStep
}
