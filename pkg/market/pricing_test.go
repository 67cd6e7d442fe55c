// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func dutchListing() *Listing {
	return &Listing{
		MinPrice:      10_000_000,
		BuyNowPrice:   20_000_000,
		StartTime:     time.Unix(1_000_000, 0),
		Duration:      24 * time.Hour,
		Dutch:         true,
		DecayInterval: time.Hour,
		DecayStep:     100_000,
	}
}

func TestCurrentPriceFixed(t *testing.T) {
	require := require.New(t)

	l := &Listing{
		MinPrice:    10_000_000,
		BuyNowPrice: 20_000_000,
		StartTime:   time.Unix(1_000_000, 0),
		Duration:    24 * time.Hour,
	}

	for _, offset := range []time.Duration{-time.Hour, 0, 12 * time.Hour, 48 * time.Hour} {
		require.Equal(uint64(20_000_000), CurrentPrice(l, l.StartTime.Add(offset)))
	}
}

func TestCurrentPriceDutchDecay(t *testing.T) {
	require := require.New(t)
	l := dutchListing()

	// Before start the price has not begun to decay.
	require.Equal(uint64(20_000_000), CurrentPrice(l, l.StartTime.Add(-time.Second)))

	// Price steps down once per full interval.
	require.Equal(uint64(20_000_000), CurrentPrice(l, l.StartTime))
	require.Equal(uint64(20_000_000), CurrentPrice(l, l.StartTime.Add(59*time.Minute)))
	require.Equal(uint64(19_900_000), CurrentPrice(l, l.StartTime.Add(time.Hour)))
	require.Equal(uint64(19_800_000), CurrentPrice(l, l.StartTime.Add(2*time.Hour)))
	require.Equal(uint64(18_800_000), CurrentPrice(l, l.StartTime.Add(12*time.Hour)))

	// From end time onward the price is pinned to the floor.
	require.Equal(uint64(10_000_000), CurrentPrice(l, l.EndTime()))
	require.Equal(uint64(10_000_000), CurrentPrice(l, l.EndTime().Add(100*time.Hour)))
}

func TestCurrentPriceDutchFloor(t *testing.T) {
	require := require.New(t)

	// Steep decay reaches the floor long before the window ends and
	// must clamp there instead of dropping below it.
	l := dutchListing()
	l.DecayStep = 3_000_000

	require.Equal(uint64(17_000_000), CurrentPrice(l, l.StartTime.Add(time.Hour)))
	require.Equal(uint64(11_000_000), CurrentPrice(l, l.StartTime.Add(3*time.Hour)))
	require.Equal(uint64(10_000_000), CurrentPrice(l, l.StartTime.Add(4*time.Hour)))
	require.Equal(uint64(10_000_000), CurrentPrice(l, l.StartTime.Add(20*time.Hour)))
}

func TestCurrentPriceMonotonic(t *testing.T) {
	require := require.New(t)
	l := dutchListing()

	prev := CurrentPrice(l, l.StartTime.Add(-time.Hour))
	for step := time.Duration(0); step <= 26*time.Hour; step += 13 * time.Minute {
		p := CurrentPrice(l, l.StartTime.Add(step))
		require.LessOrEqual(p, prev, "price rose at offset %v", step)
		require.GreaterOrEqual(p, l.MinPrice)
		require.LessOrEqual(p, l.BuyNowPrice)
		prev = p
	}
}
