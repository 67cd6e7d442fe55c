// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

// bidTable is the arena holding every accepted bid plus a per-listing
// index in submission order. Bids are kept after their listing retires
// so stale claims can be distinguished from unknown ids. Because
// accepted bids strictly increase in price, the last bid of a listing
// is always the unique highest one. Not safe for concurrent use; the
// Marketplace serializes access.
type bidTable struct {
	bids      map[uint64]*Bid
	byListing map[uint64][]uint64
	nextID    uint64
}

func newBidTable() *bidTable {
	return &bidTable{
		bids:      make(map[uint64]*Bid),
		byListing: make(map[uint64][]uint64),
		nextID:    1,
	}
}

func (t *bidTable) insert(b *Bid) uint64 {
	b.ID = t.nextID
	t.nextID++

	t.bids[b.ID] = b
	t.byListing[b.ListingID] = append(t.byListing[b.ListingID], b.ID)
	return b.ID
}

func (t *bidTable) get(id uint64) (*Bid, bool) {
	b, ok := t.bids[id]
	return b, ok
}

// highest returns the current highest bid for a listing, or nil when
// the listing has no bids.
func (t *bidTable) highest(listingID uint64) *Bid {
	ids := t.byListing[listingID]
	if len(ids) == 0 {
		return nil
	}
	return t.bids[ids[len(ids)-1]]
}

// ofListing enumerates a listing's bids in submission order. Returned
// bids are copies.
func (t *bidTable) ofListing(listingID uint64) []Bid {
	ids := t.byListing[listingID]
	if len(ids) == 0 {
		return nil
	}
	out := make([]Bid, 0, len(ids))
	for _, id := range ids {
		out = append(out, *t.bids[id])
	}
	return out
}
