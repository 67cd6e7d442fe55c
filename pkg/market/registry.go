// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

// listingTable is the arena holding all active listings plus a
// per-seller secondary index. IDs are assigned monotonically and never
// reused. Not safe for concurrent use; the Marketplace serializes
// access.
type listingTable struct {
	listings map[uint64]*Listing
	bySeller map[common.Address]map[uint64]struct{}
	nextID   uint64
}

func newListingTable() *listingTable {
	return &listingTable{
		listings: make(map[uint64]*Listing),
		bySeller: make(map[common.Address]map[uint64]struct{}),
		nextID:   1,
	}
}

// insert assigns the next id, stores the listing and indexes it under
// its seller.
func (t *listingTable) insert(l *Listing) uint64 {
	l.ID = t.nextID
	t.nextID++

	t.listings[l.ID] = l
	ids, ok := t.bySeller[l.Seller]
	if !ok {
		ids = make(map[uint64]struct{})
		t.bySeller[l.Seller] = ids
	}
	ids[l.ID] = struct{}{}
	return l.ID
}

func (t *listingTable) get(id uint64) (*Listing, bool) {
	l, ok := t.listings[id]
	return l, ok
}

// remove deletes the listing and its index entry. No-op for unknown
// ids.
func (t *listingTable) remove(id uint64) {
	l, ok := t.listings[id]
	if !ok {
		return
	}
	delete(t.listings, id)
	if ids, ok := t.bySeller[l.Seller]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(t.bySeller, l.Seller)
		}
	}
}

// ofSeller enumerates the seller's active listings in creation order.
// Returned listings are copies.
func (t *listingTable) ofSeller(seller common.Address) []Listing {
	ids, ok := t.bySeller[seller]
	if !ok {
		return nil
	}
	out := make([]Listing, 0, len(ids))
	for id := range ids {
		out = append(out, *t.listings[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
