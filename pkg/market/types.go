// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BpsDenominator is the basis-point scale used for every rate in the
// engine. A rate of 250 means 2.5%.
const BpsDenominator = 10000

// Listing is an offer to sell one asset. A listing is either an
// English auction with a buy-now escape hatch (Dutch == false) or a
// Dutch sale whose buy-now price decays toward MinPrice (Dutch ==
// true, no bidding).
type Listing struct {
	ID            uint64         `json:"id"`
	AssetContract common.Address `json:"asset_contract"`
	AssetID       uint64         `json:"asset_id"`
	Seller        common.Address `json:"seller"`
	MinPrice      uint64         `json:"min_price"`
	BuyNowPrice   uint64         `json:"buy_now_price"`
	StartTime     time.Time      `json:"start_time"`
	Duration      time.Duration  `json:"duration"`
	Dutch         bool           `json:"dutch"`
	DecayInterval time.Duration  `json:"decay_interval,omitempty"`
	DecayStep     uint64         `json:"decay_step,omitempty"`
}

// EndTime is the moment the sale window closes.
func (l *Listing) EndTime() time.Time {
	return l.StartTime.Add(l.Duration)
}

// Bid is a buyer's offer against an English-auction listing. Accepted
// bids strictly increase in price, so for any listing the most recent
// bid is the highest.
type Bid struct {
	ID        uint64         `json:"id"`
	ListingID uint64         `json:"listing_id"`
	Bidder    common.Address `json:"bidder"`
	Price     uint64         `json:"price"`
	PlacedAt  time.Time      `json:"placed_at"`
}

// TradeReceipt records the full value split of one settled sale. One
// receipt is appended to the journal per settlement.
type TradeReceipt struct {
	ID              string         `json:"id"`
	ListingID       uint64         `json:"listing_id"`
	AssetContract   common.Address `json:"asset_contract"`
	AssetID         uint64         `json:"asset_id"`
	Seller          common.Address `json:"seller"`
	Buyer           common.Address `json:"buyer"`
	Gross           uint64         `json:"gross"`
	SellerProceeds  uint64         `json:"seller_proceeds"`
	RoyaltyReceiver common.Address `json:"royalty_receiver,omitempty"`
	NetRoyalty      uint64         `json:"net_royalty"`
	RoyaltyFee      uint64         `json:"royalty_fee"`
	BurnShare       uint64         `json:"burn_share"`
	RevenueShare    uint64         `json:"revenue_share"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Event types published on every state transition.
const (
	EventListingAdded   = "listing_added"
	EventListingRemoved = "listing_removed"
	EventBidPlaced      = "bid_placed"
	EventSold           = "sold"
	EventWithdrawn      = "withdrawn"
)

// Event is a lightweight notification emitted after an operation has
// committed. Consumers must not block.
type Event struct {
	Type      string         `json:"type"`
	ListingID uint64         `json:"listing_id,omitempty"`
	BidID     uint64         `json:"bid_id,omitempty"`
	Addr      common.Address `json:"addr"`
	Amount    uint64         `json:"amount,omitempty"`
	Time      time.Time      `json:"time"`
}
