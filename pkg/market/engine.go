// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"errors"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"github.com/samlabs/sam/pkg/analytics"
	"github.com/samlabs/sam/pkg/log"
	"github.com/samlabs/sam/pkg/metric"
)

// startTolerance is how far in the past a listing's start time may lie
// before it is rejected. Callers observe the clock slightly earlier
// than the engine does.
const startTolerance = time.Minute

// ReceiptSink receives one trade receipt per settlement. Implemented
// by the store journal; nil disables receipt recording.
type ReceiptSink interface {
	Append(id string, v any) error
}

// Params configures a Marketplace.
type Params struct {
	// Admin is the only principal allowed to mutate fee configuration
	// and the asset whitelist.
	Admin common.Address

	// Custody is the engine's own account on the value ledger; bid
	// stakes and buy-now payments are pulled here until withdrawal.
	Custody common.Address

	// BurnSink and RevenuePool are the two fixed marketplace-fee
	// destinations.
	BurnSink    common.Address
	RevenuePool common.Address

	Assets AssetRegistry
	Ledger ValueLedger

	Clock  Clock      // nil defaults to SystemClock
	Logger log.Logger // nil defaults to log.NoLog

	Metrics *metric.Metrics    // optional
	Stats   *analytics.Tracker // optional
	Journal ReceiptSink        // optional

	// OnEvent is invoked after an operation commits. Must not block.
	OnEvent func(Event)
}

// Marketplace is the serialized front door of the engine. Every
// exported operation takes the single mutex, validates, applies its
// full effect or none of it, and only then becomes observable.
type Marketplace struct {
	mu sync.Mutex

	admin    common.Address
	clock    Clock
	assets   AssetRegistry
	listings *listingTable
	bids     *bidTable
	escrow   *EscrowStore
	engine   *settlementEngine

	whitelist map[common.Address]bool

	metrics *metric.Metrics
	stats   *analytics.Tracker
	journal ReceiptSink
	onEvent func(Event)
	log     log.Logger
}

// New creates a Marketplace from params. Assets and Ledger are
// required; everything optional degrades to a no-op.
func New(p Params) (*Marketplace, error) {
	if p.Assets == nil || p.Ledger == nil {
		return nil, errors.New("market: asset registry and value ledger are required")
	}
	if p.Clock == nil {
		p.Clock = SystemClock()
	}
	if p.Logger == nil {
		p.Logger = log.NoLog
	}

	escrow := newEscrowStore()
	return &Marketplace{
		admin:     p.Admin,
		clock:     p.Clock,
		assets:    p.Assets,
		listings:  newListingTable(),
		bids:      newBidTable(),
		escrow:    escrow,
		engine:    newSettlementEngine(p.Assets, p.Ledger, escrow, p.Custody, p.BurnSink, p.RevenuePool, p.Logger),
		whitelist: make(map[common.Address]bool),
		metrics:   p.Metrics,
		stats:     p.Stats,
		journal:   p.Journal,
		onEvent:   p.OnEvent,
		log:       p.Logger,
	}, nil
}

// AddListingRequest carries the parameters of a new listing.
type AddListingRequest struct {
	Caller        common.Address `json:"caller"`
	AssetContract common.Address `json:"asset_contract"`
	AssetID       uint64         `json:"asset_id"`
	MinPrice      uint64         `json:"min_price"`
	BuyNowPrice   uint64         `json:"buy_now_price"`
	StartTime     time.Time      `json:"start_time"`
	Duration      time.Duration  `json:"duration"`
	Dutch         bool           `json:"dutch"`
	DecayInterval time.Duration  `json:"decay_interval"`
	DecayStep     uint64         `json:"decay_step"`
}

// AddListing validates and stores a new listing and returns its id.
// The caller must own the asset and have approved the engine for
// transfer; the asset itself stays with the seller until settlement.
func (m *Marketplace) AddListing(req AddListingRequest) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.whitelist[req.AssetContract] {
		return 0, ErrAssetNotWhitelisted
	}
	if req.BuyNowPrice == 0 {
		return 0, ErrZeroPrice
	}
	if req.BuyNowPrice > MaxPrice {
		return 0, ErrPriceTooLarge
	}
	if req.MinPrice > req.BuyNowPrice {
		return 0, ErrPriceRange
	}
	if req.Duration <= 0 {
		return 0, ErrZeroDuration
	}
	now := m.clock.Now()
	if req.StartTime.Before(now.Add(-startTolerance)) {
		return 0, ErrStartInPast
	}
	if req.Dutch && (req.DecayInterval <= 0 || req.DecayStep == 0) {
		return 0, ErrDecayParams
	}

	owner, err := m.assets.OwnerOf(req.AssetContract, req.AssetID)
	if err != nil {
		return 0, ErrNotOwnerOrNotApproved
	}
	if owner != req.Caller {
		return 0, ErrNotOwnerOrNotApproved
	}
	approved, err := m.assets.IsApproved(req.AssetContract, req.AssetID, m.engine.custody)
	if err != nil || !approved {
		return 0, ErrNotOwnerOrNotApproved
	}

	l := &Listing{
		AssetContract: req.AssetContract,
		AssetID:       req.AssetID,
		Seller:        req.Caller,
		MinPrice:      req.MinPrice,
		BuyNowPrice:   req.BuyNowPrice,
		StartTime:     req.StartTime,
		Duration:      req.Duration,
		Dutch:         req.Dutch,
		DecayInterval: req.DecayInterval,
		DecayStep:     req.DecayStep,
	}
	id := m.listings.insert(l)

	if m.metrics != nil {
		m.metrics.ListingsCreated.Inc()
	}
	m.log.Info("listing added", "listing", id, "seller", req.Caller, "asset", req.AssetID, "dutch", req.Dutch)
	m.emit(Event{Type: EventListingAdded, ListingID: id, Addr: req.Caller, Amount: req.BuyNowPrice, Time: now})
	return id, nil
}

// RemoveListing deletes an expired, unsold listing. Only the seller
// may remove it, and only once the sale window has closed. Any
// outstanding highest bid is released into the bidder's escrow balance
// so funds cannot be stranded by an unclaimed auction.
func (m *Marketplace) RemoveListing(caller common.Address, listingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.get(listingID)
	if !ok {
		return ErrListingNotFound
	}
	now := m.clock.Now()
	if now.Before(l.EndTime()) {
		return ErrNotExpired
	}
	if caller != l.Seller {
		return ErrNotSeller
	}

	if top := m.bids.highest(listingID); top != nil {
		m.engine.refundToEscrow(top.Bidder, top.Price)
		m.log.Info("unclaimed high bid refunded", "listing", listingID, "bidder", top.Bidder, "amount", top.Price)
	}
	m.listings.remove(listingID)

	if m.metrics != nil {
		m.metrics.ListingsRemoved.Inc()
	}
	m.log.Info("listing removed", "listing", listingID, "seller", caller)
	m.emit(Event{Type: EventListingRemoved, ListingID: listingID, Addr: caller, Time: now})
	return nil
}

// BuyNow purchases a listing outright at its current price. Rejected
// outside the sale window and on English auctions that already have a
// bid (those resolve through ClaimNft).
func (m *Marketplace) BuyNow(buyer common.Address, listingID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.get(listingID)
	if !ok {
		return ErrListingNotFound
	}
	now := m.clock.Now()
	if now.Before(l.StartTime) {
		return ErrNotStarted
	}
	if !now.Before(l.EndTime()) {
		return ErrAuctionEnded
	}
	if !l.Dutch && m.bids.highest(listingID) != nil {
		return ErrHasBids
	}

	price := CurrentPrice(l, now)
	split, err := m.engine.settle(l, buyer, price, true)
	if err != nil {
		return err
	}
	m.finishSale(l, buyer, split, now)
	return nil
}

// PlaceBid records a bid on an English-auction listing. The bid
// amount is pulled into custody immediately; the superseded highest
// bidder's stake becomes withdrawable in the same operation.
func (m *Marketplace) PlaceBid(bidder common.Address, listingID uint64, price uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.listings.get(listingID)
	if !ok {
		return 0, ErrListingNotFound
	}
	if l.Dutch {
		return 0, ErrNoBidding
	}
	now := m.clock.Now()
	if now.Before(l.StartTime) {
		return 0, ErrNotStarted
	}
	if !now.Before(l.EndTime()) {
		return 0, ErrAuctionEnded
	}
	if price > MaxPrice {
		return 0, ErrPriceTooLarge
	}

	prev := m.bids.highest(listingID)
	floor := l.MinPrice
	if prev != nil {
		floor = prev.Price
	}
	if price <= floor {
		return 0, ErrBidTooLow
	}

	if err := m.engine.pullPayment(bidder, price); err != nil {
		return 0, err
	}
	if prev != nil {
		m.engine.refundToEscrow(prev.Bidder, prev.Price)
	}

	b := &Bid{ListingID: listingID, Bidder: bidder, Price: price, PlacedAt: now}
	id := m.bids.insert(b)

	if m.metrics != nil {
		m.metrics.BidsPlaced.Inc()
	}
	m.log.Info("bid placed", "listing", listingID, "bid", id, "bidder", bidder, "price", price)
	m.emit(Event{Type: EventBidPlaced, ListingID: listingID, BidID: id, Addr: bidder, Amount: price, Time: now})
	return id, nil
}

// ClaimNft finalizes an ended auction with its winning bid. Only the
// winning bidder may claim; the stake taken at PlaceBid funds the
// settlement.
func (m *Marketplace) ClaimNft(caller common.Address, bidID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bids.get(bidID)
	if !ok {
		return ErrBidNotFound
	}
	l, ok := m.listings.get(b.ListingID)
	if !ok {
		return ErrAlreadyClaimed
	}
	now := m.clock.Now()
	if now.Before(l.EndTime()) {
		return ErrAuctionNotEnded
	}
	top := m.bids.highest(b.ListingID)
	if top == nil || top.ID != b.ID {
		return ErrNotHighestBid
	}
	if caller != b.Bidder {
		return ErrNotBidder
	}

	split, err := m.engine.settle(l, b.Bidder, b.Price, false)
	if err != nil {
		return err
	}
	m.finishSale(l, b.Bidder, split, now)
	return nil
}

// Withdraw pushes the caller's entire escrow balance out through the
// value ledger. A zero balance is a silent no-op, keeping the call
// idempotent.
func (m *Marketplace) Withdraw(caller common.Address) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	amount, err := m.escrow.withdraw(caller, m.engine.ledger)
	if err != nil {
		return 0, err
	}
	if amount == 0 {
		return 0, nil
	}
	if m.metrics != nil {
		m.metrics.Withdrawals.Inc()
	}
	m.log.Info("escrow withdrawn", "addr", caller, "amount", amount)
	m.emit(Event{Type: EventWithdrawn, Addr: caller, Amount: amount, Time: m.clock.Now()})
	return amount, nil
}

// finishSale retires a sold listing and records the sale in the
// journal, stats, metrics and event stream. Bid records are kept so a
// stale claim resolves to AlreadyClaimed rather than NotFound. Called
// with the mutex held after settlement has committed.
func (m *Marketplace) finishSale(l *Listing, buyer common.Address, split Split, now time.Time) {
	listingID := l.ID
	m.listings.remove(listingID)

	if m.journal != nil {
		r := TradeReceipt{
			ID:              uuid.NewString(),
			ListingID:       listingID,
			AssetContract:   l.AssetContract,
			AssetID:         l.AssetID,
			Seller:          l.Seller,
			Buyer:           buyer,
			Gross:           split.Gross,
			SellerProceeds:  split.SellerProceeds,
			RoyaltyReceiver: split.RoyaltyReceiver,
			NetRoyalty:      split.NetRoyalty,
			RoyaltyFee:      split.RoyaltyFee,
			BurnShare:       split.BurnShare,
			RevenueShare:    split.RevenueShare,
			Timestamp:       now,
		}
		if err := m.journal.Append(r.ID, r); err != nil {
			m.log.Error("receipt append failed", "receipt", r.ID, "err", err)
		}
	}
	if m.stats != nil {
		m.stats.RecordSale(split.Gross, split.MarketplaceFee, split.RoyaltyAmount)
	}
	if m.metrics != nil {
		m.metrics.Sales.Inc()
		m.metrics.Burned.Add(float64(split.BurnShare))
		m.metrics.Revenue.Add(float64(split.RevenueShare + split.RoyaltyFee))
	}
	m.emit(Event{Type: EventSold, ListingID: listingID, Addr: buyer, Amount: split.Gross, Time: now})
}

func (m *Marketplace) emit(ev Event) {
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

// ---- Read surface ----

// ListingsOf returns the seller's active listings in creation order.
func (m *Marketplace) ListingsOf(seller common.Address) []Listing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listings.ofSeller(seller)
}

// BidsOf returns a listing's bids ordered by submission.
func (m *Marketplace) BidsOf(listingID uint64) []Bid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bids.ofListing(listingID)
}

// GetPrice returns the current buy-now price of a listing.
func (m *Marketplace) GetPrice(listingID uint64) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings.get(listingID)
	if !ok {
		return 0, ErrListingNotFound
	}
	return CurrentPrice(l, m.clock.Now()), nil
}

// EscrowBalanceOf returns the withdrawable credit of an address.
func (m *Marketplace) EscrowBalanceOf(addr common.Address) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.escrow.balanceOf(addr)
}

// RevenueAmount returns the cumulative value routed to the revenue
// pool.
func (m *Marketplace) RevenueAmount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.totalRevenue
}

// TotalBurnAmount returns the cumulative value routed to the burn
// sink.
func (m *Marketplace) TotalBurnAmount() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.totalBurned
}

// Fees returns the current fee configuration.
func (m *Marketplace) Fees() FeeConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.engine.cfg
}

// IsWhitelisted reports whether an asset contract may be listed.
func (m *Marketplace) IsWhitelisted(contract common.Address) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.whitelist[contract]
}

// ---- Privileged configuration surface ----

// SetMarketplaceFeeRate updates the marketplace fee. Admin only;
// capped at 10000 bps.
func (m *Marketplace) SetMarketplaceFeeRate(caller common.Address, bps uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return ErrNotAdmin
	}
	if bps > BpsDenominator {
		return ErrFeeRateTooHigh
	}
	m.engine.cfg.MarketplaceFeeBps = bps
	m.log.Info("marketplace fee updated", "bps", bps)
	return nil
}

// SetRoyaltyFeeRate updates the protocol deduction on royalty
// payments. Admin only; capped at 10000 bps.
func (m *Marketplace) SetRoyaltyFeeRate(caller common.Address, bps uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return ErrNotAdmin
	}
	if bps > BpsDenominator {
		return ErrFeeRateTooHigh
	}
	m.engine.cfg.RoyaltyFeeBps = bps
	m.log.Info("royalty fee updated", "bps", bps)
	return nil
}

// SetAssetWhitelist allows or forbids listings for an asset contract.
// Admin only. Existing listings are unaffected.
func (m *Marketplace) SetAssetWhitelist(caller common.Address, contract common.Address, allowed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if caller != m.admin {
		return ErrNotAdmin
	}
	if allowed {
		m.whitelist[contract] = true
	} else {
		delete(m.whitelist, contract)
	}
	m.log.Info("whitelist updated", "contract", contract, "allowed", allowed)
	return nil
}
