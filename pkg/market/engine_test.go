// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/samlabs/sam/pkg/log"
	"github.com/samlabs/sam/pkg/market"
	"github.com/samlabs/sam/pkg/token"
)

var (
	admin    = common.HexToAddress("0xad")
	custody  = common.HexToAddress("0xc0")
	burnSink = common.HexToAddress("0xbb")
	revenue  = common.HexToAddress("0xee")
	contract = common.HexToAddress("0x0f")

	seller  = common.HexToAddress("0x02")
	buyer   = common.HexToAddress("0x01")
	bidder1 = common.HexToAddress("0x03")
	bidder2 = common.HexToAddress("0x04")
	bidder3 = common.HexToAddress("0x05")
	royalty = common.HexToAddress("0x06")
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type env struct {
	t      *testing.T
	clock  *testClock
	ledger *token.Ledger
	nfts   *token.Registry
	m      *market.Marketplace
}

func newEnv(t *testing.T) *env {
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	ledger := token.NewLedger()
	nfts := token.NewRegistry()

	m, err := market.New(market.Params{
		Admin:       admin,
		Custody:     custody,
		BurnSink:    burnSink,
		RevenuePool: revenue,
		Assets:      nfts.Bind(custody),
		Ledger:      ledger.Bind(custody),
		Clock:       clock,
		Logger:      log.NoOp(),
	})
	require.NoError(t, err)
	require.NoError(t, m.SetAssetWhitelist(admin, contract, true))

	return &env{t: t, clock: clock, ledger: ledger, nfts: nfts, m: m}
}

// fund mints payment units and approves the engine to spend them.
func (e *env) fund(addr common.Address, amount uint64) {
	e.ledger.Mint(addr, amount)
	e.ledger.Approve(addr, custody, amount)
}

// mintNFT creates an asset owned by addr and approves the engine.
func (e *env) mintNFT(assetID uint64, addr common.Address) {
	e.nfts.Mint(contract, assetID, addr)
	require.NoError(e.t, e.nfts.Approve(addr, contract, assetID, custody))
}

// list creates a fixed-price/English listing starting now, 24h window.
func (e *env) list(assetID, minPrice, buyNow uint64) uint64 {
	id, err := e.m.AddListing(market.AddListingRequest{
		Caller:        seller,
		AssetContract: contract,
		AssetID:       assetID,
		MinPrice:      minPrice,
		BuyNowPrice:   buyNow,
		StartTime:     e.clock.Now(),
		Duration:      24 * time.Hour,
	})
	require.NoError(e.t, err)
	return id
}

func TestBuyNow(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	e.fund(buyer, 100_000_000)
	id := e.list(1, 10_000_000, 20_000_000)

	require.Len(e.m.ListingsOf(seller), 1)

	require.NoError(e.m.BuyNow(buyer, id))

	owner, err := e.nfts.OwnerOf(contract, 1)
	require.NoError(err)
	require.Equal(buyer, owner)
	require.Empty(e.m.ListingsOf(seller))

	// 2.5% fee on 20_000_000 splits 250_000 burn / 250_000 revenue.
	require.Equal(uint64(19_500_000), e.m.EscrowBalanceOf(seller))
	require.Equal(uint64(250_000), e.m.EscrowBalanceOf(burnSink))
	require.Equal(uint64(250_000), e.m.EscrowBalanceOf(revenue))
	require.Equal(uint64(250_000), e.m.TotalBurnAmount())
	require.Equal(uint64(250_000), e.m.RevenueAmount())

	// Custody holds exactly the undistributed escrow.
	require.Equal(uint64(20_000_000), e.ledger.BalanceOf(custody))

	got, err := e.m.Withdraw(seller)
	require.NoError(err)
	require.Equal(uint64(19_500_000), got)
	require.Equal(uint64(19_500_000), e.ledger.BalanceOf(seller))

	// Second withdrawal is an idempotent no-op.
	got, err = e.m.Withdraw(seller)
	require.NoError(err)
	require.Zero(got)
	require.Equal(uint64(19_500_000), e.ledger.BalanceOf(seller))
}

func TestBuyNowWindow(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	e.fund(buyer, 100_000_000)

	id, err := e.m.AddListing(market.AddListingRequest{
		Caller:        seller,
		AssetContract: contract,
		AssetID:       1,
		MinPrice:      10_000_000,
		BuyNowPrice:   20_000_000,
		StartTime:     e.clock.Now().Add(time.Hour),
		Duration:      24 * time.Hour,
	})
	require.NoError(err)

	require.ErrorIs(e.m.BuyNow(buyer, id), market.ErrNotStarted)

	e.clock.advance(2 * time.Hour)
	require.NoError(e.m.BuyNow(buyer, id))

	require.ErrorIs(e.m.BuyNow(buyer, id), market.ErrListingNotFound)
}

func TestAuctionAndBidding(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	for _, b := range []common.Address{bidder1, bidder2, bidder3} {
		e.fund(b, 100_000_000)
	}
	id := e.list(1, 10_000_000, 20_000_000)

	// The first bid must strictly exceed the minimum price.
	_, err := e.m.PlaceBid(bidder1, id, 10_000_000)
	require.ErrorIs(err, market.ErrBidTooLow)

	b1, err := e.m.PlaceBid(bidder1, id, 11_000_000)
	require.NoError(err)

	_, err = e.m.PlaceBid(bidder2, id, 11_000_000)
	require.ErrorIs(err, market.ErrBidTooLow)

	b2, err := e.m.PlaceBid(bidder2, id, 12_000_000)
	require.NoError(err)
	b3, err := e.m.PlaceBid(bidder3, id, 15_000_000)
	require.NoError(err)

	bids := e.m.BidsOf(id)
	require.Len(bids, 3)
	require.Equal([]uint64{b1, b2, b3}, []uint64{bids[0].ID, bids[1].ID, bids[2].ID})

	// Superseded stakes are withdrawable before the auction ends.
	require.Equal(uint64(11_000_000), e.m.EscrowBalanceOf(bidder1))
	require.Equal(uint64(12_000_000), e.m.EscrowBalanceOf(bidder2))

	// Buy-now is closed once bidding has started.
	e.fund(buyer, 100_000_000)
	require.ErrorIs(e.m.BuyNow(buyer, id), market.ErrHasBids)

	require.ErrorIs(e.m.ClaimNft(bidder1, b1), market.ErrAuctionNotEnded)

	e.clock.advance(25 * time.Hour)

	require.ErrorIs(e.m.ClaimNft(bidder2, b2), market.ErrNotHighestBid)
	require.ErrorIs(e.m.ClaimNft(bidder1, b3), market.ErrNotBidder)

	require.NoError(e.m.ClaimNft(bidder3, b3))
	require.Empty(e.m.ListingsOf(seller))

	owner, err := e.nfts.OwnerOf(contract, 1)
	require.NoError(err)
	require.Equal(bidder3, owner)

	// 15_000_000 gross: fee 375_000 splits 187_500/187_500.
	require.Equal(uint64(14_625_000), e.m.EscrowBalanceOf(seller))
	require.Equal(uint64(187_500), e.m.TotalBurnAmount())
	require.Equal(uint64(187_500), e.m.RevenueAmount())

	// A second claim on the settled listing is rejected.
	require.ErrorIs(e.m.ClaimNft(bidder3, b3), market.ErrAlreadyClaimed)

	// Losing bidders recover their full stake.
	got, err := e.m.Withdraw(bidder1)
	require.NoError(err)
	require.Equal(uint64(11_000_000), got)
	require.Equal(uint64(100_000_000), e.ledger.BalanceOf(bidder1))

	got, err = e.m.Withdraw(bidder2)
	require.NoError(err)
	require.Equal(uint64(12_000_000), got)
}

func TestPlaceBidRejections(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	id := e.list(1, 10_000_000, 20_000_000)

	// No allowance granted: the stake pull fails and no bid exists.
	_, err := e.m.PlaceBid(bidder1, id, 11_000_000)
	require.ErrorIs(err, market.ErrTransferFailure)
	require.Empty(e.m.BidsOf(id))

	e.fund(bidder1, 100_000_000)
	e.clock.advance(25 * time.Hour)
	_, err = e.m.PlaceBid(bidder1, id, 11_000_000)
	require.ErrorIs(err, market.ErrAuctionEnded)

	_, err = e.m.PlaceBid(bidder1, 999, 11_000_000)
	require.ErrorIs(err, market.ErrListingNotFound)
}

func TestRemoveListing(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	id := e.list(1, 10_000_000, 20_000_000)

	require.ErrorIs(e.m.RemoveListing(seller, id), market.ErrNotExpired)

	e.clock.advance(25 * time.Hour)

	require.ErrorIs(e.m.RemoveListing(buyer, id), market.ErrNotSeller)

	require.NoError(e.m.RemoveListing(seller, id))
	require.Empty(e.m.ListingsOf(seller))

	// The seller still owns the asset; only approval was granted.
	owner, err := e.nfts.OwnerOf(contract, 1)
	require.NoError(err)
	require.Equal(seller, owner)

	require.ErrorIs(e.m.RemoveListing(seller, id), market.ErrListingNotFound)
}

func TestRemoveListingRefundsUnclaimedBid(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	e.fund(bidder1, 100_000_000)
	id := e.list(1, 10_000_000, 20_000_000)

	b1, err := e.m.PlaceBid(bidder1, id, 11_000_000)
	require.NoError(err)

	e.clock.advance(25 * time.Hour)
	require.NoError(e.m.RemoveListing(seller, id))

	// The winning-but-unclaimed stake is released to escrow and the
	// stale claim resolves against the retired listing.
	require.Equal(uint64(11_000_000), e.m.EscrowBalanceOf(bidder1))
	require.ErrorIs(e.m.ClaimNft(bidder1, b1), market.ErrAlreadyClaimed)

	got, err := e.m.Withdraw(bidder1)
	require.NoError(err)
	require.Equal(uint64(11_000_000), got)
	require.Equal(uint64(100_000_000), e.ledger.BalanceOf(bidder1))
}

func TestDutchAuction(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	e.fund(buyer, 100_000_000)

	id, err := e.m.AddListing(market.AddListingRequest{
		Caller:        seller,
		AssetContract: contract,
		AssetID:       1,
		MinPrice:      10_000_000,
		BuyNowPrice:   20_000_000,
		StartTime:     e.clock.Now(),
		Duration:      24 * time.Hour,
		Dutch:         true,
		DecayInterval: time.Hour,
		DecayStep:     100_000,
	})
	require.NoError(err)

	// Dutch listings do not accept bids.
	e.fund(bidder1, 100_000_000)
	_, err = e.m.PlaceBid(bidder1, id, 15_000_000)
	require.ErrorIs(err, market.ErrNoBidding)

	e.clock.advance(12 * time.Hour)
	price, err := e.m.GetPrice(id)
	require.NoError(err)
	require.Equal(uint64(18_800_000), price)

	require.NoError(e.m.BuyNow(buyer, id))

	owner, err := e.nfts.OwnerOf(contract, 1)
	require.NoError(err)
	require.Equal(buyer, owner)

	// 18_800_000 gross: fee 470_000 splits 235_000/235_000.
	require.Equal(uint64(18_330_000), e.m.EscrowBalanceOf(seller))
	require.Equal(uint64(235_000), e.m.TotalBurnAmount())
	require.Equal(uint64(235_000), e.m.RevenueAmount())
	require.Equal(uint64(100_000_000-18_800_000), e.ledger.BalanceOf(buyer))
}

func TestRoyaltyPayment(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	require.NoError(e.nfts.SetRoyalty(contract, 1, royalty, 2000))
	require.NoError(e.m.SetRoyaltyFeeRate(admin, 1000))

	e.fund(buyer, 100_000_000)
	id := e.list(1, 10_000_000, 20_000_000)

	require.NoError(e.m.BuyNow(buyer, id))

	// 20% royalty = 4_000_000, minus the 10% protocol deduction of
	// 400_000 routed to revenue.
	require.Equal(uint64(3_600_000), e.m.EscrowBalanceOf(royalty))
	require.Equal(uint64(15_500_000), e.m.EscrowBalanceOf(seller))
	require.Equal(uint64(250_000), e.m.EscrowBalanceOf(burnSink))
	require.Equal(uint64(650_000), e.m.EscrowBalanceOf(revenue))
	require.Equal(uint64(250_000), e.m.TotalBurnAmount())
	require.Equal(uint64(650_000), e.m.RevenueAmount())

	// Value conservation: all escrow credits sum to the gross price.
	total := e.m.EscrowBalanceOf(royalty) +
		e.m.EscrowBalanceOf(seller) +
		e.m.EscrowBalanceOf(burnSink) +
		e.m.EscrowBalanceOf(revenue)
	require.Equal(uint64(20_000_000), total)
	require.Equal(uint64(20_000_000), e.ledger.BalanceOf(custody))
}

func TestAddListingValidation(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)

	base := market.AddListingRequest{
		Caller:        seller,
		AssetContract: contract,
		AssetID:       1,
		MinPrice:      10_000_000,
		BuyNowPrice:   20_000_000,
		StartTime:     e.clock.Now(),
		Duration:      24 * time.Hour,
	}

	req := base
	req.AssetContract = common.HexToAddress("0xdead")
	_, err := e.m.AddListing(req)
	require.ErrorIs(err, market.ErrAssetNotWhitelisted)

	req = base
	req.MinPrice = 30_000_000
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrPriceRange)

	req = base
	req.BuyNowPrice = 0
	req.MinPrice = 0
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrZeroPrice)

	req = base
	req.Duration = 0
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrZeroDuration)

	req = base
	req.StartTime = e.clock.Now().Add(-2 * time.Hour)
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrStartInPast)

	req = base
	req.Dutch = true
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrDecayParams)

	// Not the owner.
	req = base
	req.Caller = buyer
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrNotOwnerOrNotApproved)

	// Owner but engine not approved.
	e.nfts.Mint(contract, 2, seller)
	req = base
	req.AssetID = 2
	_, err = e.m.AddListing(req)
	require.ErrorIs(err, market.ErrNotOwnerOrNotApproved)
}

func TestAdminSurface(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	require.ErrorIs(e.m.SetMarketplaceFeeRate(buyer, 100), market.ErrNotAdmin)
	require.ErrorIs(e.m.SetRoyaltyFeeRate(buyer, 100), market.ErrNotAdmin)
	require.ErrorIs(e.m.SetAssetWhitelist(buyer, contract, false), market.ErrNotAdmin)

	require.ErrorIs(e.m.SetMarketplaceFeeRate(admin, 10_001), market.ErrFeeRateTooHigh)
	require.ErrorIs(e.m.SetRoyaltyFeeRate(admin, 10_001), market.ErrFeeRateTooHigh)

	require.NoError(e.m.SetMarketplaceFeeRate(admin, 500))
	require.NoError(e.m.SetRoyaltyFeeRate(admin, 1000))
	fees := e.m.Fees()
	require.Equal(uint64(500), fees.MarketplaceFeeBps)
	require.Equal(uint64(1000), fees.RoyaltyFeeBps)

	require.True(e.m.IsWhitelisted(contract))
	require.NoError(e.m.SetAssetWhitelist(admin, contract, false))
	require.False(e.m.IsWhitelisted(contract))
}

func TestBuyNowInsufficientFunds(t *testing.T) {
	require := require.New(t)
	e := newEnv(t)

	e.mintNFT(1, seller)
	id := e.list(1, 10_000_000, 20_000_000)

	// No balance and no allowance: settlement must abort with nothing
	// observable.
	require.ErrorIs(e.m.BuyNow(buyer, id), market.ErrTransferFailure)
	require.Len(e.m.ListingsOf(seller), 1)
	require.Zero(e.m.EscrowBalanceOf(seller))
	require.Zero(e.m.TotalBurnAmount())
	require.Zero(e.m.RevenueAmount())

	owner, err := e.nfts.OwnerOf(contract, 1)
	require.NoError(err)
	require.Equal(seller, owner)
}

func TestEventsEmitted(t *testing.T) {
	require := require.New(t)

	var events []market.Event
	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	ledger := token.NewLedger()
	nfts := token.NewRegistry()

	m, err := market.New(market.Params{
		Admin:       admin,
		Custody:     custody,
		BurnSink:    burnSink,
		RevenuePool: revenue,
		Assets:      nfts.Bind(custody),
		Ledger:      ledger.Bind(custody),
		Clock:       clock,
		Logger:      log.NoOp(),
		OnEvent:     func(ev market.Event) { events = append(events, ev) },
	})
	require.NoError(err)
	require.NoError(m.SetAssetWhitelist(admin, contract, true))

	nfts.Mint(contract, 1, seller)
	require.NoError(nfts.Approve(seller, contract, 1, custody))
	ledger.Mint(buyer, 100_000_000)
	ledger.Approve(buyer, custody, 100_000_000)

	id, err := m.AddListing(market.AddListingRequest{
		Caller:        seller,
		AssetContract: contract,
		AssetID:       1,
		MinPrice:      10_000_000,
		BuyNowPrice:   20_000_000,
		StartTime:     clock.Now(),
		Duration:      24 * time.Hour,
	})
	require.NoError(err)
	require.NoError(m.BuyNow(buyer, id))
	_, err = m.Withdraw(seller)
	require.NoError(err)

	require.Len(events, 3)
	require.Equal(market.EventListingAdded, events[0].Type)
	require.Equal(market.EventSold, events[1].Type)
	require.Equal(market.EventWithdrawn, events[2].Type)
	require.Equal(uint64(19_500_000), events[2].Amount)
}
