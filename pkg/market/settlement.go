// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/samlabs/sam/pkg/log"
)

// FeeConfig is the mutable protocol fee configuration, owned by the
// settlement engine and changed only through the authorization-checked
// setters on Marketplace.
type FeeConfig struct {
	// MarketplaceFeeBps is applied to the gross sale price; the
	// resulting fee is split half to the burn sink, half to revenue.
	MarketplaceFeeBps uint64

	// RoyaltyFeeBps is the protocol deduction applied to a royalty
	// payment, routed entirely to revenue.
	RoyaltyFeeBps uint64
}

// DefaultMarketplaceFeeBps is the protocol default (2.5%).
const DefaultMarketplaceFeeBps = 250

// MaxPrice bounds every listed price and bid so that basis-point fee
// arithmetic on uint64 cannot overflow.
const MaxPrice = ^uint64(0) / BpsDenominator

// Split is the exact five-way decomposition of a gross sale price.
// SellerProceeds + NetRoyalty + RoyaltyFee + BurnShare + RevenueShare
// always equals Gross.
type Split struct {
	Gross           uint64
	RoyaltyReceiver common.Address
	RoyaltyAmount   uint64
	RoyaltyFee      uint64
	NetRoyalty      uint64
	MarketplaceFee  uint64
	BurnShare       uint64
	RevenueShare    uint64
	SellerProceeds  uint64
}

// settlementEngine performs the atomic close of every sale. It is the
// only writer of the global accumulators and of cross-party escrow
// credits, and the only component that invokes the asset and value
// adapters for money movement.
type settlementEngine struct {
	assets AssetRegistry
	ledger ValueLedger
	escrow *EscrowStore
	cfg    FeeConfig

	custody     common.Address
	burnSink    common.Address
	revenuePool common.Address

	totalBurned  uint64
	totalRevenue uint64

	log log.Logger
}

func newSettlementEngine(assets AssetRegistry, ledger ValueLedger, escrow *EscrowStore, custody, burnSink, revenuePool common.Address, logger log.Logger) *settlementEngine {
	return &settlementEngine{
		assets:      assets,
		ledger:      ledger,
		escrow:      escrow,
		cfg:         FeeConfig{MarketplaceFeeBps: DefaultMarketplaceFeeBps},
		custody:     custody,
		burnSink:    burnSink,
		revenuePool: revenuePool,
		log:         logger,
	}
}

// computeSplit derives the fee/royalty/net decomposition of gross for
// the listing's asset. Truncating division throughout; every truncated
// remainder lands in the revenue pool so no value is lost.
func (s *settlementEngine) computeSplit(l *Listing, gross uint64) (Split, error) {
	receiver, royaltyAmount, err := s.assets.RoyaltyInfo(l.AssetContract, l.AssetID, gross)
	if err != nil {
		return Split{}, fmt.Errorf("%w: royalty lookup: %v", ErrTransferFailure, err)
	}
	if receiver == (common.Address{}) {
		royaltyAmount = 0
	}

	marketplaceFee := gross * s.cfg.MarketplaceFeeBps / BpsDenominator
	if royaltyAmount > gross || royaltyAmount+marketplaceFee > gross {
		return Split{}, ErrFeeExceedsPrice
	}

	royaltyFee := royaltyAmount * s.cfg.RoyaltyFeeBps / BpsDenominator
	burnShare := marketplaceFee / 2

	return Split{
		Gross:           gross,
		RoyaltyReceiver: receiver,
		RoyaltyAmount:   royaltyAmount,
		RoyaltyFee:      royaltyFee,
		NetRoyalty:      royaltyAmount - royaltyFee,
		MarketplaceFee:  marketplaceFee,
		BurnShare:       burnShare,
		RevenueShare:    marketplaceFee - burnShare,
		SellerProceeds:  gross - royaltyAmount - marketplaceFee,
	}, nil
}

// settle closes a sale: computes the split, takes custody of the
// buyer's payment when pullFunds is set (auction claims are already in
// custody from placeBid), moves the asset, then credits every party's
// escrow balance and bumps the accumulators. All-or-nothing: any
// failure leaves no observable state change.
func (s *settlementEngine) settle(l *Listing, buyer common.Address, gross uint64, pullFunds bool) (Split, error) {
	split, err := s.computeSplit(l, gross)
	if err != nil {
		return Split{}, err
	}

	if pullFunds {
		if err := s.ledger.TransferFrom(buyer, s.custody, gross); err != nil {
			return Split{}, fmt.Errorf("%w: payment: %v", ErrTransferFailure, err)
		}
	}

	if err := s.assets.TransferFrom(l.AssetContract, l.Seller, buyer, l.AssetID); err != nil {
		if pullFunds {
			// Unwind the payment we just took; the funds were pulled
			// into our own custody, so this cannot fail for balance.
			if rerr := s.ledger.Transfer(buyer, gross); rerr != nil {
				s.log.Error("payment unwind failed", "buyer", buyer, "amount", gross, "err", rerr)
			}
		}
		return Split{}, fmt.Errorf("%w: asset transfer: %v", ErrTransferFailure, err)
	}

	s.escrow.credit(l.Seller, split.SellerProceeds)
	s.escrow.credit(split.RoyaltyReceiver, split.NetRoyalty)
	s.escrow.credit(s.burnSink, split.BurnShare)
	s.escrow.credit(s.revenuePool, split.RevenueShare+split.RoyaltyFee)

	s.totalBurned += split.BurnShare
	s.totalRevenue += split.RevenueShare + split.RoyaltyFee

	s.log.Info("sale settled",
		"listing", l.ID,
		"buyer", buyer,
		"gross", gross,
		"seller_proceeds", split.SellerProceeds,
		"net_royalty", split.NetRoyalty,
		"burn", split.BurnShare,
		"revenue", split.RevenueShare+split.RoyaltyFee)

	return split, nil
}

// pullPayment takes amount from the payer's allowance into custody.
// Used by the bid path; the funds stay in custody until the winning
// claim settles or the bid is superseded and refunded.
func (s *settlementEngine) pullPayment(from common.Address, amount uint64) error {
	if err := s.ledger.TransferFrom(from, s.custody, amount); err != nil {
		return fmt.Errorf("%w: payment: %v", ErrTransferFailure, err)
	}
	return nil
}

// refundToEscrow releases custody funds into an address's withdrawable
// balance. Never pushed synchronously.
func (s *settlementEngine) refundToEscrow(addr common.Address, amount uint64) {
	s.escrow.credit(addr, amount)
}
