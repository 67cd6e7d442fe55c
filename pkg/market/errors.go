// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"errors"
	"fmt"
)

// Error classes. Every specific error below wraps exactly one class so
// callers can dispatch with errors.Is on either the class or the
// specific sentinel.
var (
	ErrInvalidParams   = errors.New("invalid params")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrStateConflict   = errors.New("state conflict")
	ErrTransferFailure = errors.New("transfer failure")
)

var (
	// Listing creation.
	ErrPriceRange          = fmt.Errorf("%w: min price above buy-now price", ErrInvalidParams)
	ErrZeroPrice           = fmt.Errorf("%w: buy-now price is zero", ErrInvalidParams)
	ErrZeroDuration        = fmt.Errorf("%w: duration is zero", ErrInvalidParams)
	ErrStartInPast         = fmt.Errorf("%w: start time is in the past", ErrInvalidParams)
	ErrDecayParams         = fmt.Errorf("%w: dutch listing needs a decay interval and step", ErrInvalidParams)
	ErrAssetNotWhitelisted = fmt.Errorf("%w: asset contract is not whitelisted", ErrInvalidParams)

	// Authorization.
	ErrNotOwnerOrNotApproved = fmt.Errorf("%w: caller is not the owner or the engine is not approved", ErrNotAuthorized)
	ErrNotSeller             = fmt.Errorf("%w: only the seller can remove the listing", ErrNotAuthorized)
	ErrNotBidder             = fmt.Errorf("%w: only the bidder can claim", ErrNotAuthorized)
	ErrNotAdmin              = fmt.Errorf("%w: caller is not the administrator", ErrNotAuthorized)

	// Lookup.
	ErrListingNotFound = fmt.Errorf("%w: unknown listing", ErrNotFound)
	ErrBidNotFound     = fmt.Errorf("%w: unknown bid", ErrNotFound)

	// Lifecycle.
	ErrNotStarted      = fmt.Errorf("%w: sale has not started", ErrStateConflict)
	ErrAuctionEnded    = fmt.Errorf("%w: auction has ended", ErrStateConflict)
	ErrAuctionNotEnded = fmt.Errorf("%w: the bidding period has not completed", ErrStateConflict)
	ErrBidTooLow       = fmt.Errorf("%w: bid price too low", ErrStateConflict)
	ErrNotHighestBid   = fmt.Errorf("%w: the bid is not the highest price", ErrStateConflict)
	ErrNotExpired      = fmt.Errorf("%w: the listing has not expired", ErrStateConflict)
	ErrNoBidding       = fmt.Errorf("%w: dutch listings do not accept bids", ErrStateConflict)
	ErrHasBids         = fmt.Errorf("%w: listing already has bids", ErrStateConflict)
	ErrAlreadyClaimed  = fmt.Errorf("%w: listing already claimed or removed", ErrStateConflict)

	// Fee configuration and settlement arithmetic.
	ErrFeeRateTooHigh  = fmt.Errorf("%w: fee rate above 10000 basis points", ErrInvalidParams)
	ErrFeeExceedsPrice = fmt.Errorf("%w: royalty and fees exceed the sale price", ErrInvalidParams)
	ErrPriceTooLarge   = fmt.Errorf("%w: price exceeds the maximum settleable amount", ErrInvalidParams)
)
