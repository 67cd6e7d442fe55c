// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// AssetRegistry is the engine's view of the NFT contract family. The
// engine never mints or stores assets; it only checks ownership and
// approval at listing time and moves ownership at settlement.
type AssetRegistry interface {
	// OwnerOf returns the current owner of the asset.
	OwnerOf(contract common.Address, assetID uint64) (common.Address, error)

	// IsApproved reports whether operator may transfer the asset.
	IsApproved(contract common.Address, assetID uint64, operator common.Address) (bool, error)

	// TransferFrom moves the asset from its current owner to the
	// recipient. Fails if from is not the owner or the caller lacks
	// approval.
	TransferFrom(contract common.Address, from, to common.Address, assetID uint64) error

	// RoyaltyInfo returns the royalty receiver and amount owed for a
	// sale at salePrice. The zero address means no royalty.
	RoyaltyInfo(contract common.Address, assetID uint64, salePrice uint64) (common.Address, uint64, error)
}

// ValueLedger is the engine's view of the fungible payment token,
// bound to the engine's own custody account: TransferFrom pulls into
// custody using the payer's allowance, Transfer pushes out of custody.
type ValueLedger interface {
	TransferFrom(from, to common.Address, amount uint64) error
	Transfer(to common.Address, amount uint64) error
}

// Clock supplies the externally ordered time against which every
// deadline comparison is made. Operations never wait on it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
