// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/samlabs/sam/pkg/market"
)

var (
	ErrUnknownAsset   = errors.New("unknown asset")
	ErrNotOwner       = errors.New("not the owner")
	ErrNotApproved    = errors.New("caller not approved")
	ErrRoyaltyTooHigh = errors.New("royalty above 10000 basis points")
)

type asset struct {
	owner           common.Address
	approved        common.Address
	royaltyReceiver common.Address
	royaltyBps      uint64
}

// Registry is an in-process NFT ownership registry with ERC721-style
// approvals and ERC2981-style per-token royalties, spanning any number
// of asset contracts. It backs tests and the dev server.
type Registry struct {
	mu     sync.Mutex
	assets map[common.Address]map[uint64]*asset
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{assets: make(map[common.Address]map[uint64]*asset)}
}

// Mint creates an asset under a contract and assigns its owner.
func (r *Registry) Mint(contract common.Address, assetID uint64, owner common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tokens, ok := r.assets[contract]
	if !ok {
		tokens = make(map[uint64]*asset)
		r.assets[contract] = tokens
	}
	tokens[assetID] = &asset{owner: owner}
}

// Approve lets the owner grant a single operator transfer rights.
func (r *Registry) Approve(caller, contract common.Address, assetID uint64, operator common.Address) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[contract][assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if a.owner != caller {
		return ErrNotOwner
	}
	a.approved = operator
	return nil
}

// SetRoyalty configures the royalty receiver and rate of an asset.
func (r *Registry) SetRoyalty(contract common.Address, assetID uint64, receiver common.Address, bps uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bps > market.BpsDenominator {
		return ErrRoyaltyTooHigh
	}
	a, ok := r.assets[contract][assetID]
	if !ok {
		return ErrUnknownAsset
	}
	a.royaltyReceiver = receiver
	a.royaltyBps = bps
	return nil
}

// OwnerOf returns the current owner of an asset.
func (r *Registry) OwnerOf(contract common.Address, assetID uint64) (common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[contract][assetID]
	if !ok {
		return common.Address{}, ErrUnknownAsset
	}
	return a.owner, nil
}

// IsApproved reports whether the operator holds transfer rights.
func (r *Registry) IsApproved(contract common.Address, assetID uint64, operator common.Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[contract][assetID]
	if !ok {
		return false, ErrUnknownAsset
	}
	return a.approved == operator, nil
}

// TokensOf enumerates the asset ids owned by an address under one
// contract, in ascending order of discovery.
func (r *Registry) TokensOf(contract, owner common.Address) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint64
	for id, a := range r.assets[contract] {
		if a.owner == owner {
			out = append(out, id)
		}
	}
	return out
}

// transferFrom moves ownership. Operator must be the owner or the
// approved operator; approval is cleared on transfer.
func (r *Registry) transferFrom(operator, contract, from, to common.Address, assetID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[contract][assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if a.owner != from {
		return ErrNotOwner
	}
	if operator != a.owner && operator != a.approved {
		return ErrNotApproved
	}
	a.owner = to
	a.approved = common.Address{}
	return nil
}

// royaltyInfo returns the receiver and amount owed at salePrice.
func (r *Registry) royaltyInfo(contract common.Address, assetID uint64, salePrice uint64) (common.Address, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.assets[contract][assetID]
	if !ok {
		return common.Address{}, 0, ErrUnknownAsset
	}
	if a.royaltyReceiver == (common.Address{}) || a.royaltyBps == 0 {
		return common.Address{}, 0, nil
	}
	return a.royaltyReceiver, salePrice * a.royaltyBps / market.BpsDenominator, nil
}

var _ market.AssetRegistry = (*BoundRegistry)(nil)

// BoundRegistry is a Registry viewed from a single operator account,
// matching the engine's AssetRegistry adapter.
type BoundRegistry struct {
	registry *Registry
	operator common.Address
}

// Bind returns the registry bound to an operator.
func (r *Registry) Bind(operator common.Address) *BoundRegistry {
	return &BoundRegistry{registry: r, operator: operator}
}

func (b *BoundRegistry) OwnerOf(contract common.Address, assetID uint64) (common.Address, error) {
	return b.registry.OwnerOf(contract, assetID)
}

func (b *BoundRegistry) IsApproved(contract common.Address, assetID uint64, operator common.Address) (bool, error) {
	return b.registry.IsApproved(contract, assetID, operator)
}

func (b *BoundRegistry) TransferFrom(contract common.Address, from, to common.Address, assetID uint64) error {
	return b.registry.transferFrom(b.operator, contract, from, to, assetID)
}

func (b *BoundRegistry) RoyaltyInfo(contract common.Address, assetID uint64, salePrice uint64) (common.Address, uint64, error) {
	return b.registry.royaltyInfo(contract, assetID, salePrice)
}
