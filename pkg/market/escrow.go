// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// EscrowStore holds per-address withdrawable credit in the payment
// unit: outbid refunds and deferred settlement proceeds. Payouts are
// pull-based so a recipient that rejects transfers can never wedge a
// settlement. Not safe for concurrent use; the Marketplace serializes
// access.
type EscrowStore struct {
	balances map[common.Address]uint64
}

func newEscrowStore() *EscrowStore {
	return &EscrowStore{balances: make(map[common.Address]uint64)}
}

// credit adds amount to the address's withdrawable balance.
func (e *EscrowStore) credit(addr common.Address, amount uint64) {
	if amount == 0 {
		return
	}
	e.balances[addr] += amount
}

// balanceOf returns the withdrawable credit of an address.
func (e *EscrowStore) balanceOf(addr common.Address) uint64 {
	return e.balances[addr]
}

// withdraw zeroes the address's balance and pushes it out through the
// ledger. A zero balance is an idempotent no-op. If the ledger rejects
// the transfer the balance is restored and nothing is observable.
func (e *EscrowStore) withdraw(addr common.Address, ledger ValueLedger) (uint64, error) {
	amount := e.balances[addr]
	if amount == 0 {
		return 0, nil
	}
	delete(e.balances, addr)
	if err := ledger.Transfer(addr, amount); err != nil {
		e.balances[addr] = amount
		return 0, fmt.Errorf("%w: %v", ErrTransferFailure, err)
	}
	return amount, nil
}
