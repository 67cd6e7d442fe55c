// Copyright (C) 2025, SAM Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package token

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrZeroAmount            = errors.New("amount must be positive")
)

// Ledger is an in-process fungible balance ledger with ERC20-style
// transfer/approve semantics. It backs tests and the dev server;
// production deployments substitute a real value ledger adapter.
type Ledger struct {
	mu         sync.Mutex
	balances   map[common.Address]uint64
	allowances map[common.Address]map[common.Address]uint64
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances:   make(map[common.Address]uint64),
		allowances: make(map[common.Address]map[common.Address]uint64),
	}
}

// Mint credits freshly created units to an address.
func (l *Ledger) Mint(to common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[to] += amount
}

// BalanceOf returns an address's balance.
func (l *Ledger) BalanceOf(addr common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// Approve sets the spender's allowance over the owner's balance.
func (l *Ledger) Approve(owner, spender common.Address, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	allow, ok := l.allowances[owner]
	if !ok {
		allow = make(map[common.Address]uint64)
		l.allowances[owner] = allow
	}
	allow[spender] = amount
}

// Allowance returns the spender's remaining allowance over owner.
func (l *Ledger) Allowance(owner, spender common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowances[owner][spender]
}

// transfer moves amount between balances. Caller holds the lock.
func (l *Ledger) transfer(from, to common.Address, amount uint64) error {
	if amount == 0 {
		return ErrZeroAmount
	}
	if l.balances[from] < amount {
		return ErrInsufficientBalance
	}
	l.balances[from] -= amount
	l.balances[to] += amount
	return nil
}

// Transfer moves amount out of the sender's own balance.
func (l *Ledger) Transfer(from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

// TransferFrom moves amount from `from` to `to` on behalf of spender,
// consuming allowance.
func (l *Ledger) TransferFrom(spender, from, to common.Address, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount == 0 {
		return ErrZeroAmount
	}
	if l.allowances[from][spender] < amount {
		return ErrInsufficientAllowance
	}
	if err := l.transfer(from, to, amount); err != nil {
		return err
	}
	l.allowances[from][spender] -= amount
	return nil
}

// BoundLedger is a Ledger viewed from a single account, matching the
// engine's ValueLedger adapter: TransferFrom spends the account's
// allowance, Transfer spends the account's own balance.
type BoundLedger struct {
	ledger  *Ledger
	account common.Address
}

// Bind returns the ledger bound to account.
func (l *Ledger) Bind(account common.Address) *BoundLedger {
	return &BoundLedger{ledger: l, account: account}
}

func (b *BoundLedger) TransferFrom(from, to common.Address, amount uint64) error {
	return b.ledger.TransferFrom(b.account, from, to, amount)
}

func (b *BoundLedger) Transfer(to common.Address, amount uint64) error {
	return b.ledger.Transfer(b.account, to, amount)
}
