// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"sync"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

type tokenKey struct {
	Owner common.Hash
	Asset common.Hash
}

// MemoryLedger is an in-process Ledger for tests and single-node deployments.
// Native balances exist implicitly; record and token accounts must be created
// before use and carry a rent reserve charged to their payer.
type MemoryLedger struct {
	balances    map[common.Hash]*uint256.Int
	accountRent map[common.Hash]*uint256.Int
	tokens      map[tokenKey]*uint256.Int
	tokenRent   map[tokenKey]*uint256.Int
	rentReserve *uint256.Int

	mu sync.RWMutex
}

var _ Ledger = (*MemoryLedger)(nil)

// Option configures a MemoryLedger.
type Option func(*MemoryLedger)

// WithRentReserve sets the rent charged per created account. Zero by default
// so balance arithmetic in callers stays exact unless rent is under test.
func WithRentReserve(reserve uint64) Option {
	return func(l *MemoryLedger) {
		l.rentReserve = uint256.NewInt(reserve)
	}
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger(opts ...Option) *MemoryLedger {
	l := &MemoryLedger{
		balances:    make(map[common.Hash]*uint256.Int),
		accountRent: make(map[common.Hash]*uint256.Int),
		tokens:      make(map[tokenKey]*uint256.Int),
		tokenRent:   make(map[tokenKey]*uint256.Int),
		rentReserve: uint256.NewInt(0),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mint credits native balance out of thin air. Test and genesis setup only.
func (l *MemoryLedger) Mint(acct common.Hash, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(acct, uint256.NewInt(amount))
}

// MintToken credits a token balance, creating the token account if needed.
// Test and genesis setup only.
func (l *MemoryLedger) MintToken(owner, asset common.Hash, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := tokenKey{Owner: owner, Asset: asset}
	bal := l.tokens[key]
	if bal == nil {
		bal = uint256.NewInt(0)
		l.tokens[key] = bal
		l.tokenRent[key] = uint256.NewInt(0)
	}
	bal.Add(bal, uint256.NewInt(amount))
}

func (l *MemoryLedger) Balance(acct common.Hash) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal := l.balances[acct]
	if bal == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(bal)
}

func (l *MemoryLedger) Transfer(from, to common.Hash, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transfer(from, to, amount)
}

func (l *MemoryLedger) TransferSeeded(seeds Seeds, to common.Hash, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := seeds.Address()
	if l.balances[from] == nil {
		return ErrAccountNotFound
	}
	return l.transfer(from, to, amount)
}

func (l *MemoryLedger) RentReserve() *uint256.Int {
	return new(uint256.Int).Set(l.rentReserve)
}

func (l *MemoryLedger) AccountExists(addr common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.accountRent[addr]
	return ok
}

func (l *MemoryLedger) CreateAccount(addr, payer common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accountRent[addr]; ok {
		return ErrAccountExists
	}
	if err := l.debit(payer, l.rentReserve); err != nil {
		return err
	}
	l.accountRent[addr] = new(uint256.Int).Set(l.rentReserve)
	return nil
}

func (l *MemoryLedger) CloseAccount(seeds Seeds, rentTo common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr := seeds.Address()
	rent, ok := l.accountRent[addr]
	if !ok {
		return ErrAccountNotFound
	}

	// Sweep rent plus any residual native balance to the receiver.
	l.credit(rentTo, rent)
	if bal := l.balances[addr]; bal != nil {
		l.credit(rentTo, bal)
		delete(l.balances, addr)
	}
	delete(l.accountRent, addr)
	return nil
}

func (l *MemoryLedger) HasTokenAccount(owner, asset common.Hash) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.tokens[tokenKey{Owner: owner, Asset: asset}]
	return ok
}

func (l *MemoryLedger) TokenBalance(owner, asset common.Hash) *uint256.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	bal := l.tokens[tokenKey{Owner: owner, Asset: asset}]
	if bal == nil {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(bal)
}

func (l *MemoryLedger) CreateTokenAccount(owner, asset, payer common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := tokenKey{Owner: owner, Asset: asset}
	if _, ok := l.tokens[key]; ok {
		return ErrTokenAccountExists
	}
	if err := l.debit(payer, l.rentReserve); err != nil {
		return err
	}
	l.tokens[key] = uint256.NewInt(0)
	l.tokenRent[key] = new(uint256.Int).Set(l.rentReserve)
	return nil
}

func (l *MemoryLedger) TokenTransfer(asset, from, to common.Hash, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tokenTransfer(asset, from, to, amount)
}

func (l *MemoryLedger) TokenTransferSeeded(asset common.Hash, seeds Seeds, to common.Hash, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := seeds.Address()
	if _, ok := l.tokens[tokenKey{Owner: from, Asset: asset}]; !ok {
		return ErrBadSeeds
	}
	return l.tokenTransfer(asset, from, to, amount)
}

func (l *MemoryLedger) CloseTokenAccount(asset common.Hash, seeds Seeds, rentTo common.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := tokenKey{Owner: seeds.Address(), Asset: asset}
	bal, ok := l.tokens[key]
	if !ok {
		return ErrTokenAccountNotFound
	}
	if !bal.IsZero() {
		return ErrNonZeroTokenBalance
	}

	l.credit(rentTo, l.tokenRent[key])
	delete(l.tokens, key)
	delete(l.tokenRent, key)
	return nil
}

// Callers hold l.mu.

func (l *MemoryLedger) transfer(from, to common.Hash, amount *uint256.Int) error {
	if err := l.debit(from, amount); err != nil {
		return err
	}
	l.credit(to, amount)
	return nil
}

func (l *MemoryLedger) tokenTransfer(asset, from, to common.Hash, amount *uint256.Int) error {
	fromKey := tokenKey{Owner: from, Asset: asset}
	toKey := tokenKey{Owner: to, Asset: asset}

	fromBal, ok := l.tokens[fromKey]
	if !ok {
		return ErrTokenAccountNotFound
	}
	toBal, ok := l.tokens[toKey]
	if !ok {
		return ErrTokenAccountNotFound
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}

	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	return nil
}

func (l *MemoryLedger) debit(acct common.Hash, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	bal := l.balances[acct]
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	return nil
}

func (l *MemoryLedger) credit(acct common.Hash, amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	bal := l.balances[acct]
	if bal == nil {
		bal = uint256.NewInt(0)
		l.balances[acct] = bal
	}
	bal.Add(bal, amount)
}
