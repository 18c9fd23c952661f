// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger abstracts the chain's value-movement primitives: native
// balances, fungible token accounts, and rent-bearing record accounts.
// Every operation is atomic; a failed call leaves the ledger untouched.
package ledger

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

var (
	ErrAccountExists        = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrTokenAccountExists   = errors.New("token account already exists")
	ErrTokenAccountNotFound = errors.New("token account not found")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrBadSeeds             = errors.New("seeds do not derive account address")
	ErrNonZeroTokenBalance  = errors.New("token account balance not zero")
)

// Seeds is the derivation material for a program-owned account. A derived
// account has no private key; the ledger authorizes outbound transfers only
// for callers presenting Seeds that hash to the account's address.
type Seeds struct {
	Tag   []byte
	Parts [][]byte
	Bump  byte
}

// Address returns the deterministic account address for the seeds.
func (s Seeds) Address() common.Hash {
	h := blake3.New()
	h.Write(s.Tag)
	for _, p := range s.Parts {
		h.Write(p)
	}
	h.Write([]byte{s.Bump})

	var addr common.Hash
	copy(addr[:], h.Sum(nil))
	return addr
}

// Ledger moves value between accounts. Implementations guarantee that each
// call either fully applies or fully fails, and that two calls touching the
// same account never interleave.
type Ledger interface {
	// Native balance unit.
	Balance(acct common.Hash) *uint256.Int
	Transfer(from, to common.Hash, amount *uint256.Int) error
	TransferSeeded(seeds Seeds, to common.Hash, amount *uint256.Int) error

	// Record accounts: rent-bearing storage slots. Creation charges the
	// payer the rent reserve; closure sweeps rent and any residual native
	// balance to rentTo.
	RentReserve() *uint256.Int
	AccountExists(addr common.Hash) bool
	CreateAccount(addr, payer common.Hash) error
	CloseAccount(seeds Seeds, rentTo common.Hash) error

	// Fungible token accounts, keyed (owner, asset).
	HasTokenAccount(owner, asset common.Hash) bool
	TokenBalance(owner, asset common.Hash) *uint256.Int
	CreateTokenAccount(owner, asset, payer common.Hash) error
	TokenTransfer(asset, from, to common.Hash, amount *uint256.Int) error
	TokenTransferSeeded(asset common.Hash, seeds Seeds, to common.Hash, amount *uint256.Int) error
	CloseTokenAccount(asset common.Hash, seeds Seeds, rentTo common.Hash) error
}
