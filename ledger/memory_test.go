// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

func hash(b byte) common.Hash {
	return common.Hash{31: b}
}

func TestSeedsAddressDeterministic(t *testing.T) {
	seeds := Seeds{
		Tag:   []byte("escrow"),
		Parts: [][]byte{hash(1).Bytes(), {0xaa, 0xbb}},
		Bump:  7,
	}

	if seeds.Address() != seeds.Address() {
		t.Fatal("same seeds derived different addresses")
	}

	other := seeds
	other.Bump = 8
	if seeds.Address() == other.Address() {
		t.Fatal("bump change did not change the address")
	}

	other = seeds
	other.Parts = [][]byte{hash(2).Bytes(), {0xaa, 0xbb}}
	if seeds.Address() == other.Address() {
		t.Fatal("part change did not change the address")
	}
}

func TestNativeTransfer(t *testing.T) {
	l := NewMemoryLedger()
	a, b := hash(1), hash(2)
	l.Mint(a, 100)

	if err := l.Transfer(a, b, uint256.NewInt(60)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := l.Balance(a).Uint64(); got != 40 {
		t.Fatalf("sender balance = %d, want 40", got)
	}
	if got := l.Balance(b).Uint64(); got != 60 {
		t.Fatalf("receiver balance = %d, want 60", got)
	}

	if err := l.Transfer(a, b, uint256.NewInt(41)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraft error = %v, want ErrInsufficientBalance", err)
	}
	if got := l.Balance(a).Uint64(); got != 40 {
		t.Fatalf("failed transfer moved funds, balance = %d", got)
	}
}

func TestSeededTransferAuthority(t *testing.T) {
	l := NewMemoryLedger()
	seeds := Seeds{Tag: []byte("vault"), Parts: [][]byte{hash(9).Bytes()}, Bump: 1}
	addr := seeds.Address()
	out := hash(3)

	l.Mint(addr, 50)
	if err := l.TransferSeeded(seeds, out, uint256.NewInt(50)); err != nil {
		t.Fatalf("seeded transfer: %v", err)
	}
	if got := l.Balance(out).Uint64(); got != 50 {
		t.Fatalf("receiver balance = %d, want 50", got)
	}

	// Seeds deriving an unfunded address move nothing.
	wrong := Seeds{Tag: []byte("vault"), Parts: [][]byte{hash(8).Bytes()}, Bump: 1}
	if err := l.TransferSeeded(wrong, out, uint256.NewInt(1)); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("wrong seeds error = %v, want ErrAccountNotFound", err)
	}
}

func TestAccountRentLifecycle(t *testing.T) {
	l := NewMemoryLedger(WithRentReserve(10))
	payer, receiver := hash(1), hash(2)
	seeds := Seeds{Tag: []byte("rec"), Parts: [][]byte{hash(5).Bytes()}, Bump: 0xff}
	addr := seeds.Address()

	l.Mint(payer, 15)
	if err := l.CreateAccount(addr, payer); err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := l.Balance(payer).Uint64(); got != 5 {
		t.Fatalf("payer balance after rent = %d, want 5", got)
	}
	if !l.AccountExists(addr) {
		t.Fatal("account missing after create")
	}
	if err := l.CreateAccount(addr, payer); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("double create error = %v, want ErrAccountExists", err)
	}

	// Residual balance at the account sweeps out with the rent.
	l.Mint(addr, 3)
	if err := l.CloseAccount(seeds, receiver); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := l.Balance(receiver).Uint64(); got != 13 {
		t.Fatalf("swept balance = %d, want 13", got)
	}
	if l.AccountExists(addr) {
		t.Fatal("account still exists after close")
	}
}

func TestCreateAccountRentUnaffordable(t *testing.T) {
	l := NewMemoryLedger(WithRentReserve(10))
	payer := hash(1)
	l.Mint(payer, 9)

	err := l.CreateAccount(hash(7), payer)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("error = %v, want ErrInsufficientBalance", err)
	}
	if l.AccountExists(hash(7)) {
		t.Fatal("account created despite unaffordable rent")
	}
}

func TestTokenAccountLifecycle(t *testing.T) {
	l := NewMemoryLedger(WithRentReserve(4))
	asset := hash(0xAA)
	payer, owner, rentTo := hash(1), hash(2), hash(3)
	l.Mint(payer, 4)

	if l.HasTokenAccount(owner, asset) {
		t.Fatal("token account exists before create")
	}
	if err := l.CreateTokenAccount(owner, asset, payer); err != nil {
		t.Fatalf("create token account: %v", err)
	}
	if err := l.CreateTokenAccount(owner, asset, payer); !errors.Is(err, ErrTokenAccountExists) {
		t.Fatalf("double create error = %v, want ErrTokenAccountExists", err)
	}

	l.MintToken(owner, asset, 25)
	if got := l.TokenBalance(owner, asset).Uint64(); got != 25 {
		t.Fatalf("token balance = %d, want 25", got)
	}

	// Non-empty seed-derived accounts refuse to close.
	seeds := Seeds{Tag: []byte("vault"), Parts: [][]byte{hash(4).Bytes()}, Bump: 1}
	l.MintToken(seeds.Address(), asset, 1)
	if err := l.CloseTokenAccount(asset, seeds, rentTo); !errors.Is(err, ErrNonZeroTokenBalance) {
		t.Fatalf("close non-empty error = %v, want ErrNonZeroTokenBalance", err)
	}
}

func TestSeededTokenTransferAndClose(t *testing.T) {
	l := NewMemoryLedger(WithRentReserve(4))
	asset := hash(0xAA)
	payer, receiver := hash(1), hash(2)
	seeds := Seeds{Tag: []byte("vault"), Parts: [][]byte{hash(6).Bytes()}, Bump: 2}
	custody := seeds.Address()

	l.Mint(payer, 8)
	if err := l.CreateTokenAccount(custody, asset, payer); err != nil {
		t.Fatalf("create custody token account: %v", err)
	}
	if err := l.CreateTokenAccount(receiver, asset, payer); err != nil {
		t.Fatalf("create receiver token account: %v", err)
	}
	l.MintToken(custody, asset, 30)

	if err := l.TokenTransferSeeded(asset, seeds, receiver, uint256.NewInt(30)); err != nil {
		t.Fatalf("seeded token transfer: %v", err)
	}
	if got := l.TokenBalance(receiver, asset).Uint64(); got != 30 {
		t.Fatalf("receiver token balance = %d, want 30", got)
	}

	if err := l.CloseTokenAccount(asset, seeds, receiver); err != nil {
		t.Fatalf("close token account: %v", err)
	}
	if l.HasTokenAccount(custody, asset) {
		t.Fatal("custody token account still exists after close")
	}
	if got := l.Balance(receiver).Uint64(); got != 4 {
		t.Fatalf("rent sweep = %d, want 4", got)
	}
}

func TestTokenTransferRequiresBothAccounts(t *testing.T) {
	l := NewMemoryLedger()
	asset := hash(0xAA)
	a, b := hash(1), hash(2)
	l.MintToken(a, asset, 10)

	err := l.TokenTransfer(asset, a, b, uint256.NewInt(5))
	if !errors.Is(err, ErrTokenAccountNotFound) {
		t.Fatalf("error = %v, want ErrTokenAccountNotFound", err)
	}
	if got := l.TokenBalance(a, asset).Uint64(); got != 10 {
		t.Fatalf("failed transfer moved tokens, balance = %d", got)
	}
}
