// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/luxfi/limitorder/ledger"
)

// AssetCustody moves the locked value between a holder and the order's
// derived custody address. Two implementations cover the native balance
// unit and external fungible tokens; selection inspects from_asset.
type AssetCustody interface {
	// Pull locks the order's amount from the sender into custody.
	Pull(order *LimitOrder) error

	// Refund returns the full locked amount to the receiver and releases
	// any asset-specific custody account to the receiver.
	Refund(order *LimitOrder, receiver common.Hash) error

	// Payout pays send to target and fee to treasury in the locked asset,
	// then releases the asset-specific custody account, returning its
	// storage allowance to rentTo.
	Payout(order *LimitOrder, target, treasury common.Hash, send, fee uint64, rentTo common.Hash) error
}

// custodyFor selects the custody path for an asset.
func custodyFor(l ledger.Ledger, asset common.Hash) AssetCustody {
	if asset == NativeAsset {
		return nativeCustody{l}
	}
	return tokenCustody{l: l, asset: asset}
}

type nativeCustody struct {
	l ledger.Ledger
}

func (c nativeCustody) Pull(order *LimitOrder) error {
	addr := order.Seeds().Address()
	return mapLedgerErr(c.l.Transfer(order.Sender, addr, uint256.NewInt(order.AmountIn)))
}

func (c nativeCustody) Refund(order *LimitOrder, receiver common.Hash) error {
	return mapLedgerErr(c.l.TransferSeeded(order.Seeds(), receiver, uint256.NewInt(order.AmountIn)))
}

func (c nativeCustody) Payout(order *LimitOrder, target, treasury common.Hash, send, fee uint64, rentTo common.Hash) error {
	seeds := order.Seeds()
	if err := c.l.TransferSeeded(seeds, target, uint256.NewInt(send)); err != nil {
		return mapLedgerErr(err)
	}
	return mapLedgerErr(c.l.TransferSeeded(seeds, treasury, uint256.NewInt(fee)))
}

type tokenCustody struct {
	l     ledger.Ledger
	asset common.Hash
}

func (c tokenCustody) Pull(order *LimitOrder) error {
	addr := order.Seeds().Address()
	if err := c.l.CreateTokenAccount(addr, c.asset, order.Sender); err != nil {
		return mapLedgerErr(err)
	}
	return mapLedgerErr(c.l.TokenTransfer(c.asset, order.Sender, addr, uint256.NewInt(order.AmountIn)))
}

func (c tokenCustody) Refund(order *LimitOrder, receiver common.Hash) error {
	seeds := order.Seeds()
	if err := c.l.TokenTransferSeeded(c.asset, seeds, receiver, uint256.NewInt(order.AmountIn)); err != nil {
		return mapLedgerErr(err)
	}
	return mapLedgerErr(c.l.CloseTokenAccount(c.asset, seeds, receiver))
}

func (c tokenCustody) Payout(order *LimitOrder, target, treasury common.Hash, send, fee uint64, rentTo common.Hash) error {
	seeds := order.Seeds()
	if err := c.l.TokenTransferSeeded(c.asset, seeds, target, uint256.NewInt(send)); err != nil {
		return mapLedgerErr(err)
	}
	if err := c.l.TokenTransferSeeded(c.asset, seeds, treasury, uint256.NewInt(fee)); err != nil {
		return mapLedgerErr(err)
	}
	return mapLedgerErr(c.l.CloseTokenAccount(c.asset, seeds, rentTo))
}

// mapLedgerErr translates collaborator failures into the escrow taxonomy.
func mapLedgerErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	case errors.Is(err, ledger.ErrTokenAccountNotFound),
		errors.Is(err, ledger.ErrTokenAccountExists):
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	default:
		return err
	}
}
