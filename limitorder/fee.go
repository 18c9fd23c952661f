// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import "github.com/holiman/uint256"

// SplitFee computes the platform fee and net payout for an amount at a fee
// rate in basis points: fee = floor(amountIn * feeBps / 10000),
// send = amountIn - fee. The multiply is checked against the 64-bit range
// before the division, matching the escrowed amount's width; overflow or an
// underflowing subtraction fail with ErrOverflow.
func SplitFee(amountIn uint64, feeBps uint16) (fee, send uint64, err error) {
	product := new(uint256.Int).Mul(
		uint256.NewInt(amountIn),
		uint256.NewInt(uint64(feeBps)),
	)
	if !product.IsUint64() {
		return 0, 0, ErrOverflow
	}

	fee = product.Uint64() / FeeDenominator
	if fee > amountIn {
		return 0, 0, ErrOverflow
	}
	return fee, amountIn - fee, nil
}
