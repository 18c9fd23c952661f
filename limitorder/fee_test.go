// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"errors"
	"math"
	"testing"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		name     string
		amountIn uint64
		feeBps   uint16
		fee      uint64
		send     uint64
		err      error
	}{
		{name: "zero fee", amountIn: 1000, feeBps: 0, fee: 0, send: 1000},
		{name: "whole bps", amountIn: 10_000, feeBps: 250, fee: 250, send: 9750},
		{name: "floors down", amountIn: 999, feeBps: 250, fee: 24, send: 975},
		{name: "dust below one unit", amountIn: 3, feeBps: 250, fee: 0, send: 3},
		{name: "max rate", amountIn: 10_000, feeBps: 9999, fee: 9999, send: 1},
		{name: "large amount", amountIn: 1 << 50, feeBps: 30, fee: (1 << 50) * 30 / 10_000, send: 1<<50 - (1<<50)*30/10_000},
		{name: "product overflows u64", amountIn: math.MaxUint64, feeBps: 2, err: ErrOverflow},
		{name: "large amount at high rate overflows", amountIn: 1 << 60, feeBps: 30, err: ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fee, send, err := SplitFee(tt.amountIn, tt.feeBps)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitFee: %v", err)
			}
			if fee != tt.fee || send != tt.send {
				t.Fatalf("SplitFee = (%d, %d), want (%d, %d)", fee, send, tt.fee, tt.send)
			}
		})
	}
}

// Value is conserved for every representable split: fee + send == amount_in.
func TestSplitFeeConservesValue(t *testing.T) {
	amounts := []uint64{1, 2, 3, 9, 10, 99, 100, 10_001, 123_456_789, 1 << 40}
	rates := []uint16{0, 1, 13, 250, 5000, 9999}

	for _, amount := range amounts {
		for _, rate := range rates {
			fee, send, err := SplitFee(amount, rate)
			if err != nil {
				t.Fatalf("SplitFee(%d, %d): %v", amount, rate, err)
			}
			if fee+send != amount {
				t.Fatalf("SplitFee(%d, %d) = (%d, %d), sum %d", amount, rate, fee, send, fee+send)
			}
			if fee > amount {
				t.Fatalf("fee %d exceeds amount %d", fee, amount)
			}
		}
	}
}

func BenchmarkSplitFee(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, _, err := SplitFee(1_234_567_890, 250); err != nil {
			b.Fatal(err)
		}
	}
}
