// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package limitorder implements a cross-chain limit-order escrow: a sender
// locks an asset on the local chain against an order, the configured owner
// executes it after off-chain confirmation of the destination leg (paying
// the target minus a platform fee), or the order is cancelled and the funds
// return to the sender. Orders are addressed deterministically by
// (sender, expiry); custody lives at the derived address and is released
// only through the matching derivation seeds.
package limitorder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/mr-tron/base58"
	"github.com/zeebo/blake3"

	"github.com/luxfi/limitorder/ledger"
)

const (
	// LocalChainID is the fixed chain identifier orders must originate from.
	LocalChainID uint64 = 10002

	// FeeDenominator converts basis points to a fraction of amount_in.
	FeeDenominator = 10000

	// orderSeedTag is the domain tag for order custody derivation.
	orderSeedTag = "limit_order"

	// custodyBump is the derivation salt. A single fixed bump keeps the
	// custody address a pure function of (sender, expiry), so reusing the
	// pair collides at creation.
	custodyBump uint8 = 0xff
)

// NativeAsset is the sentinel identifying the chain's own balance unit,
// rendered in the source chain's base58 key format.
var NativeAsset = mustBase58Hash("So11111111111111111111111111111111111111112")

var (
	ErrInvalidConfiguration  = errors.New("fee rate out of bounds")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrExpiryEarlier         = errors.New("order expired")
	ErrOverflow              = errors.New("arithmetic overflow")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrInvalidRefundReceiver = errors.New("invalid refund receiver")

	ErrAlreadyInitialized = errors.New("config already initialized")
	ErrNotInitialized     = errors.New("config not initialized")
	ErrOrderExists        = errors.New("order already exists for sender and expiry")
	ErrOrderNotFound      = errors.New("order not found")
	ErrPaused             = errors.New("escrow paused")
)

// GlobalConfig is the singleton administrative record.
type GlobalConfig struct {
	Owner    common.Hash // Administrative identity and sole executor
	FeeBps   uint16      // Platform fee in basis points, [0, 10000)
	Treasury common.Hash // Receiver of platform fees
	Paused   bool        // Stored but not consulted; see PauseGuard
	Reserved [128]byte   // Forward-compatible padding, never interpreted
}

// LimitOrder is one escrowed order. Immutable once created; destroyed on
// cancellation or execution.
type LimitOrder struct {
	FromAsset   common.Hash // Locked asset; NativeAsset for the native unit
	FromChainID uint64      // Must equal LocalChainID
	AmountIn    uint64      // Locked amount, > 0
	ToChainID   uint64      // Destination chain, non-zero
	ToAsset     common.Hash // Destination asset, opaque, non-zero
	Recipient   common.Hash // Destination recipient, opaque, non-zero
	Sender      common.Hash // Opener; sole legitimate refund receiver
	Expiry      int64       // Unix seconds; gates execution, not cancellation
	AmountOut   common.Hash // Advisory minimum output on the destination chain
	Bump        uint8       // Custody derivation salt
}

// OpenOrderParams carries the caller-supplied fields of an open request.
type OpenOrderParams struct {
	FromAsset   common.Hash
	FromChainID uint64
	AmountIn    uint64
	ToChainID   uint64
	ToAsset     common.Hash
	Recipient   common.Hash
	Expiry      int64
	AmountOut   common.Hash
}

// IsNative reports whether the order locks the native balance unit.
func (o *LimitOrder) IsNative() bool {
	return o.FromAsset == NativeAsset
}

// Seeds returns the custody derivation material for the order.
func (o *LimitOrder) Seeds() ledger.Seeds {
	return OrderSeeds(o.Sender, o.Expiry, o.Bump)
}

// OrderSeeds builds the derivation seeds for an order custody account.
func OrderSeeds(sender common.Hash, expiry int64, bump uint8) ledger.Seeds {
	var exp [8]byte
	binary.LittleEndian.PutUint64(exp[:], uint64(expiry))
	return ledger.Seeds{
		Tag:   []byte(orderSeedTag),
		Parts: [][]byte{sender.Bytes(), exp[:]},
		Bump:  bump,
	}
}

// DeriveOrderAddress returns the deterministic custody address and bump for
// a (sender, expiry) pair.
func DeriveOrderAddress(sender common.Hash, expiry int64) (common.Hash, uint8) {
	return OrderSeeds(sender, expiry, custodyBump).Address(), custodyBump
}

// Record sizes including the 8-byte discriminator prefix.
const (
	ConfigRecordSize = 8 + 32 + 2 + 32 + 1 + 128
	OrderRecordSize  = 8 + 32 + 8 + 8 + 8 + 32 + 32 + 32 + 8 + 32 + 1
)

var (
	configDiscriminator = recordDiscriminator("GlobalConfig")
	orderDiscriminator  = recordDiscriminator("LimitOrder")
)

// recordDiscriminator derives the 8-byte type tag prefixed to every
// persisted record, so record kinds sharing a store stay distinguishable.
func recordDiscriminator(name string) [8]byte {
	h := blake3.New()
	h.Write([]byte("account:" + name))

	var disc [8]byte
	copy(disc[:], h.Sum(nil))
	return disc
}

// ToBytes serializes the config record. Layout (little-endian):
// discriminator(8) owner(32) fee_bps(2) treasury(32) paused(1) reserved(128).
func (c *GlobalConfig) ToBytes() []byte {
	data := make([]byte, ConfigRecordSize)
	copy(data[0:8], configDiscriminator[:])
	copy(data[8:40], c.Owner.Bytes())
	binary.LittleEndian.PutUint16(data[40:42], c.FeeBps)
	copy(data[42:74], c.Treasury.Bytes())
	if c.Paused {
		data[74] = 1
	}
	copy(data[75:203], c.Reserved[:])
	return data
}

// GlobalConfigFromBytes deserializes a config record.
func GlobalConfigFromBytes(data []byte) (*GlobalConfig, error) {
	if len(data) != ConfigRecordSize {
		return nil, fmt.Errorf("%w: config record is %d bytes, want %d", ErrInvalidParameter, len(data), ConfigRecordSize)
	}
	if [8]byte(data[0:8]) != configDiscriminator {
		return nil, fmt.Errorf("%w: config record discriminator mismatch", ErrInvalidParameter)
	}

	c := &GlobalConfig{
		Owner:    common.BytesToHash(data[8:40]),
		FeeBps:   binary.LittleEndian.Uint16(data[40:42]),
		Treasury: common.BytesToHash(data[42:74]),
		Paused:   data[74] == 1,
	}
	copy(c.Reserved[:], data[75:203])
	return c, nil
}

// ToBytes serializes the order record. Layout (little-endian):
// discriminator(8) from_asset(32) from_chain_id(8) amount_in(8)
// to_chain_id(8) to_asset(32) recipient(32) sender(32) expiry(8)
// amount_out(32) bump(1).
func (o *LimitOrder) ToBytes() []byte {
	data := make([]byte, OrderRecordSize)
	copy(data[0:8], orderDiscriminator[:])
	copy(data[8:40], o.FromAsset.Bytes())
	binary.LittleEndian.PutUint64(data[40:48], o.FromChainID)
	binary.LittleEndian.PutUint64(data[48:56], o.AmountIn)
	binary.LittleEndian.PutUint64(data[56:64], o.ToChainID)
	copy(data[64:96], o.ToAsset.Bytes())
	copy(data[96:128], o.Recipient.Bytes())
	copy(data[128:160], o.Sender.Bytes())
	binary.LittleEndian.PutUint64(data[160:168], uint64(o.Expiry))
	copy(data[168:200], o.AmountOut.Bytes())
	data[200] = o.Bump
	return data
}

// LimitOrderFromBytes deserializes an order record.
func LimitOrderFromBytes(data []byte) (*LimitOrder, error) {
	if len(data) != OrderRecordSize {
		return nil, fmt.Errorf("%w: order record is %d bytes, want %d", ErrInvalidParameter, len(data), OrderRecordSize)
	}
	if [8]byte(data[0:8]) != orderDiscriminator {
		return nil, fmt.Errorf("%w: order record discriminator mismatch", ErrInvalidParameter)
	}

	return &LimitOrder{
		FromAsset:   common.BytesToHash(data[8:40]),
		FromChainID: binary.LittleEndian.Uint64(data[40:48]),
		AmountIn:    binary.LittleEndian.Uint64(data[48:56]),
		ToChainID:   binary.LittleEndian.Uint64(data[56:64]),
		ToAsset:     common.BytesToHash(data[64:96]),
		Recipient:   common.BytesToHash(data[96:128]),
		Sender:      common.BytesToHash(data[128:160]),
		Expiry:      int64(binary.LittleEndian.Uint64(data[160:168])),
		AmountOut:   common.BytesToHash(data[168:200]),
		Bump:        data[200],
	}, nil
}

func mustBase58Hash(s string) common.Hash {
	raw, err := base58.Decode(s)
	if err != nil {
		panic(fmt.Sprintf("bad base58 constant %q: %v", s, err))
	}
	if len(raw) != common.HashLength {
		panic(fmt.Sprintf("base58 constant %q is %d bytes, want %d", s, len(raw), common.HashLength))
	}
	return common.BytesToHash(raw)
}
