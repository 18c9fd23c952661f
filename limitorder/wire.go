// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
)

// Operation bytes for the wire entry point.
const (
	OpByteInitialize   uint8 = 0x01
	OpByteUpdateConfig uint8 = 0x02
	OpByteOpenOrder    uint8 = 0x03
	OpByteCancelOrder  uint8 = 0x04
	OpByteExecuteOrder uint8 = 0x05
	OpByteGetOrder     uint8 = 0x06
	OpByteGetConfig    uint8 = 0x07
)

// Gas costs. Mutations pay for the record writes and value movement they
// perform; reads pay a flat lookup cost.
const (
	InitializeGas   uint64 = 20_000
	UpdateConfigGas uint64 = 20_000
	OpenOrderGas    uint64 = 75_000
	CancelOrderGas  uint64 = 50_000
	ExecuteOrderGas uint64 = 60_000
	ReadGas         uint64 = 5_000
)

// Payload sizes, excluding the leading op byte. All integers little-endian,
// matching the record layouts.
const (
	initializeLen   = 2 + 32                    // fee_bps, treasury
	updateConfigLen = 32 + 2 + 32 + 1           // owner, fee_bps, treasury, paused
	openOrderLen    = 32 + 8 + 8 + 8 + 32 + 32 + 8 + 32 // OpenOrderParams
	cancelOrderLen  = 32 + 32                   // order, refund_receiver
	executeOrderLen = 32 + 32 + 32 + 8          // order, target, refund_receiver, volume
	getOrderLen     = 32                        // order
)

var (
	ErrOutOfGas           = errors.New("out of gas")
	ErrInvalidInputLength = errors.New("invalid input length")
	ErrUnknownOperation   = errors.New("unknown operation")
)

// RequiredGas returns the gas cost of input without executing it.
func (e *Escrow) RequiredGas(input []byte) uint64 {
	if len(input) < 1 {
		return ReadGas
	}
	switch input[0] {
	case OpByteInitialize:
		return InitializeGas
	case OpByteUpdateConfig:
		return UpdateConfigGas
	case OpByteOpenOrder:
		return OpenOrderGas
	case OpByteCancelOrder:
		return CancelOrderGas
	case OpByteExecuteOrder:
		return ExecuteOrderGas
	default:
		return ReadGas
	}
}

// Run dispatches a wire request.
// Input format:
//
//	[0]     = operation byte
//	[1:...] = operation payload, fixed-size per operation
//
// Outputs: open_order returns the 32-byte order address, get_order and
// get_config return the byte-exact persisted record, all other operations
// return nil on success.
func (e *Escrow) Run(caller common.Hash, input []byte, suppliedGas uint64) ([]byte, uint64, error) {
	gasCost := e.RequiredGas(input)
	if suppliedGas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	remaining := suppliedGas - gasCost

	if len(input) < 1 {
		return nil, remaining, fmt.Errorf("%w: empty input", ErrInvalidInputLength)
	}
	op, payload := input[0], input[1:]

	var result []byte
	var err error
	switch op {
	case OpByteInitialize:
		err = e.runInitialize(caller, payload)
	case OpByteUpdateConfig:
		err = e.runUpdateConfig(caller, payload)
	case OpByteOpenOrder:
		result, err = e.runOpenOrder(caller, payload)
	case OpByteCancelOrder:
		err = e.runCancelOrder(caller, payload)
	case OpByteExecuteOrder:
		err = e.runExecuteOrder(caller, payload)
	case OpByteGetOrder:
		result, err = e.runGetOrder(payload)
	case OpByteGetConfig:
		result, err = e.runGetConfig(payload)
	default:
		err = fmt.Errorf("%w: 0x%02x", ErrUnknownOperation, op)
	}
	if err != nil {
		return nil, remaining, err
	}
	return result, remaining, nil
}

func (e *Escrow) runInitialize(caller common.Hash, payload []byte) error {
	if len(payload) != initializeLen {
		return fmt.Errorf("%w: initialize payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), initializeLen)
	}
	feeBps := binary.LittleEndian.Uint16(payload[0:2])
	treasury := common.BytesToHash(payload[2:34])
	return e.Initialize(caller, feeBps, treasury)
}

func (e *Escrow) runUpdateConfig(caller common.Hash, payload []byte) error {
	if len(payload) != updateConfigLen {
		return fmt.Errorf("%w: update_config payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), updateConfigLen)
	}
	newOwner := common.BytesToHash(payload[0:32])
	newFeeBps := binary.LittleEndian.Uint16(payload[32:34])
	newTreasury := common.BytesToHash(payload[34:66])
	newPaused := payload[66] == 1
	return e.UpdateConfig(caller, newOwner, newFeeBps, newTreasury, newPaused)
}

func (e *Escrow) runOpenOrder(caller common.Hash, payload []byte) ([]byte, error) {
	if len(payload) != openOrderLen {
		return nil, fmt.Errorf("%w: open_order payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), openOrderLen)
	}
	params := OpenOrderParams{
		FromAsset:   common.BytesToHash(payload[0:32]),
		FromChainID: binary.LittleEndian.Uint64(payload[32:40]),
		AmountIn:    binary.LittleEndian.Uint64(payload[40:48]),
		ToChainID:   binary.LittleEndian.Uint64(payload[48:56]),
		ToAsset:     common.BytesToHash(payload[56:88]),
		Recipient:   common.BytesToHash(payload[88:120]),
		Expiry:      int64(binary.LittleEndian.Uint64(payload[120:128])),
		AmountOut:   common.BytesToHash(payload[128:160]),
	}
	addr, err := e.OpenOrder(caller, params)
	if err != nil {
		return nil, err
	}
	return addr.Bytes(), nil
}

func (e *Escrow) runCancelOrder(caller common.Hash, payload []byte) error {
	if len(payload) != cancelOrderLen {
		return fmt.Errorf("%w: cancel_order payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), cancelOrderLen)
	}
	order := common.BytesToHash(payload[0:32])
	refundReceiver := common.BytesToHash(payload[32:64])
	return e.CancelOrder(caller, order, refundReceiver)
}

func (e *Escrow) runExecuteOrder(caller common.Hash, payload []byte) error {
	if len(payload) != executeOrderLen {
		return fmt.Errorf("%w: execute_order payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), executeOrderLen)
	}
	order := common.BytesToHash(payload[0:32])
	target := common.BytesToHash(payload[32:64])
	refundReceiver := common.BytesToHash(payload[64:96])
	volume := binary.LittleEndian.Uint64(payload[96:104])
	return e.ExecuteOrder(caller, order, target, refundReceiver, volume)
}

func (e *Escrow) runGetOrder(payload []byte) ([]byte, error) {
	if len(payload) != getOrderLen {
		return nil, fmt.Errorf("%w: get_order payload is %d bytes, want %d", ErrInvalidInputLength, len(payload), getOrderLen)
	}
	order, err := e.Order(common.BytesToHash(payload[0:32]))
	if err != nil {
		return nil, err
	}
	return order.ToBytes(), nil
}

func (e *Escrow) runGetConfig(payload []byte) ([]byte, error) {
	if len(payload) != 0 {
		return nil, fmt.Errorf("%w: get_config takes no payload", ErrInvalidInputLength)
	}
	cfg, err := e.Config()
	if err != nil {
		return nil, err
	}
	return cfg.ToBytes(), nil
}
