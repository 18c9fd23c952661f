// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"fmt"

	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"
)

// Event is a notification emitted after a successful state mutation.
type Event interface {
	Name() string
}

// ConfigInitialized is emitted once, when the singleton config is created.
type ConfigInitialized struct {
	Owner    common.Hash
	FeeBps   uint16
	Treasury common.Hash
	Paused   bool
}

func (ConfigInitialized) Name() string { return "ConfigInitialized" }

// ConfigUpdated is emitted on every successful update_config.
type ConfigUpdated struct {
	Owner    common.Hash
	FeeBps   uint16
	Treasury common.Hash
	Paused   bool
}

func (ConfigUpdated) Name() string { return "ConfigUpdated" }

// OrderOpened carries the new order's custody address.
type OrderOpened struct {
	Order common.Hash
}

func (OrderOpened) Name() string { return "OrderOpened" }

// OrderCancelled carries the order address and the cancelling identity.
type OrderCancelled struct {
	Order common.Hash
	By    common.Hash
}

func (OrderCancelled) Name() string { return "OrderCancelled" }

// OrderExecuted carries the order address, the executor, and the
// caller-supplied volume hint. The hint is informational only.
type OrderExecuted struct {
	Order             common.Hash
	By                common.Hash
	NativeTokenVolume uint64
}

func (OrderExecuted) Name() string { return "OrderExecuted" }

// Emitter receives events. Emit must not mutate escrow state and must not
// fail the operation that produced the event.
type Emitter interface {
	Emit(ev Event)
}

// NoopEmitter discards events.
type NoopEmitter struct{}

func (NoopEmitter) Emit(Event) {}

// LogEmitter writes events to a structured logger.
type LogEmitter struct {
	Log log.Logger
}

func (e LogEmitter) Emit(ev Event) {
	e.Log.Info("escrow event", "event", ev.Name(), "detail", fmt.Sprintf("%+v", ev))
}

// MultiEmitter fans an event out to several emitters in order.
type MultiEmitter []Emitter

func (m MultiEmitter) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}
