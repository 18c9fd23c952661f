// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	log "github.com/luxfi/log"

	"github.com/luxfi/limitorder/ledger"
)

// Operation names passed to the pause guard.
const (
	OpOpenOrder    = "open_order"
	OpCancelOrder  = "cancel_order"
	OpExecuteOrder = "execute_order"
)

// PauseGuard decides whether an operation may proceed under the current
// config. cfg is nil when the config singleton does not exist yet.
type PauseGuard func(op string, cfg *GlobalConfig) error

// EnforcePause rejects every guarded operation while the config's paused
// flag is set. The default guard ignores the flag; install this one with
// WithPauseGuard to make the flag binding.
func EnforcePause(op string, cfg *GlobalConfig) error {
	if cfg != nil && cfg.Paused {
		return fmt.Errorf("%w: %s rejected", ErrPaused, op)
	}
	return nil
}

// Escrow is the limit-order state machine. All mutations are serialized;
// reads go straight to the store.
type Escrow struct {
	ledger ledger.Ledger
	store  *Store
	log    log.Logger
	events Emitter
	now    func() int64
	guard  PauseGuard

	mu sync.Mutex
}

// Option configures an Escrow.
type Option func(*Escrow)

// WithClock overrides the expiry clock.
func WithClock(now func() int64) Option {
	return func(e *Escrow) { e.now = now }
}

// WithEmitter sets the event sink.
func WithEmitter(em Emitter) Option {
	return func(e *Escrow) { e.events = em }
}

// WithLogger sets the structured logger.
func WithLogger(l log.Logger) Option {
	return func(e *Escrow) { e.log = l }
}

// WithPauseGuard installs a guard consulted before every order mutation.
func WithPauseGuard(g PauseGuard) Option {
	return func(e *Escrow) { e.guard = g }
}

// NewEscrow builds an escrow over the given ledger and record database.
func NewEscrow(l ledger.Ledger, db database.Database, opts ...Option) *Escrow {
	e := &Escrow{
		ledger: l,
		store:  NewStore(db),
		log:    log.NewNoOpLogger(),
		events: NoopEmitter{},
		now:    func() int64 { return time.Now().Unix() },
		guard:  func(string, *GlobalConfig) error { return nil },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the singleton config, or ErrNotInitialized.
func (e *Escrow) Config() (*GlobalConfig, error) {
	return e.store.GetConfig()
}

// Order returns the order at addr, or ErrOrderNotFound.
func (e *Escrow) Order(addr common.Hash) (*LimitOrder, error) {
	return e.store.GetOrder(addr)
}

// ForEachOrder visits every open order in registry key order.
func (e *Escrow) ForEachOrder(fn func(addr common.Hash, o *LimitOrder) error) error {
	return e.store.ForEachOrder(fn)
}

// OpenOrder escrows params.AmountIn of params.FromAsset from caller and
// creates the order record at the address derived from (caller, expiry).
// Initialization is not a prerequisite.
func (e *Escrow) OpenOrder(caller common.Hash, params OpenOrderParams) (common.Hash, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := validateOpenParams(params); err != nil {
		return common.Hash{}, err
	}
	if params.Expiry <= e.now() {
		return common.Hash{}, fmt.Errorf("%w: expiry %d not in the future", ErrInvalidParameter, params.Expiry)
	}

	cfg, err := e.configOrNil()
	if err != nil {
		return common.Hash{}, err
	}
	if err := e.guard(OpOpenOrder, cfg); err != nil {
		return common.Hash{}, err
	}

	addr, bump := DeriveOrderAddress(caller, params.Expiry)
	if exists, err := e.store.HasOrder(addr); err != nil {
		return common.Hash{}, err
	} else if exists {
		return common.Hash{}, fmt.Errorf("%w: %s", ErrOrderExists, addr.Hex())
	}
	if e.ledger.AccountExists(addr) {
		return common.Hash{}, fmt.Errorf("%w: custody account %s occupied", ErrOrderExists, addr.Hex())
	}

	order := &LimitOrder{
		FromAsset:   params.FromAsset,
		FromChainID: params.FromChainID,
		AmountIn:    params.AmountIn,
		ToChainID:   params.ToChainID,
		ToAsset:     params.ToAsset,
		Recipient:   params.Recipient,
		Sender:      caller,
		Expiry:      params.Expiry,
		AmountOut:   params.AmountOut,
		Bump:        bump,
	}

	if err := e.checkOpenFunds(caller, order); err != nil {
		return common.Hash{}, err
	}

	// All checks passed; the effect sequence below cannot fail for lack of
	// funds, so the ledger is never left half-moved.
	if err := e.ledger.CreateAccount(addr, caller); err != nil {
		return common.Hash{}, err
	}
	if err := custodyFor(e.ledger, order.FromAsset).Pull(order); err != nil {
		return common.Hash{}, err
	}
	if err := e.store.PutOrder(addr, order); err != nil {
		return common.Hash{}, err
	}

	e.log.Info("order opened",
		"order", addr.Hex(),
		"sender", caller.Hex(),
		"amountIn", order.AmountIn,
		"expiry", order.Expiry,
		"native", order.IsNative(),
	)
	e.events.Emit(OrderOpened{Order: addr})
	return addr, nil
}

// CancelOrder refunds the full escrowed amount to refundReceiver, which must
// be the order's sender, and destroys the order. The sender may cancel at any
// time; the config owner may also cancel on the sender's behalf. Expiry does
// not gate cancellation.
func (e *Escrow) CancelOrder(caller, addr, refundReceiver common.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.store.GetOrder(addr)
	if err != nil {
		return err
	}

	cfg, err := e.configOrNil()
	if err != nil {
		return err
	}
	isOwner := cfg != nil && caller == cfg.Owner
	if caller != order.Sender && !isOwner {
		return fmt.Errorf("%w: only the sender or owner may cancel", ErrUnauthorized)
	}
	if refundReceiver != order.Sender {
		return fmt.Errorf("%w: refund must go to the sender", ErrInvalidRefundReceiver)
	}
	if err := e.guard(OpCancelOrder, cfg); err != nil {
		return err
	}

	if !order.IsNative() && !e.ledger.HasTokenAccount(refundReceiver, order.FromAsset) {
		return fmt.Errorf("%w: refund receiver has no token account for the escrowed asset", ErrInvalidParameter)
	}

	if err := custodyFor(e.ledger, order.FromAsset).Refund(order, refundReceiver); err != nil {
		return err
	}
	if err := e.ledger.CloseAccount(order.Seeds(), refundReceiver); err != nil {
		return err
	}
	if err := e.store.DeleteOrder(addr); err != nil {
		return err
	}

	e.log.Info("order cancelled",
		"order", addr.Hex(),
		"by", caller.Hex(),
		"refunded", order.AmountIn,
	)
	e.events.Emit(OrderCancelled{Order: addr, By: caller})
	return nil
}

// ExecuteOrder settles an order: amount_in splits into a platform fee to the
// treasury and the remainder to target, then the order is destroyed and its
// record storage refunded to refundReceiver, which must be the sender. Only
// the config owner may execute, and only before expiry. nativeTokenVolume is
// an informational hint echoed in the event.
func (e *Escrow) ExecuteOrder(caller, addr, target, refundReceiver common.Hash, nativeTokenVolume uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	order, err := e.store.GetOrder(addr)
	if err != nil {
		return err
	}
	cfg, err := e.store.GetConfig()
	if err != nil {
		return err
	}
	if caller != cfg.Owner {
		return fmt.Errorf("%w: only the owner may execute", ErrUnauthorized)
	}
	if order.Expiry <= e.now() {
		return fmt.Errorf("%w: expiry %d has passed", ErrExpiryEarlier, order.Expiry)
	}
	if refundReceiver != order.Sender {
		return fmt.Errorf("%w: record storage refund must go to the sender", ErrInvalidRefundReceiver)
	}

	fee, send, err := SplitFee(order.AmountIn, cfg.FeeBps)
	if err != nil {
		return err
	}
	if send == 0 {
		return fmt.Errorf("%w: nothing left to send after fee", ErrInsufficientFunds)
	}
	if err := e.guard(OpExecuteOrder, cfg); err != nil {
		return err
	}

	if !order.IsNative() {
		if !e.ledger.HasTokenAccount(target, order.FromAsset) {
			return fmt.Errorf("%w: target has no token account for the escrowed asset", ErrInvalidParameter)
		}
		if !e.ledger.HasTokenAccount(cfg.Treasury, order.FromAsset) {
			return fmt.Errorf("%w: treasury has no token account for the escrowed asset", ErrInvalidParameter)
		}
	}

	if err := custodyFor(e.ledger, order.FromAsset).Payout(order, target, cfg.Treasury, send, fee, refundReceiver); err != nil {
		return err
	}
	if err := e.ledger.CloseAccount(order.Seeds(), refundReceiver); err != nil {
		return err
	}
	if err := e.store.DeleteOrder(addr); err != nil {
		return err
	}

	e.log.Info("order executed",
		"order", addr.Hex(),
		"target", target.Hex(),
		"send", send,
		"fee", fee,
		"volume", nativeTokenVolume,
	)
	e.events.Emit(OrderExecuted{Order: addr, By: caller, NativeTokenVolume: nativeTokenVolume})
	return nil
}

// configOrNil reads the config, treating absence as nil rather than an error.
func (e *Escrow) configOrNil() (*GlobalConfig, error) {
	cfg, err := e.store.GetConfig()
	if errors.Is(err, ErrNotInitialized) {
		return nil, nil
	}
	return cfg, err
}

// validateOpenParams applies the pure field predicates of an open request.
func validateOpenParams(p OpenOrderParams) error {
	switch {
	case p.FromAsset == (common.Hash{}):
		return fmt.Errorf("%w: from asset is zero", ErrInvalidParameter)
	case p.FromChainID != LocalChainID:
		return fmt.Errorf("%w: from chain id %d, want %d", ErrInvalidParameter, p.FromChainID, LocalChainID)
	case p.AmountIn == 0:
		return fmt.Errorf("%w: amount in is zero", ErrInvalidParameter)
	case p.ToChainID == 0:
		return fmt.Errorf("%w: to chain id is zero", ErrInvalidParameter)
	case p.ToAsset == (common.Hash{}):
		return fmt.Errorf("%w: to asset is zero", ErrInvalidParameter)
	case p.Recipient == (common.Hash{}):
		return fmt.Errorf("%w: recipient is zero", ErrInvalidParameter)
	}
	return nil
}

// checkOpenFunds verifies every debit the open will take before any effect:
// the escrowed amount plus storage rent for the record account and, on the
// token path, the custody token account.
func (e *Escrow) checkOpenFunds(caller common.Hash, order *LimitOrder) error {
	rent := e.ledger.RentReserve()
	amount := uint256.NewInt(order.AmountIn)

	if order.IsNative() {
		need := new(uint256.Int).Add(amount, rent)
		if e.ledger.Balance(caller).Lt(need) {
			return fmt.Errorf("%w: need %s for amount and rent", ErrInsufficientFunds, need)
		}
		return nil
	}

	if !e.ledger.HasTokenAccount(caller, order.FromAsset) {
		return fmt.Errorf("%w: sender has no token account for the escrowed asset", ErrInvalidParameter)
	}
	if e.ledger.TokenBalance(caller, order.FromAsset).Lt(amount) {
		return fmt.Errorf("%w: token balance below %d", ErrInsufficientFunds, order.AmountIn)
	}
	need := new(uint256.Int).Add(rent, rent) // record account + custody token account
	if e.ledger.Balance(caller).Lt(need) {
		return fmt.Errorf("%w: need %s rent for two accounts", ErrInsufficientFunds, need)
	}
	return nil
}
