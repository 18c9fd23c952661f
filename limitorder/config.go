// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"fmt"

	"github.com/luxfi/geth/common"
)

// Initialize creates the config singleton with the caller as owner. Runs at
// most once for the escrow's lifetime; the paused flag starts clear and the
// reserved region zeroed.
func (e *Escrow) Initialize(caller common.Hash, feeBps uint16, treasury common.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if feeBps >= FeeDenominator {
		return fmt.Errorf("%w: fee %d bps, must be below %d", ErrInvalidConfiguration, feeBps, FeeDenominator)
	}
	if exists, err := e.store.HasConfig(); err != nil {
		return err
	} else if exists {
		return ErrAlreadyInitialized
	}

	cfg := &GlobalConfig{
		Owner:    caller,
		FeeBps:   feeBps,
		Treasury: treasury,
	}
	if err := e.store.PutConfig(cfg); err != nil {
		return err
	}

	e.log.Info("config initialized",
		"owner", caller.Hex(),
		"feeBps", feeBps,
		"treasury", treasury.Hex(),
	)
	e.events.Emit(ConfigInitialized{
		Owner:    cfg.Owner,
		FeeBps:   cfg.FeeBps,
		Treasury: cfg.Treasury,
		Paused:   cfg.Paused,
	})
	return nil
}

// UpdateConfig overwrites every administrative field at once. Only the
// current owner may call; ownership transfers take effect immediately. The
// reserved region carries over untouched.
func (e *Escrow) UpdateConfig(caller, newOwner common.Hash, newFeeBps uint16, newTreasury common.Hash, newPaused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cfg, err := e.store.GetConfig()
	if err != nil {
		return err
	}
	if caller != cfg.Owner {
		return fmt.Errorf("%w: only the owner may update the config", ErrUnauthorized)
	}
	if newFeeBps >= FeeDenominator {
		return fmt.Errorf("%w: fee %d bps, must be below %d", ErrInvalidConfiguration, newFeeBps, FeeDenominator)
	}

	cfg.Owner = newOwner
	cfg.FeeBps = newFeeBps
	cfg.Treasury = newTreasury
	cfg.Paused = newPaused
	if err := e.store.PutConfig(cfg); err != nil {
		return err
	}

	e.log.Info("config updated",
		"owner", newOwner.Hex(),
		"feeBps", newFeeBps,
		"treasury", newTreasury.Hex(),
		"paused", newPaused,
	)
	e.events.Emit(ConfigUpdated{
		Owner:    cfg.Owner,
		FeeBps:   cfg.FeeBps,
		Treasury: cfg.Treasury,
		Paused:   cfg.Paused,
	})
	return nil
}
