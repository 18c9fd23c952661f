// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package limitorder

import (
	"errors"
	"fmt"

	"github.com/luxfi/database"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/geth/common"
)

var (
	configPrefix  = []byte("config")
	orderPrefix   = []byte("order")
	journalPrefix = []byte("journal")

	configKey = []byte("singleton")
)

// Store persists the config singleton and the order registry byte-exact,
// keyed by derived order address. No secondary index exists or is needed:
// the address is the (sender, expiry) key.
type Store struct {
	config database.Database
	orders database.Database
}

// NewStore partitions db into the escrow's record spaces.
func NewStore(db database.Database) *Store {
	return &Store{
		config: prefixdb.New(configPrefix, db),
		orders: prefixdb.New(orderPrefix, db),
	}
}

// PutConfig writes the config singleton.
func (s *Store) PutConfig(c *GlobalConfig) error {
	return s.config.Put(configKey, c.ToBytes())
}

// GetConfig reads the config singleton. ErrNotInitialized if absent.
func (s *Store) GetConfig() (*GlobalConfig, error) {
	data, err := s.config.Get(configKey)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return GlobalConfigFromBytes(data)
}

// HasConfig reports whether initialize has run.
func (s *Store) HasConfig() (bool, error) {
	return s.config.Has(configKey)
}

// PutOrder writes an order record at its derived address.
func (s *Store) PutOrder(addr common.Hash, o *LimitOrder) error {
	return s.orders.Put(addr.Bytes(), o.ToBytes())
}

// GetOrder reads the order at addr. ErrOrderNotFound if absent.
func (s *Store) GetOrder(addr common.Hash) (*LimitOrder, error) {
	data, err := s.orders.Get(addr.Bytes())
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read order %s: %w", addr.Hex(), err)
	}
	return LimitOrderFromBytes(data)
}

// HasOrder reports whether an order record exists at addr.
func (s *Store) HasOrder(addr common.Hash) (bool, error) {
	return s.orders.Has(addr.Bytes())
}

// DeleteOrder removes the order record at addr.
func (s *Store) DeleteOrder(addr common.Hash) error {
	return s.orders.Delete(addr.Bytes())
}

// ForEachOrder visits every open order. The visit order is the registry's
// key order, not creation order. Stops on the first error from fn.
func (s *Store) ForEachOrder(fn func(addr common.Hash, o *LimitOrder) error) error {
	it := s.orders.NewIterator()
	defer it.Release()

	for it.Next() {
		o, err := LimitOrderFromBytes(it.Value())
		if err != nil {
			return err
		}
		if err := fn(common.BytesToHash(it.Key()), o); err != nil {
			return err
		}
	}
	return it.Error()
}
