// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	lru "github.com/hashicorp/golang-lru"
)

// cached is a read-through LRU layer over a store. Iteration always
// goes to the underlying store, so cached values never shadow range
// scans.
type cached struct {
	Store
	cache *lru.Cache
}

// NewCached wraps the store with an LRU cache of the given size.
func NewCached(src Store, size int) Store {
	cache, err := lru.New(size)
	if err != nil {
		panic(err) // only fails on non-positive size
	}
	return &cached{src, cache}
}

func (c *cached) Get(key []byte) ([]byte, error) {
	if v, ok := c.cache.Get(string(key)); ok {
		return v.([]byte), nil
	}
	val, err := c.Store.Get(key)
	if err != nil {
		return nil, err
	}
	c.cache.Add(string(key), val)
	return val, nil
}

func (c *cached) Has(key []byte) (bool, error) {
	if c.cache.Contains(string(key)) {
		return true, nil
	}
	return c.Store.Has(key)
}

func (c *cached) Put(key, val []byte) error {
	if err := c.Store.Put(key, val); err != nil {
		return err
	}
	c.cache.Add(string(key), val)
	return nil
}

func (c *cached) Delete(key []byte) error {
	if err := c.Store.Delete(key); err != nil {
		return err
	}
	c.cache.Remove(string(key))
	return nil
}
