// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bank implements the per-address multi-denomination ledger.
// It owns no state of its own; every call operates on the store it was
// constructed over, so running it over a transactional overlay gives
// it the overlay's atomicity.
package bank

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

var logger = logging.Logger("bank")

// Bank is the ledger service bound to a store.
type Bank struct {
	store kv.Store
}

// New creates a bank instance over the given (namespaced) store.
func New(store kv.Store) *Bank {
	return &Bank{store: store}
}

// Balance returns the coins held by addr. Unknown addresses hold
// nothing.
func (b *Bank) Balance(addr sim.Address) (sim.Coins, error) {
	return b.getAccount(addr)
}

// Transfer atomically moves amount from one address to another.
// It fails without any effect if any single balance would go negative;
// the caller's overlay discards partial writes in that case.
func (b *Bank) Transfer(from, to sim.Address, amount sim.Coins) error {
	if err := amount.Validate(); err != nil {
		return errors.WithMessage(err, "invalid transfer amount")
	}
	fromCoins, err := b.getAccount(from)
	if err != nil {
		return err
	}
	for _, c := range amount {
		if fromCoins, err = fromCoins.Sub(c); err != nil {
			return errors.WithMessagef(err, "send from %s", from)
		}
	}
	if err := b.setAccount(from, fromCoins); err != nil {
		return err
	}

	// re-read so self transfers observe the debit
	toCoins, err := b.getAccount(to)
	if err != nil {
		return err
	}
	for _, c := range amount {
		toCoins = toCoins.Add(c)
	}
	if err := b.setAccount(to, toCoins); err != nil {
		return err
	}
	logger.Debugw("transfer", "from", from, "to", to, "amount", amount.String())
	return nil
}

// SetBalance overwrites the balance of addr. It is a test-setup
// administrative operation and bypasses transactional dispatch.
func (b *Bank) SetBalance(addr sim.Address, coins sim.Coins) error {
	if err := coins.Validate(); err != nil {
		return errors.WithMessage(err, "invalid balance")
	}
	return b.setAccount(addr, coins)
}

// TotalSupply sums the given denom over every account.
func (b *Bank) TotalSupply(denom string) (*big.Int, error) {
	total := new(big.Int)
	it := b.store.Iterate(kv.Range{}, false)
	defer it.Release()
	for it.Next() {
		var coins sim.Coins
		if err := rlp.DecodeBytes(it.Value(), &coins); err != nil {
			return nil, errors.Wrap(err, "decode account")
		}
		total.Add(total, coins.AmountOf(denom))
	}
	return total, it.Error()
}

func (b *Bank) getAccount(addr sim.Address) (sim.Coins, error) {
	raw, err := b.store.Get(addr.Bytes())
	if err != nil {
		if b.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get account")
	}
	var coins sim.Coins
	if err := rlp.DecodeBytes(raw, &coins); err != nil {
		return nil, errors.Wrap(err, "decode account")
	}
	return coins, nil
}

func (b *Bank) setAccount(addr sim.Address, coins sim.Coins) error {
	// accounts are created lazily and pruned when emptied
	if coins.IsZero() {
		return b.store.Delete(addr.Bytes())
	}
	raw, err := rlp.EncodeToBytes(coins)
	if err != nil {
		return errors.Wrap(err, "encode account")
	}
	return b.store.Put(addr.Bytes(), raw)
}
