// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

// instance is the persisted record of an instantiated contract.
type instance struct {
	CodeID  uint64
	Label   string
	Creator string
}

var counterKey = []byte("counter")

// registry persists contract instances. The allocation counter lives
// in the same store, so an address allocated inside a failed
// transaction is released with the overlay.
type registry struct {
	store kv.Store
}

func newRegistry(store kv.Store) *registry {
	return &registry{store: store}
}

// Allocate assigns the next contract address and records the instance.
func (r *registry) Allocate(codeID uint64, label string, creator sim.Address) (sim.Address, error) {
	var next uint64
	raw, err := r.store.Get(counterKey)
	if err != nil {
		if !r.store.IsNotFound(err) {
			return "", errors.Wrap(err, "get instance counter")
		}
	} else {
		next = binary.BigEndian.Uint64(raw)
	}

	addr := sim.Address(fmt.Sprintf("contract%d", next))

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next+1)
	if err := r.store.Put(counterKey, buf[:]); err != nil {
		return "", errors.Wrap(err, "put instance counter")
	}
	if err := r.set(addr, &instance{CodeID: codeID, Label: label, Creator: creator.String()}); err != nil {
		return "", err
	}
	return addr, nil
}

// Get returns the instance record for addr, nil if unknown.
func (r *registry) Get(addr sim.Address) (*instance, error) {
	raw, err := r.store.Get(addr.Bytes())
	if err != nil {
		if r.store.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get instance")
	}
	var inst instance
	if err := rlp.DecodeBytes(raw, &inst); err != nil {
		return nil, errors.Wrap(err, "decode instance")
	}
	return &inst, nil
}

func (r *registry) set(addr sim.Address, inst *instance) error {
	raw, err := rlp.EncodeToBytes(inst)
	if err != nil {
		return errors.Wrap(err, "encode instance")
	}
	return r.store.Put(addr.Bytes(), raw)
}
