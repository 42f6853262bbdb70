// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

var (
	bucketValidators = kv.Bucket("v")
	bucketInfos      = kv.Bucket("i")
	bucketStakes     = kv.Bucket("s")
)

// stake records are keyed delegator-first so one delegator's
// delegations form a contiguous key range.
func stakeKey(delegator, validator sim.Address) []byte {
	key := make([]byte, 0, len(delegator)+len(validator)+1)
	key = append(key, delegator.Bytes()...)
	key = append(key, 0)
	return append(key, validator.Bytes()...)
}

// storage is the root storage of the staking module.
type storage struct {
	validators kv.Store
	infos      kv.Store
	stakes     kv.Store
}

func newStorage(store kv.Store) *storage {
	return &storage{
		validators: bucketValidators.NewStore(store),
		infos:      bucketInfos.NewStore(store),
		stakes:     bucketStakes.NewStore(store),
	}
}

// GetValidator returns the validator record, nil if not registered.
func (s *storage) GetValidator(addr sim.Address) (*Validator, error) {
	raw, err := s.validators.Get(addr.Bytes())
	if err != nil {
		if s.validators.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get validator")
	}
	var stored storedValidator
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, errors.Wrap(err, "decode validator")
	}
	return stored.toValidator()
}

func (s *storage) SetValidator(v *Validator) error {
	raw, err := rlp.EncodeToBytes(v.toStored())
	if err != nil {
		return errors.Wrap(err, "encode validator")
	}
	return s.validators.Put([]byte(v.Address), raw)
}

// IterateValidators yields every registered validator in address order.
func (s *storage) IterateValidators(fn func(*Validator) bool) error {
	it := s.validators.Iterate(kv.Range{}, false)
	defer it.Release()
	for it.Next() {
		var stored storedValidator
		if err := rlp.DecodeBytes(it.Value(), &stored); err != nil {
			return errors.Wrap(err, "decode validator")
		}
		v, err := stored.toValidator()
		if err != nil {
			return err
		}
		if !fn(v) {
			break
		}
	}
	return it.Error()
}

// GetInfo returns the validator's aggregate, a fresh zero aggregate if
// none is stored yet.
func (s *storage) GetInfo(addr sim.Address) (*ValidatorInfo, error) {
	raw, err := s.infos.Get(addr.Bytes())
	if err != nil {
		if s.infos.IsNotFound(err) {
			return newValidatorInfo(), nil
		}
		return nil, errors.Wrap(err, "get validator info")
	}
	var stored storedValidatorInfo
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, errors.Wrap(err, "decode validator info")
	}
	return stored.toInfo()
}

func (s *storage) SetInfo(addr sim.Address, info *ValidatorInfo) error {
	raw, err := rlp.EncodeToBytes(info.toStored())
	if err != nil {
		return errors.Wrap(err, "encode validator info")
	}
	return s.infos.Put(addr.Bytes(), raw)
}

// GetStake returns the delegator's stake record for the validator,
// nil if there is none.
func (s *storage) GetStake(delegator, validator sim.Address) (*StakeInfo, error) {
	raw, err := s.stakes.Get(stakeKey(delegator, validator))
	if err != nil {
		if s.stakes.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get stake")
	}
	var stored storedStakeInfo
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, errors.Wrap(err, "decode stake")
	}
	return stored.toStakeInfo()
}

func (s *storage) SetStake(delegator, validator sim.Address, info *StakeInfo) error {
	raw, err := rlp.EncodeToBytes(info.toStored())
	if err != nil {
		return errors.Wrap(err, "encode stake")
	}
	return s.stakes.Put(stakeKey(delegator, validator), raw)
}

func (s *storage) DeleteStake(delegator, validator sim.Address) error {
	return s.stakes.Delete(stakeKey(delegator, validator))
}

// IterateStakes yields the delegator's stake records in validator
// address order.
func (s *storage) IterateStakes(delegator sim.Address, fn func(validator sim.Address, info *StakeInfo) bool) error {
	prefix := append(delegator.Bytes(), 0)
	r := util.BytesPrefix(prefix)
	it := s.stakes.Iterate(kv.Range{Start: r.Start, Limit: r.Limit}, false)
	defer it.Release()
	for it.Next() {
		var stored storedStakeInfo
		if err := rlp.DecodeBytes(it.Value(), &stored); err != nil {
			return errors.Wrap(err, "decode stake")
		}
		info, err := stored.toStakeInfo()
		if err != nil {
			return err
		}
		if !fn(sim.Address(it.Key()[len(prefix):]), info) {
			break
		}
	}
	return it.Error()
}
