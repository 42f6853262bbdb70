// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Validator is the registered validator record. Fields are immutable
// after registration; commission changes are out of scope.
type Validator struct {
	Address    string
	Commission decimal.Decimal
}

// ValidatorInfo aggregates one validator's delegation state.
type ValidatorInfo struct {
	Stake      *big.Int        // total bonded tokens
	Shares     decimal.Decimal // total shares issued
	Stakers    []string        // sorted delegator addresses
	LastEdited uint32          // block height of last mutation
}

func newValidatorInfo() *ValidatorInfo {
	return &ValidatorInfo{Stake: new(big.Int)}
}

// IsEmpty returns whether the info carries no stake and no shares.
func (vi *ValidatorInfo) IsEmpty() bool {
	return vi.Stake.Sign() == 0 && vi.Shares.IsZero()
}

// AddStaker inserts addr into the sorted staker set.
func (vi *ValidatorInfo) AddStaker(addr string) {
	for i, s := range vi.Stakers {
		if s == addr {
			return
		}
		if s > addr {
			vi.Stakers = append(vi.Stakers, "")
			copy(vi.Stakers[i+1:], vi.Stakers[i:])
			vi.Stakers[i] = addr
			return
		}
	}
	vi.Stakers = append(vi.Stakers, addr)
}

// StakeInfo is the per (delegator, validator) share record.
// It stays around with zero shares after a full withdrawal; only a
// full slash purges it.
type StakeInfo struct {
	Shares     decimal.Decimal
	LastEdited uint32
}

// stored forms: decimals travel as strings since the rlp codec has no
// decimal support.

type storedValidator struct {
	Address    string
	Commission string
}

type storedValidatorInfo struct {
	Stake      *big.Int
	Shares     string
	Stakers    []string
	LastEdited uint32
}

type storedStakeInfo struct {
	Shares     string
	LastEdited uint32
}

func (v *Validator) toStored() *storedValidator {
	return &storedValidator{Address: v.Address, Commission: v.Commission.String()}
}

func (s *storedValidator) toValidator() (*Validator, error) {
	com, err := decimal.NewFromString(s.Commission)
	if err != nil {
		return nil, errors.Wrap(err, "decode commission")
	}
	return &Validator{Address: s.Address, Commission: com}, nil
}

func (vi *ValidatorInfo) toStored() *storedValidatorInfo {
	return &storedValidatorInfo{
		Stake:      vi.Stake,
		Shares:     vi.Shares.String(),
		Stakers:    vi.Stakers,
		LastEdited: vi.LastEdited,
	}
}

func (s *storedValidatorInfo) toInfo() (*ValidatorInfo, error) {
	shares, err := decimal.NewFromString(s.Shares)
	if err != nil {
		return nil, errors.Wrap(err, "decode shares")
	}
	return &ValidatorInfo{
		Stake:      s.Stake,
		Shares:     shares,
		Stakers:    s.Stakers,
		LastEdited: s.LastEdited,
	}, nil
}

func (si *StakeInfo) toStored() *storedStakeInfo {
	return &storedStakeInfo{Shares: si.Shares.String(), LastEdited: si.LastEdited}
}

func (s *storedStakeInfo) toStakeInfo() (*StakeInfo, error) {
	shares, err := decimal.NewFromString(s.Shares)
	if err != nil {
		return nil, errors.Wrap(err, "decode shares")
	}
	return &StakeInfo{Shares: shares, LastEdited: s.LastEdited}, nil
}

// Delegation is one entry of a delegator's delegation listing.
type Delegation struct {
	Validator string
	Shares    decimal.Decimal
	Stake     *big.Int // derived at read time
}
