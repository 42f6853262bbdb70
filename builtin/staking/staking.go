// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package staking implements share-based delegation accounting.
// Delegators hold shares of a validator's total stake; the per-share
// value drifts away from 1:1 as rewards accrue or slashes land, and
// every reported stake is derived from shares at read time so a slash
// retroactively adjusts all of them without an update pass.
package staking

import (
	"math/big"

	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/chainsim/chainsim/builtin/bank"
	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

var logger = logging.Logger("staking")

// Distinct business-rule failures. None are retried.
var (
	ErrWrongDenom        = errors.New("wrong denom")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrUnderflow         = errors.New("insufficient shares")
	ErrUnknownValidator  = errors.New("unknown validator")
	ErrValidatorExists   = errors.New("validator already registered")
	ErrNoDelegation      = errors.New("no delegation")
	ErrInvalidSlashRatio = errors.New("slash ratio must be in [0,1]")
)

// Staking is the delegation accounting service bound to a store.
// The bank instance must be bound to the same overlay so token
// movement and share mutation commit or roll back together.
type Staking struct {
	storage    *storage
	bank       *bank.Bank
	bondDenom  string
	moduleAddr sim.Address
	height     uint32
}

// New creates a staking instance over the given (namespaced) store.
func New(store kv.Store, bk *bank.Bank, bondDenom string, moduleAddr sim.Address, height uint32) *Staking {
	return &Staking{
		storage:    newStorage(store),
		bank:       bk,
		bondDenom:  bondDenom,
		moduleAddr: moduleAddr,
		height:     height,
	}
}

// BondDenom returns the denom accepted for delegation.
func (s *Staking) BondDenom() string { return s.bondDenom }

// ModuleAddress returns the account holding all bonded tokens.
func (s *Staking) ModuleAddress() sim.Address { return s.moduleAddr }

// AddValidator registers a validator. Registration happens once;
// the record is immutable afterwards.
func (s *Staking) AddValidator(addr sim.Address, commission decimal.Decimal) error {
	existing, err := s.storage.GetValidator(addr)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.WithMessage(ErrValidatorExists, addr.String())
	}
	if commission.Sign() < 0 || commission.GreaterThan(decimal.New(1, 0)) {
		return errors.New("commission must be in [0,1]")
	}
	return s.storage.SetValidator(&Validator{Address: addr.String(), Commission: commission})
}

// Validator returns the registered validator record.
func (s *Staking) Validator(addr sim.Address) (*Validator, error) {
	v, err := s.storage.GetValidator(addr)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, errors.WithMessage(ErrUnknownValidator, addr.String())
	}
	return v, nil
}

// Validators lists all registered validators in address order.
func (s *Staking) Validators() ([]*Validator, error) {
	var vals []*Validator
	err := s.storage.IterateValidators(func(v *Validator) bool {
		vals = append(vals, v)
		return true
	})
	return vals, err
}

// ValidatorInfo returns the validator's aggregate delegation state.
func (s *Staking) ValidatorInfo(addr sim.Address) (*ValidatorInfo, error) {
	if _, err := s.Validator(addr); err != nil {
		return nil, err
	}
	return s.storage.GetInfo(addr)
}

// SharesFor converts a stake amount into shares at the validator's
// current ratio. The first delegation is priced 1:1; afterwards
// new shares = amount x total shares / total stake, which keeps
// existing delegators' proportional ownership constant.
func (s *Staking) SharesFor(validator sim.Address, amount *big.Int) (decimal.Decimal, error) {
	info, err := s.storage.GetInfo(validator)
	if err != nil {
		return decimal.Zero, err
	}
	return sharesFor(info, amount), nil
}

func sharesFor(info *ValidatorInfo, amount *big.Int) decimal.Decimal {
	if info.Stake.Sign() == 0 {
		return decimal.NewFromBigInt(amount, 0)
	}
	return decimal.NewFromBigInt(amount, 0).
		Mul(info.Shares).
		Div(decimal.NewFromBigInt(info.Stake, 0))
}

// Delegate bonds amount from the delegator to the validator.
// The tokens move to the module account through the bank bound to the
// same transaction.
func (s *Staking) Delegate(delegator, validator sim.Address, amount sim.Coin) error {
	if err := s.checkBond(amount); err != nil {
		return err
	}
	if _, err := s.Validator(validator); err != nil {
		return err
	}
	info, err := s.storage.GetInfo(validator)
	if err != nil {
		return err
	}
	shares := sharesFor(info, amount.Amount)

	stake, err := s.storage.GetStake(delegator, validator)
	if err != nil {
		return err
	}
	if stake == nil {
		stake = &StakeInfo{}
	}
	stake.Shares = stake.Shares.Add(shares)
	stake.LastEdited = s.height

	info.Shares = info.Shares.Add(shares)
	info.Stake = new(big.Int).Add(info.Stake, amount.Amount)
	info.AddStaker(delegator.String())
	info.LastEdited = s.height

	if err := s.storage.SetStake(delegator, validator, stake); err != nil {
		return err
	}
	if err := s.storage.SetInfo(validator, info); err != nil {
		return err
	}
	logger.Debugw("delegate", "delegator", delegator, "validator", validator, "amount", amount.String(), "shares", shares.String())
	return s.bank.Transfer(delegator, s.moduleAddr, sim.NewCoins(amount))
}

// Undelegate unbonds amount from the validator and returns the tokens
// immediately; there is no unbonding queue.
func (s *Staking) Undelegate(delegator, validator sim.Address, amount sim.Coin) error {
	if err := s.checkBond(amount); err != nil {
		return err
	}
	if _, err := s.Validator(validator); err != nil {
		return err
	}
	stake, err := s.storage.GetStake(delegator, validator)
	if err != nil {
		return err
	}
	if stake == nil {
		return errors.WithMessagef(ErrNoDelegation, "%s on %s", delegator, validator)
	}
	info, err := s.storage.GetInfo(validator)
	if err != nil {
		return err
	}
	if info.Stake.Cmp(amount.Amount) < 0 {
		return errors.WithMessagef(ErrUnderflow, "validator stake %v < %v", info.Stake, amount.Amount)
	}
	shares := sharesFor(info, amount.Amount)

	stake.Shares = stake.Shares.Sub(shares)
	if stake.Shares.Sign() < 0 {
		return errors.WithMessagef(ErrUnderflow, "%s on %s", delegator, validator)
	}
	stake.LastEdited = s.height

	info.Shares = info.Shares.Sub(shares)
	if info.Shares.Sign() < 0 {
		return errors.WithMessagef(ErrUnderflow, "validator %s shares", validator)
	}
	info.Stake = new(big.Int).Sub(info.Stake, amount.Amount)
	info.LastEdited = s.height

	// a fully withdrawn record stays around with zero shares;
	// only a full slash purges it
	if err := s.storage.SetStake(delegator, validator, stake); err != nil {
		return err
	}
	if err := s.storage.SetInfo(validator, info); err != nil {
		return err
	}
	logger.Debugw("undelegate", "delegator", delegator, "validator", validator, "amount", amount.String())
	return s.bank.Transfer(s.moduleAddr, delegator, sim.NewCoins(amount))
}

// Redelegate moves amount from src to dst for the delegator.
// It is an undelegate followed by a delegate; it is atomic only
// because both legs run inside one router transaction.
func (s *Staking) Redelegate(delegator, src, dst sim.Address, amount sim.Coin) error {
	if err := s.Undelegate(delegator, src, amount); err != nil {
		return err
	}
	return s.Delegate(delegator, dst, amount)
}

// Slash reduces the validator's total stake by ratio. A slash to
// exactly zero stake purges every delegator of the validator and
// resets total shares.
func (s *Staking) Slash(validator sim.Address, ratio decimal.Decimal) error {
	if ratio.Sign() < 0 || ratio.GreaterThan(decimal.New(1, 0)) {
		return errors.WithMessage(ErrInvalidSlashRatio, ratio.String())
	}
	if _, err := s.Validator(validator); err != nil {
		return err
	}
	info, err := s.storage.GetInfo(validator)
	if err != nil {
		return err
	}

	remaining := decimal.NewFromBigInt(info.Stake, 0).
		Mul(decimal.New(1, 0).Sub(ratio)).
		BigInt()
	info.Stake = remaining
	info.LastEdited = s.height

	if remaining.Sign() == 0 {
		// full wipe-out: every delegator entry goes away
		for _, staker := range info.Stakers {
			if err := s.storage.DeleteStake(sim.Address(staker), validator); err != nil {
				return err
			}
		}
		info.Stakers = nil
		info.Shares = decimal.Zero
	}
	logger.Debugw("slash", "validator", validator, "ratio", ratio.String(), "remaining", remaining)
	return s.storage.SetInfo(validator, info)
}

// Stake returns the delegator's raw share record for the validator.
func (s *Staking) Stake(delegator, validator sim.Address) (*StakeInfo, error) {
	if _, err := s.Validator(validator); err != nil {
		return nil, err
	}
	stake, err := s.storage.GetStake(delegator, validator)
	if err != nil {
		return nil, err
	}
	if stake == nil {
		return nil, errors.WithMessagef(ErrNoDelegation, "%s on %s", delegator, validator)
	}
	return stake, nil
}

// CurrentStake derives the delegator's stake on the validator from its
// shares at the current ratio. It is never cached.
func (s *Staking) CurrentStake(delegator, validator sim.Address) (*big.Int, error) {
	stake, err := s.Stake(delegator, validator)
	if err != nil {
		return nil, err
	}
	info, err := s.storage.GetInfo(validator)
	if err != nil {
		return nil, err
	}
	return derivedStake(stake, info), nil
}

func derivedStake(stake *StakeInfo, info *ValidatorInfo) *big.Int {
	if info.Shares.IsZero() || stake.Shares.IsZero() {
		return new(big.Int)
	}
	return stake.Shares.
		Mul(decimal.NewFromBigInt(info.Stake, 0)).
		Div(info.Shares).
		BigInt()
}

// Delegations lists the delegator's delegations with derived stakes.
func (s *Staking) Delegations(delegator sim.Address) ([]*Delegation, error) {
	var (
		out  []*Delegation
		werr error
	)
	err := s.storage.IterateStakes(delegator, func(validator sim.Address, stake *StakeInfo) bool {
		info, err := s.storage.GetInfo(validator)
		if err != nil {
			werr = err
			return false
		}
		out = append(out, &Delegation{
			Validator: validator.String(),
			Shares:    stake.Shares,
			Stake:     derivedStake(stake, info),
		})
		return true
	})
	if werr != nil {
		return nil, werr
	}
	return out, err
}

func (s *Staking) checkBond(amount sim.Coin) error {
	if amount.Denom != s.bondDenom {
		return errors.WithMessagef(ErrWrongDenom, "got %s, bonded denom is %s", amount.Denom, s.bondDenom)
	}
	if amount.Amount == nil || amount.Amount.Sign() <= 0 {
		return errors.WithMessagef(ErrNonPositiveAmount, "%v", amount.Amount)
	}
	return nil
}
