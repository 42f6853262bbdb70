// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package distribution pays out staking rewards. The reward formula
// itself is an injectable strategy; the module only asks it for the
// accrued coin and issues the bank transfer.
package distribution

import (
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/builtin/bank"
	"github.com/chainsim/chainsim/builtin/staking"
	"github.com/chainsim/chainsim/sim"
)

// RewardStrategy computes the reward accrued by a delegation.
type RewardStrategy interface {
	Reward(stk *staking.Staking, delegator, validator sim.Address) (sim.Coin, error)
}

// NilStrategy accrues no rewards. It is the default until a reward
// formula is decided.
type NilStrategy struct {
	Denom string
}

// Reward implements RewardStrategy.
func (n NilStrategy) Reward(_ *staking.Staking, _, _ sim.Address) (sim.Coin, error) {
	return sim.NewCoin(n.Denom, 0), nil
}

// Distribution is the payout service bound to one transaction's bank
// and staking instances.
type Distribution struct {
	bank       *bank.Bank
	staking    *staking.Staking
	strategy   RewardStrategy
	moduleAddr sim.Address
}

// New creates a distribution instance.
func New(bk *bank.Bank, stk *staking.Staking, strategy RewardStrategy, moduleAddr sim.Address) *Distribution {
	return &Distribution{bank: bk, staking: stk, strategy: strategy, moduleAddr: moduleAddr}
}

// ModuleAddress returns the account rewards are paid from.
func (d *Distribution) ModuleAddress() sim.Address { return d.moduleAddr }

// WithdrawReward queries the strategy for the delegation's accrued
// reward and transfers it to the delegator. The delegation must exist.
func (d *Distribution) WithdrawReward(delegator, validator sim.Address) (sim.Coin, error) {
	// surfaces ErrNoDelegation before any payout
	if _, err := d.staking.CurrentStake(delegator, validator); err != nil {
		return sim.Coin{}, err
	}
	reward, err := d.strategy.Reward(d.staking, delegator, validator)
	if err != nil {
		return sim.Coin{}, errors.WithMessage(err, "compute reward")
	}
	if reward.IsZero() {
		return reward, nil
	}
	if err := d.bank.Transfer(d.moduleAddr, delegator, sim.NewCoins(reward)); err != nil {
		return sim.Coin{}, errors.WithMessage(err, "pay reward")
	}
	return reward, nil
}
