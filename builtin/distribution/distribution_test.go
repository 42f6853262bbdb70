// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package distribution_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/builtin/bank"
	"github.com/chainsim/chainsim/builtin/distribution"
	"github.com/chainsim/chainsim/builtin/staking"
	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

const (
	bondDenom = "stake"

	stakingModule = sim.Address("staking_module")
	distrModule   = sim.Address("distribution_module")

	alice = sim.Address("alice")
	val1  = sim.Address("val1")
)

// fixedStrategy pays the same coin per withdrawal.
type fixedStrategy struct{ coin sim.Coin }

func (f fixedStrategy) Reward(_ *staking.Staking, _, _ sim.Address) (sim.Coin, error) {
	return f.coin, nil
}

func setup(t *testing.T, strategy distribution.RewardStrategy) (*distribution.Distribution, *bank.Bank) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bk := bank.New(kv.Bucket("bnk\x00").NewStore(db))
	stk := staking.New(kv.Bucket("stk\x00").NewStore(db), bk, bondDenom, stakingModule, 1)
	d := distribution.New(bk, stk, strategy, distrModule)

	require.NoError(t, bk.SetBalance(alice, sim.NewCoins(sim.NewCoin(bondDenom, 1000))))
	require.NoError(t, bk.SetBalance(distrModule, sim.NewCoins(sim.NewCoin(bondDenom, 500))))
	require.NoError(t, stk.AddValidator(val1, decimal.Zero))
	require.NoError(t, stk.Delegate(alice, val1, sim.NewCoin(bondDenom, 100)))
	return d, bk
}

func TestWithdrawReward(t *testing.T) {
	d, bk := setup(t, fixedStrategy{coin: sim.NewCoin(bondDenom, 25)})

	reward, err := d.WithdrawReward(alice, val1)
	require.NoError(t, err)
	assert.Equal(t, "25stake", reward.String())

	coins, err := bk.Balance(alice)
	require.NoError(t, err)
	assert.Equal(t, int64(925), coins.AmountOf(bondDenom).Int64())
	coins, err = bk.Balance(distrModule)
	require.NoError(t, err)
	assert.Equal(t, int64(475), coins.AmountOf(bondDenom).Int64())
}

func TestWithdrawRewardNil(t *testing.T) {
	d, bk := setup(t, distribution.NilStrategy{Denom: bondDenom})

	// zero reward short-circuits with no transfer
	reward, err := d.WithdrawReward(alice, val1)
	require.NoError(t, err)
	assert.True(t, reward.IsZero())

	coins, err := bk.Balance(distrModule)
	require.NoError(t, err)
	assert.Equal(t, int64(500), coins.AmountOf(bondDenom).Int64())
}

func TestWithdrawRewardNoDelegation(t *testing.T) {
	d, _ := setup(t, fixedStrategy{coin: sim.NewCoin(bondDenom, 25)})

	_, err := d.WithdrawReward(sim.Address("stranger"), val1)
	assert.Equal(t, staking.ErrNoDelegation, errors.Cause(err))

	_, err = d.WithdrawReward(alice, sim.Address("ghost"))
	assert.Equal(t, staking.ErrUnknownValidator, errors.Cause(err))
}

func TestWithdrawRewardUnfunded(t *testing.T) {
	d, _ := setup(t, fixedStrategy{coin: sim.NewCoin(bondDenom, 10_000)})

	_, err := d.WithdrawReward(alice, val1)
	assert.Equal(t, sim.ErrInsufficientFunds, errors.Cause(err))
}
