// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bank_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/builtin/bank"
	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/overlay"
	"github.com/chainsim/chainsim/sim"
)

const (
	owner = sim.Address("owner")
	other = sim.Address("other")
)

func newBank(t *testing.T) (*bank.Bank, kv.Store) {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return bank.New(db), db
}

func TestTransfer(t *testing.T) {
	bk, _ := newBank(t)
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(
		sim.NewCoin("btc", 20),
		sim.NewCoin("eth", 100),
	)))

	require.NoError(t, bk.Transfer(owner, other, sim.NewCoins(
		sim.NewCoin("btc", 5),
		sim.NewCoin("eth", 30),
	)))

	got, err := bk.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, "15btc,70eth", got.String())

	got, err = bk.Balance(other)
	require.NoError(t, err)
	assert.Equal(t, "5btc,30eth", got.String())
}

func TestTransferInsufficient(t *testing.T) {
	bk, _ := newBank(t)
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(sim.NewCoin("btc", 20))))

	// more than held in one denom fails whole
	err := bk.Transfer(owner, other, sim.NewCoins(
		sim.NewCoin("btc", 21),
	))
	assert.Equal(t, sim.ErrInsufficientFunds, errors.Cause(err))
}

func TestTransferAtomicity(t *testing.T) {
	bk, store := newBank(t)
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(
		sim.NewCoin("btc", 20),
		sim.NewCoin("eth", 100),
	)))

	// a failing transfer inside an overlay leaves the base untouched
	err := overlay.Transactional(store, func(ov *overlay.Overlay) error {
		return bank.New(ov).Transfer(owner, other, sim.NewCoins(
			sim.NewCoin("btc", 5),
			sim.NewCoin("eth", 200),
		))
	})
	assert.Equal(t, sim.ErrInsufficientFunds, errors.Cause(err))

	got, err := bk.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, "20btc,100eth", got.String())
	got, err = bk.Balance(other)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestTransferToSelf(t *testing.T) {
	bk, _ := newBank(t)
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(sim.NewCoin("eth", 10))))

	require.NoError(t, bk.Transfer(owner, owner, sim.NewCoins(sim.NewCoin("eth", 7))))

	got, err := bk.Balance(owner)
	require.NoError(t, err)
	assert.Equal(t, "10eth", got.String())
}

func TestLazyAccounts(t *testing.T) {
	bk, _ := newBank(t)

	// unknown address holds nothing
	got, err := bk.Balance(sim.Address("nobody"))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	// sending everything away prunes the account record
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(sim.NewCoin("eth", 5))))
	require.NoError(t, bk.Transfer(owner, other, sim.NewCoins(sim.NewCoin("eth", 5))))

	got, err = bk.Balance(owner)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestTotalSupply(t *testing.T) {
	bk, _ := newBank(t)
	require.NoError(t, bk.SetBalance(owner, sim.NewCoins(
		sim.NewCoin("btc", 20),
		sim.NewCoin("eth", 100),
	)))
	require.NoError(t, bk.SetBalance(other, sim.NewCoins(sim.NewCoin("eth", 50))))

	total, err := bk.TotalSupply("eth")
	require.NoError(t, err)
	assert.Equal(t, int64(150), total.Int64())

	total, err = bk.TotalSupply("doge")
	require.NoError(t, err)
	assert.Zero(t, total.Sign())

	// transfers conserve supply
	require.NoError(t, bk.Transfer(owner, other, sim.NewCoins(sim.NewCoin("eth", 30))))
	total, err = bk.TotalSupply("eth")
	require.NoError(t, err)
	assert.Equal(t, int64(150), total.Int64())
}
