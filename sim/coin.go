// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrInsufficientFunds is returned when a coin subtraction would
// drive an amount below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Coin is an amount of a single fungible asset unit.
type Coin struct {
	Denom  string
	Amount *big.Int
}

// NewCoin creates a coin from an int64 amount.
func NewCoin(denom string, amount int64) Coin {
	return Coin{Denom: denom, Amount: big.NewInt(amount)}
}

// NewCoinBig creates a coin from a big.Int amount. The amount is copied.
func NewCoinBig(denom string, amount *big.Int) Coin {
	return Coin{Denom: denom, Amount: new(big.Int).Set(amount)}
}

// Validate checks denom and amount sanity.
func (c Coin) Validate() error {
	if c.Denom == "" {
		return errors.New("empty denom")
	}
	if c.Amount == nil || c.Amount.Sign() < 0 {
		return errors.New("negative or nil amount")
	}
	return nil
}

// IsZero returns whether the amount is zero.
func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

// String implements the stringer interface.
func (c Coin) String() string {
	return fmt.Sprintf("%v%s", c.Amount, c.Denom)
}

// Coins is an ordered set of coins. The zero value is a valid empty
// set. Invariants maintained by all operations: sorted by denom,
// denoms unique, no zero or negative amounts.
type Coins []Coin

// NewCoins builds a normalized coin set from the given coins.
// Coins sharing a denom are merged, zero amounts dropped.
func NewCoins(coins ...Coin) Coins {
	var cs Coins
	for _, c := range coins {
		cs = cs.Add(c)
	}
	return cs
}

// Validate checks set invariants.
func (cs Coins) Validate() error {
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.IsZero() {
			return errors.Errorf("zero amount for denom %s", c.Denom)
		}
		if i > 0 && cs[i-1].Denom >= c.Denom {
			return errors.Errorf("unsorted or duplicate denom %s", c.Denom)
		}
	}
	return nil
}

// AmountOf returns the amount held for denom, zero if absent.
// The returned value must not be mutated.
func (cs Coins) AmountOf(denom string) *big.Int {
	i := sort.Search(len(cs), func(i int) bool { return cs[i].Denom >= denom })
	if i < len(cs) && cs[i].Denom == denom {
		return cs[i].Amount
	}
	return new(big.Int)
}

// Add returns a new set with c added, preserving invariants.
func (cs Coins) Add(c Coin) Coins {
	if c.IsZero() {
		return cs.Clone()
	}
	out := cs.Clone()
	i := sort.Search(len(out), func(i int) bool { return out[i].Denom >= c.Denom })
	if i < len(out) && out[i].Denom == c.Denom {
		out[i].Amount = new(big.Int).Add(out[i].Amount, c.Amount)
		return out
	}
	out = append(out, Coin{})
	copy(out[i+1:], out[i:])
	out[i] = NewCoinBig(c.Denom, c.Amount)
	return out
}

// Sub returns a new set with c subtracted. It fails with
// ErrInsufficientFunds if the result would be negative. Amounts that
// reach zero are removed from the set.
func (cs Coins) Sub(c Coin) (Coins, error) {
	if c.IsZero() {
		return cs.Clone(), nil
	}
	have := cs.AmountOf(c.Denom)
	if have.Cmp(c.Amount) < 0 {
		return nil, errors.WithMessagef(ErrInsufficientFunds, "%v < %v", Coin{c.Denom, have}, c)
	}
	out := cs.Clone()
	i := sort.Search(len(out), func(i int) bool { return out[i].Denom >= c.Denom })
	out[i].Amount = new(big.Int).Sub(out[i].Amount, c.Amount)
	if out[i].Amount.Sign() == 0 {
		out = append(out[:i], out[i+1:]...)
	}
	return out, nil
}

// IsZero returns whether the set holds no coins.
func (cs Coins) IsZero() bool {
	return len(cs) == 0
}

// Clone returns a deep copy of the set.
func (cs Coins) Clone() Coins {
	if cs == nil {
		return nil
	}
	out := make(Coins, len(cs))
	for i, c := range cs {
		out[i] = NewCoinBig(c.Denom, c.Amount)
	}
	return out
}

// String implements the stringer interface.
func (cs Coins) String() string {
	strs := make([]string, len(cs))
	for i, c := range cs {
		strs[i] = c.String()
	}
	return strings.Join(strs, ",")
}
