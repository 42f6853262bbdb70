// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis seeds a fresh runtime from a user supplied genesis
// document, so test suites can start from a declarative fixture
// instead of a pile of SetBankBalance calls.
package genesis

import (
	"encoding/json"
	"io"
	"math/big"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/chainsim/chainsim/runtime"
	"github.com/chainsim/chainsim/sim"
)

// CustomGenesis is a user customized genesis.
type CustomGenesis struct {
	ChainID    string      `json:"chainId"`
	LaunchTime uint64      `json:"launchTime"`
	BondDenom  string      `json:"bondDenom"`
	Accounts   []Account   `json:"accounts"`
	Validators []Validator `json:"validators"`
}

// Account is one pre-funded account.
type Account struct {
	Address  sim.Address `json:"address"`
	Balances []Balance   `json:"balances"`
}

// Balance is one denom entry of an account. Amounts travel as decimal
// strings for portability.
type Balance struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Validator is one pre-registered validator.
type Validator struct {
	Address    sim.Address `json:"address"`
	Commission string      `json:"commission"`
}

// Load parses a genesis document.
func Load(r io.Reader) (*CustomGenesis, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var gen CustomGenesis
	if err := dec.Decode(&gen); err != nil {
		return nil, errors.Wrap(err, "parse genesis")
	}
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	return &gen, nil
}

// Validate checks the document for obvious mistakes before any of it
// is applied.
func (g *CustomGenesis) Validate() error {
	for _, acc := range g.Accounts {
		if acc.Address.IsZero() {
			return errors.New("account with empty address")
		}
		for _, b := range acc.Balances {
			if _, ok := new(big.Int).SetString(b.Amount, 10); !ok {
				return errors.Errorf("account %s: bad amount %q", acc.Address, b.Amount)
			}
		}
	}
	for _, v := range g.Validators {
		if v.Address.IsZero() {
			return errors.New("validator with empty address")
		}
		if v.Commission != "" {
			if _, err := decimal.NewFromString(v.Commission); err != nil {
				return errors.Wrapf(err, "validator %s: bad commission", v.Address)
			}
		}
	}
	return nil
}

// Apply seeds the runtime: block context, bond denom, balances and
// validator registrations.
func (g *CustomGenesis) Apply(rt *runtime.Runtime) error {
	if g.BondDenom != "" {
		rt.SetBondDenom(g.BondDenom)
	}
	rt.UpdateBlock(func(b *sim.BlockInfo) {
		if g.ChainID != "" {
			b.ChainID = g.ChainID
		}
		if g.LaunchTime != 0 {
			b.Time = g.LaunchTime
		}
	})

	for _, acc := range g.Accounts {
		coins := sim.Coins{}
		for _, b := range acc.Balances {
			amount, _ := new(big.Int).SetString(b.Amount, 10)
			coins = coins.Add(sim.NewCoinBig(b.Denom, amount))
		}
		if err := rt.SetBankBalance(acc.Address, coins); err != nil {
			return errors.WithMessagef(err, "fund %s", acc.Address)
		}
	}
	for _, v := range g.Validators {
		commission := decimal.Zero
		if v.Commission != "" {
			commission, _ = decimal.NewFromString(v.Commission)
		}
		if err := rt.AddValidator(v.Address, commission); err != nil {
			return errors.WithMessagef(err, "register %s", v.Address)
		}
	}
	return nil
}
