// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

// QueryRequest is the closed sum of supported queries. Queries never
// mutate, so they run without an overlay.
type QueryRequest struct {
	Bank    *BankQuery    `json:"bank,omitempty"`
	Staking *StakingQuery `json:"staking,omitempty"`
	Wasm    *WasmQuery    `json:"wasm,omitempty"`
}

// BankQuery is a one-of over bank queries.
type BankQuery struct {
	Balance *BalanceQuery `json:"balance,omitempty"`
	Supply  *SupplyQuery  `json:"supply,omitempty"`
}

// BalanceQuery asks for an address's full balance.
type BalanceQuery struct {
	Address sim.Address `json:"address"`
}

// SupplyQuery asks for the total supply of one denom.
type SupplyQuery struct {
	Denom string `json:"denom"`
}

// StakingQuery is a one-of over staking queries.
type StakingQuery struct {
	Stake       *StakeQuery       `json:"stake,omitempty"`
	Delegations *DelegationsQuery `json:"delegations,omitempty"`
	Validators  *ValidatorsQuery  `json:"validators,omitempty"`
	BondedDenom *BondedDenomQuery `json:"bonded_denom,omitempty"`
}

// StakeQuery asks for one delegation's derived current stake.
type StakeQuery struct {
	Delegator sim.Address `json:"delegator"`
	Validator sim.Address `json:"validator"`
}

// DelegationsQuery lists a delegator's delegations.
type DelegationsQuery struct {
	Delegator sim.Address `json:"delegator"`
}

// ValidatorsQuery lists registered validators.
type ValidatorsQuery struct{}

// BondedDenomQuery asks for the staking denom.
type BondedDenomQuery struct{}

// WasmQuery is a one-of over contract queries.
type WasmQuery struct {
	Smart *SmartQuery `json:"smart,omitempty"`
}

// SmartQuery routes an opaque query payload to a contract.
type SmartQuery struct {
	Contract sim.Address `json:"contract"`
	Msg      []byte      `json:"msg"`
}

// Coin is the portable string form used in query responses.
type Coin struct {
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

func toCoins(cs sim.Coins) []Coin {
	out := make([]Coin, len(cs))
	for i, c := range cs {
		out[i] = Coin{Denom: c.Denom, Amount: c.Amount.String()}
	}
	return out
}

// BalanceResponse answers a BalanceQuery.
type BalanceResponse struct {
	Balances []Coin `json:"balances"`
}

// SupplyResponse answers a SupplyQuery.
type SupplyResponse struct {
	Amount Coin `json:"amount"`
}

// StakeResponse answers a StakeQuery.
type StakeResponse struct {
	Shares string `json:"shares"`
	Stake  Coin   `json:"stake"`
}

// DelegationsResponse answers a DelegationsQuery.
type DelegationsResponse struct {
	Delegations []DelegationEntry `json:"delegations"`
}

// DelegationEntry is one delegation of a listing.
type DelegationEntry struct {
	Validator string `json:"validator"`
	Shares    string `json:"shares"`
	Stake     Coin   `json:"stake"`
}

// ValidatorsResponse answers a ValidatorsQuery.
type ValidatorsResponse struct {
	Validators []ValidatorEntry `json:"validators"`
}

// ValidatorEntry is one validator of a listing.
type ValidatorEntry struct {
	Address    string `json:"address"`
	Commission string `json:"commission"`
}

// BondedDenomResponse answers a BondedDenomQuery.
type BondedDenomResponse struct {
	Denom string `json:"denom"`
}

// Query answers a read-only request against committed state.
func (rt *Runtime) Query(req QueryRequest) ([]byte, error) {
	return rt.queryOn(rt.store, req)
}

// querier is handed to contracts; it reads the same store the current
// call observes, so a contract queries a consistent view.
type querier struct {
	rt    *Runtime
	store kv.Store
}

func (q *querier) Query(req QueryRequest) ([]byte, error) {
	return q.rt.queryOn(q.store, req)
}

func (rt *Runtime) queryOn(store kv.Store, req QueryRequest) ([]byte, error) {
	switch {
	case req.Bank != nil:
		return rt.queryBank(store, req.Bank)
	case req.Staking != nil:
		return rt.queryStaking(store, req.Staking)
	case req.Wasm != nil:
		return rt.queryWasm(store, req.Wasm)
	default:
		return nil, errors.WithMessage(ErrUnsupportedMsg, "empty query")
	}
}

func (rt *Runtime) queryBank(store kv.Store, q *BankQuery) ([]byte, error) {
	bk := rt.bankOn(store)
	switch {
	case q.Balance != nil:
		coins, err := bk.Balance(q.Balance.Address)
		if err != nil {
			return nil, err
		}
		return json.Marshal(BalanceResponse{Balances: toCoins(coins)})
	case q.Supply != nil:
		total, err := bk.TotalSupply(q.Supply.Denom)
		if err != nil {
			return nil, err
		}
		return json.Marshal(SupplyResponse{Amount: Coin{Denom: q.Supply.Denom, Amount: total.String()}})
	default:
		return nil, errors.WithMessage(ErrUnsupportedMsg, "empty bank query")
	}
}

func (rt *Runtime) queryStaking(store kv.Store, q *StakingQuery) ([]byte, error) {
	stk := rt.stakingOn(store)
	switch {
	case q.Stake != nil:
		record, err := stk.Stake(q.Stake.Delegator, q.Stake.Validator)
		if err != nil {
			return nil, err
		}
		stake, err := stk.CurrentStake(q.Stake.Delegator, q.Stake.Validator)
		if err != nil {
			return nil, err
		}
		return json.Marshal(StakeResponse{
			Shares: record.Shares.String(),
			Stake:  Coin{Denom: rt.bondDenom, Amount: stake.String()},
		})
	case q.Delegations != nil:
		dels, err := stk.Delegations(q.Delegations.Delegator)
		if err != nil {
			return nil, err
		}
		entries := make([]DelegationEntry, len(dels))
		for i, d := range dels {
			entries[i] = DelegationEntry{
				Validator: d.Validator,
				Shares:    d.Shares.String(),
				Stake:     Coin{Denom: rt.bondDenom, Amount: d.Stake.String()},
			}
		}
		return json.Marshal(DelegationsResponse{Delegations: entries})
	case q.Validators != nil:
		vals, err := stk.Validators()
		if err != nil {
			return nil, err
		}
		entries := make([]ValidatorEntry, len(vals))
		for i, v := range vals {
			entries[i] = ValidatorEntry{Address: v.Address, Commission: v.Commission.String()}
		}
		return json.Marshal(ValidatorsResponse{Validators: entries})
	case q.BondedDenom != nil:
		return json.Marshal(BondedDenomResponse{Denom: rt.bondDenom})
	default:
		return nil, errors.WithMessage(ErrUnsupportedMsg, "empty staking query")
	}
}

func (rt *Runtime) queryWasm(store kv.Store, q *WasmQuery) ([]byte, error) {
	if q.Smart == nil {
		return nil, errors.WithMessage(ErrUnsupportedMsg, "empty wasm query")
	}
	inst, err := newRegistry(bucketRegistry.NewStore(store)).Get(q.Smart.Contract)
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, errors.WithMessage(ErrUnknownContract, q.Smart.Contract.String())
	}
	deps := Deps{
		Storage: newReadonly(contractBucket(q.Smart.Contract).NewStore(store)),
		Querier: &querier{rt: rt, store: store},
	}
	return rt.codes[inst.CodeID-1].Query(deps, Env{Block: rt.block, Contract: q.Smart.Contract}, q.Smart.Msg)
}
