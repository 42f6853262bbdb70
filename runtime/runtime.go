// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package runtime is the execution engine of the harness. It owns the
// actor registry, the block context and the backing store, and runs
// every top-level message as one all-or-nothing transaction: a
// copy-on-write overlay is opened, the message and every sub-message
// it spawns are dispatched through a work-list, and the overlay is
// committed only if the whole call tree succeeded.
package runtime

import (
	logging "github.com/ipfs/go-log/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"github.com/chainsim/chainsim/builtin/bank"
	"github.com/chainsim/chainsim/builtin/distribution"
	"github.com/chainsim/chainsim/builtin/staking"
	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/overlay"
	"github.com/chainsim/chainsim/sim"
)

var logger = logging.Logger("runtime")

var (
	// ErrStoreBusy reports a re-entrant call while another top-level
	// execution holds the store. It is never retried internally.
	ErrStoreBusy = errors.New("store busy: re-entrant execution")
	// ErrUnsupportedMsg reports a message no handler covers.
	ErrUnsupportedMsg = errors.New("unsupported message kind")
	// ErrTooDeep reports a call tree exceeding the depth limit.
	ErrTooDeep = errors.New("call tree too deep")
	// ErrUnknownContract reports a message to an address with no instance.
	ErrUnknownContract = errors.New("unknown contract")
	// ErrUnknownCodeID reports an instantiate of unstored code.
	ErrUnknownCodeID = errors.New("unknown code id")
)

const (
	// DefaultMaxCallDepth bounds sub-message recursion.
	DefaultMaxCallDepth = 32

	stakingModuleAddr      = sim.Address("staking_module")
	distributionModuleAddr = sim.Address("distribution_module")
)

// storage namespaces within the backing store
var (
	bucketBank      = kv.Bucket("bnk\x00")
	bucketStaking   = kv.Bucket("stk\x00")
	bucketRegistry  = kv.Bucket("reg\x00")
	bucketContracts = kv.Bucket("wsm\x00")
)

func contractBucket(addr sim.Address) kv.Bucket {
	return bucketContracts + kv.Bucket(addr) + "\x00"
}

// ExecResult is the outcome of a successful top-level execution.
type ExecResult struct {
	Attributes []Attribute
	Data       []byte
}

// Runtime coordinates actors, modules and storage. Not safe for
// concurrent use; execution is strictly sequential and the internal
// guard turns accidental re-entrancy into ErrStoreBusy.
type Runtime struct {
	store kv.Store
	guard *semaphore.Weighted
	block sim.BlockInfo

	codes     []Contract
	maxDepth  int
	bondDenom string
	rewards   distribution.RewardStrategy
}

// New creates a runtime over the given backing store.
func New(store kv.Store) *Runtime {
	rt := &Runtime{
		store:     store,
		guard:     semaphore.NewWeighted(1),
		block:     sim.BlockInfo{Height: 1, Time: 1_600_000_000, ChainID: "chainsim-1"},
		maxDepth:  DefaultMaxCallDepth,
		bondDenom: "stake",
	}
	rt.rewards = distribution.NilStrategy{Denom: rt.bondDenom}
	return rt
}

// SetBondDenom sets the staking denom. Returns this runtime.
func (rt *Runtime) SetBondDenom(denom string) *Runtime {
	rt.bondDenom = denom
	if _, ok := rt.rewards.(distribution.NilStrategy); ok {
		rt.rewards = distribution.NilStrategy{Denom: denom}
	}
	return rt
}

// SetMaxCallDepth sets the sub-message depth limit. Returns this runtime.
func (rt *Runtime) SetMaxCallDepth(depth int) *Runtime {
	rt.maxDepth = depth
	return rt
}

// SetRewardStrategy sets the reward accrual strategy. Returns this runtime.
func (rt *Runtime) SetRewardStrategy(s distribution.RewardStrategy) *Runtime {
	rt.rewards = s
	return rt
}

// BondDenom returns the staking denom.
func (rt *Runtime) BondDenom() string { return rt.bondDenom }

// Block returns the current simulated block context.
func (rt *Runtime) Block() sim.BlockInfo { return rt.block }

// UpdateBlock advances the simulated chain between calls.
func (rt *Runtime) UpdateBlock(fn func(*sim.BlockInfo)) {
	fn(&rt.block)
}

// StoreCode registers a contract implementation and returns its code id.
func (rt *Runtime) StoreCode(c Contract) uint64 {
	rt.codes = append(rt.codes, c)
	return uint64(len(rt.codes))
}

// SetBankBalance overwrites an address's balance directly on committed
// state. Test-setup only; it bypasses transactional dispatch.
func (rt *Runtime) SetBankBalance(addr sim.Address, coins sim.Coins) error {
	return bank.New(bucketBank.NewStore(rt.store)).SetBalance(addr, coins)
}

// AddValidator registers a validator directly on committed state.
// Test-setup only, like SetBankBalance.
func (rt *Runtime) AddValidator(addr sim.Address, commission decimal.Decimal) error {
	return rt.stakingOn(rt.store).AddValidator(addr, commission)
}

// Slash applies a punitive stake reduction to the validator. It runs
// as its own transaction.
func (rt *Runtime) Slash(validator sim.Address, ratio decimal.Decimal) error {
	if !rt.guard.TryAcquire(1) {
		return ErrStoreBusy
	}
	defer rt.guard.Release(1)
	return overlay.Transactional(rt.store, func(ov *overlay.Overlay) error {
		return rt.stakingOn(ov).Slash(validator, ratio)
	})
}

// ExecuteContract calls a contract's execute entry point with funds.
func (rt *Runtime) ExecuteContract(contract, sender sim.Address, msg []byte, funds sim.Coins) (*ExecResult, error) {
	return rt.Execute(sender, &ExecuteMsg{Contract: contract, Msg: msg, SendFunds: funds})
}

// InstantiateContract creates a contract instance from stored code and
// returns its freshly allocated address.
func (rt *Runtime) InstantiateContract(codeID uint64, sender sim.Address, msg []byte, funds sim.Coins, label string) (sim.Address, error) {
	res, err := rt.Execute(sender, &InstantiateMsg{CodeID: codeID, Msg: msg, SendFunds: funds, Label: label})
	if err != nil {
		return "", err
	}
	return sim.Address(res.Data), nil
}

// MigrateContract switches an instance to new code.
func (rt *Runtime) MigrateContract(contract, sender sim.Address, newCodeID uint64, msg []byte) (*ExecResult, error) {
	return rt.Execute(sender, &MigrateMsg{Contract: contract, NewCodeID: newCodeID, Msg: msg})
}

// Execute runs one top-level message transactionally. On any error
// anywhere in the call tree the error is returned untouched and no
// effect of the transaction is observable.
func (rt *Runtime) Execute(sender sim.Address, msg Msg) (*ExecResult, error) {
	if !rt.guard.TryAcquire(1) {
		return nil, ErrStoreBusy
	}
	defer rt.guard.Release(1)

	ov := overlay.New(rt.store)
	res, err := rt.dispatch(ov, sender, msg)
	if err != nil {
		metricExecutionCount().AddWithLabel(1, map[string]string{"status": "reverted"})
		logger.Debugw("execution reverted", "sender", sender, "err", err)
		return nil, err
	}
	if err := overlay.Commit(ov.Journal(), rt.store); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	metricExecutionCount().AddWithLabel(1, map[string]string{"status": "committed"})
	return res, nil
}

type task struct {
	sender sim.Address
	msg    Msg
	depth  int
}

// dispatch drains an explicit work-list instead of recursing. Children
// are spliced at the front in returned order, which reproduces
// depth-first pre-order: exactly the order recursive dispatch yields.
func (rt *Runtime) dispatch(ov *overlay.Overlay, sender sim.Address, msg Msg) (*ExecResult, error) {
	queue := []task{{sender: sender, msg: msg}}
	result := &ExecResult{}
	maxDepth := 0

	for root := true; len(queue) > 0; root = false {
		t := queue[0]
		queue = queue[1:]
		if t.depth > rt.maxDepth {
			return nil, errors.WithMessagef(ErrTooDeep, "depth %d", t.depth)
		}
		if t.depth > maxDepth {
			maxDepth = t.depth
		}

		h := &handler{rt: rt, ov: ov, sender: t.sender}
		if t.msg == nil {
			return nil, errors.WithMessage(ErrUnsupportedMsg, "nil message")
		}
		if err := t.msg.Accept(h); err != nil {
			return nil, err
		}
		result.Attributes = append(result.Attributes, h.attributes...)
		if root {
			// the top-level data payload; children never overwrite it
			result.Data = h.data
		}

		if len(h.messages) > 0 {
			children := make([]task, 0, len(h.messages)+len(queue))
			for _, m := range h.messages {
				children = append(children, task{sender: h.contract, msg: m, depth: t.depth + 1})
			}
			queue = append(children, queue...)
		}
	}
	metricDispatchDepth().Observe(int64(maxDepth))
	return result, nil
}

func (rt *Runtime) bankOn(store kv.Store) *bank.Bank {
	return bank.New(bucketBank.NewStore(store))
}

func (rt *Runtime) stakingOn(store kv.Store) *staking.Staking {
	return staking.New(bucketStaking.NewStore(store), rt.bankOn(store), rt.bondDenom, stakingModuleAddr, rt.block.Height)
}

func (rt *Runtime) distributionOn(store kv.Store) *distribution.Distribution {
	return distribution.New(rt.bankOn(store), rt.stakingOn(store), rt.rewards, distributionModuleAddr)
}

func (rt *Runtime) contractDeps(store kv.Store, addr sim.Address) Deps {
	return Deps{
		Storage: contractBucket(addr).NewStore(store),
		Querier: &querier{rt: rt, store: store},
	}
}
