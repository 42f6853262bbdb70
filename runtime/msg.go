// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import "github.com/chainsim/chainsim/sim"

// Msg is the closed sum of dispatchable message kinds. Dispatch goes
// through Visitor, so adding a kind is a compile-time-enforced change
// everywhere messages are handled.
type Msg interface {
	Accept(v Visitor) error
}

// Visitor handles every message kind.
type Visitor interface {
	VisitExecute(*ExecuteMsg) error
	VisitInstantiate(*InstantiateMsg) error
	VisitMigrate(*MigrateMsg) error
	VisitBankSend(*BankSendMsg) error
	VisitStaking(*StakingMsg) error
	VisitDistribution(*DistributionMsg) error
}

// ExecuteMsg calls a contract's execute entry point. SendFunds moves
// from the sender to the contract strictly before the entry point runs.
type ExecuteMsg struct {
	Contract  sim.Address
	Msg       []byte
	SendFunds sim.Coins
}

// Accept implements Msg.
func (m *ExecuteMsg) Accept(v Visitor) error { return v.VisitExecute(m) }

// InstantiateMsg creates a new instance of stored code. The result
// data of the call is the freshly allocated address, not whatever the
// contract returned.
type InstantiateMsg struct {
	CodeID    uint64
	Msg       []byte
	SendFunds sim.Coins
	Label     string
}

// Accept implements Msg.
func (m *InstantiateMsg) Accept(v Visitor) error { return v.VisitInstantiate(m) }

// MigrateMsg switches a contract instance to new code and invokes its
// migrate entry point.
type MigrateMsg struct {
	Contract  sim.Address
	NewCodeID uint64
	Msg       []byte
}

// Accept implements Msg.
func (m *MigrateMsg) Accept(v Visitor) error { return v.VisitMigrate(m) }

// BankSendMsg moves coins from the message sender to another address.
type BankSendMsg struct {
	ToAddress sim.Address
	Amount    sim.Coins
}

// Accept implements Msg.
func (m *BankSendMsg) Accept(v Visitor) error { return v.VisitBankSend(m) }

// StakingMsg is a one-of over staking operations. Exactly one field
// must be set; an empty message is rejected as unsupported.
type StakingMsg struct {
	Delegate   *DelegateMsg
	Undelegate *UndelegateMsg
	Redelegate *RedelegateMsg
}

// Accept implements Msg.
func (m *StakingMsg) Accept(v Visitor) error { return v.VisitStaking(m) }

// DelegateMsg bonds amount to a validator.
type DelegateMsg struct {
	Validator sim.Address
	Amount    sim.Coin
}

// UndelegateMsg unbonds amount from a validator.
type UndelegateMsg struct {
	Validator sim.Address
	Amount    sim.Coin
}

// RedelegateMsg moves bonded amount between validators.
type RedelegateMsg struct {
	SrcValidator sim.Address
	DstValidator sim.Address
	Amount       sim.Coin
}

// DistributionMsg is a one-of over distribution operations.
type DistributionMsg struct {
	WithdrawReward *WithdrawRewardMsg
}

// Accept implements Msg.
func (m *DistributionMsg) Accept(v Visitor) error { return v.VisitDistribution(m) }

// WithdrawRewardMsg pays out the sender's accrued reward for the
// delegation on the given validator.
type WithdrawRewardMsg struct {
	Validator sim.Address
}
