// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/overlay"
	"github.com/chainsim/chainsim/sim"
)

// handler executes one message of the work-list against the
// transaction overlay. It implements Visitor, so the message sum stays
// exhaustively covered.
type handler struct {
	rt     *Runtime
	ov     *overlay.Overlay
	sender sim.Address

	// outputs of the handled message
	contract   sim.Address // sender for any returned sub-messages
	messages   []Msg
	attributes []Attribute
	data       []byte
}

// VisitExecute implements Visitor. Funds move before the contract's
// logic runs.
func (h *handler) VisitExecute(m *ExecuteMsg) error {
	inst, err := newRegistry(bucketRegistry.NewStore(h.ov)).Get(m.Contract)
	if err != nil {
		return err
	}
	if inst == nil {
		return errors.WithMessage(ErrUnknownContract, m.Contract.String())
	}
	impl := h.rt.codes[inst.CodeID-1]

	if !m.SendFunds.IsZero() {
		if err := h.rt.bankOn(h.ov).Transfer(h.sender, m.Contract, m.SendFunds); err != nil {
			return err
		}
	}

	res, err := impl.Execute(
		h.rt.contractDeps(h.ov, m.Contract),
		Env{Block: h.rt.block, Contract: m.Contract},
		MessageInfo{Sender: h.sender, Funds: m.SendFunds},
		m.Msg,
	)
	if err != nil {
		return err
	}
	h.contract = m.Contract
	h.messages = res.Messages
	h.attributes = res.Attributes
	h.data = res.Data
	return nil
}

// VisitInstantiate implements Visitor. The call's result data is the
// newly allocated address, encoded as raw bytes.
func (h *handler) VisitInstantiate(m *InstantiateMsg) error {
	if m.CodeID == 0 || m.CodeID > uint64(len(h.rt.codes)) {
		return errors.WithMessagef(ErrUnknownCodeID, "%d", m.CodeID)
	}
	impl := h.rt.codes[m.CodeID-1]

	addr, err := newRegistry(bucketRegistry.NewStore(h.ov)).Allocate(m.CodeID, m.Label, h.sender)
	if err != nil {
		return err
	}
	if !m.SendFunds.IsZero() {
		if err := h.rt.bankOn(h.ov).Transfer(h.sender, addr, m.SendFunds); err != nil {
			return err
		}
	}

	res, err := impl.Instantiate(
		h.rt.contractDeps(h.ov, addr),
		Env{Block: h.rt.block, Contract: addr},
		MessageInfo{Sender: h.sender, Funds: m.SendFunds},
		m.Msg,
	)
	if err != nil {
		return err
	}
	h.contract = addr
	h.messages = res.Messages
	h.attributes = res.Attributes
	h.data = addr.Bytes()
	return nil
}

// VisitMigrate implements Visitor.
func (h *handler) VisitMigrate(m *MigrateMsg) error {
	reg := newRegistry(bucketRegistry.NewStore(h.ov))
	inst, err := reg.Get(m.Contract)
	if err != nil {
		return err
	}
	if inst == nil {
		return errors.WithMessage(ErrUnknownContract, m.Contract.String())
	}
	if m.NewCodeID == 0 || m.NewCodeID > uint64(len(h.rt.codes)) {
		return errors.WithMessagef(ErrUnknownCodeID, "%d", m.NewCodeID)
	}
	inst.CodeID = m.NewCodeID
	if err := reg.set(m.Contract, inst); err != nil {
		return err
	}

	res, err := h.rt.codes[m.NewCodeID-1].Migrate(
		h.rt.contractDeps(h.ov, m.Contract),
		Env{Block: h.rt.block, Contract: m.Contract},
		m.Msg,
	)
	if err != nil {
		return err
	}
	h.contract = m.Contract
	h.messages = res.Messages
	h.attributes = res.Attributes
	h.data = res.Data
	return nil
}

// VisitBankSend implements Visitor. The sender of the message is the
// paying address.
func (h *handler) VisitBankSend(m *BankSendMsg) error {
	return h.rt.bankOn(h.ov).Transfer(h.sender, m.ToAddress, m.Amount)
}

// VisitStaking implements Visitor.
func (h *handler) VisitStaking(m *StakingMsg) error {
	stk := h.rt.stakingOn(h.ov)
	switch {
	case m.Delegate != nil:
		return stk.Delegate(h.sender, m.Delegate.Validator, m.Delegate.Amount)
	case m.Undelegate != nil:
		return stk.Undelegate(h.sender, m.Undelegate.Validator, m.Undelegate.Amount)
	case m.Redelegate != nil:
		return stk.Redelegate(h.sender, m.Redelegate.SrcValidator, m.Redelegate.DstValidator, m.Redelegate.Amount)
	default:
		return errors.WithMessage(ErrUnsupportedMsg, "empty staking msg")
	}
}

// VisitDistribution implements Visitor.
func (h *handler) VisitDistribution(m *DistributionMsg) error {
	if m.WithdrawReward == nil {
		return errors.WithMessage(ErrUnsupportedMsg, "empty distribution msg")
	}
	_, err := h.rt.distributionOn(h.ov).WithdrawReward(h.sender, m.WithdrawReward.Validator)
	return err
}
