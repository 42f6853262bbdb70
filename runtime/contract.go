// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package runtime

import (
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/sim"
)

// Contract is the actor host boundary: the four entry points a
// contract instance exposes. The harness never looks inside msg
// payloads; they are opaque bytes between the test and the contract.
type Contract interface {
	Instantiate(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Execute(deps Deps, env Env, info MessageInfo, msg []byte) (*Response, error)
	Query(deps Deps, env Env, msg []byte) ([]byte, error)
	Migrate(deps Deps, env Env, msg []byte) (*Response, error)
}

// Deps is what a contract may touch: its own namespaced storage and a
// querier into the rest of the system.
type Deps struct {
	Storage kv.Store
	Querier Querier
}

// Querier answers read-only query requests.
type Querier interface {
	Query(req QueryRequest) ([]byte, error)
}

// Env is the call environment.
type Env struct {
	Block    sim.BlockInfo
	Contract sim.Address
}

// MessageInfo carries the caller context of a mutating entry point.
type MessageInfo struct {
	Sender sim.Address
	Funds  sim.Coins
}

// Attribute is one string key/value event record.
type Attribute struct {
	Key   string
	Value string
}

// Response is what a contract entry point returns: sub-messages to
// dispatch in order, event attributes, and an optional opaque payload.
type Response struct {
	Messages   []Msg
	Attributes []Attribute
	Data       []byte
}

// readonly wraps a store rejecting all writes. Handed to contracts
// during queries, which must not mutate.
type readonly struct {
	kv.Store
}

var errReadOnly = errors.New("store is read-only")

func newReadonly(src kv.Store) kv.Store {
	return &readonly{src}
}

func (r *readonly) Put(_, _ []byte) error { return errReadOnly }
func (r *readonly) Delete(_ []byte) error { return errReadOnly }
