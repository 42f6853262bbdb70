// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package overlay implements a copy-on-write transactional layer over
// a kv store. Writes and deletes are buffered in a local delta map and
// recorded in an ordered journal; nothing touches the base store until
// the journal is committed. It acts as a store with all-or-nothing
// semantics.
package overlay

import (
	"github.com/pkg/errors"

	"github.com/chainsim/chainsim/kv"
)

// Op is one recorded write or delete operation.
type Op struct {
	Key   []byte
	Value []byte // nil when Del is set
	Del   bool
}

// Journal is the ordered replication log of an overlay. Replaying it
// onto the base store in recorded order reproduces the overlay's
// effect; last-write-wins per key follows call order, not key order.
type Journal []Op

type delta struct {
	value   []byte
	deleted bool
}

var errNotFound = errors.New("not found")

// Overlay buffers writes over a base store. It implements kv.Store.
// Not safe for concurrent use; the harness is single-threaded.
type Overlay struct {
	base    kv.Store
	deltas  map[string]delta
	journal Journal
	sealed  bool
}

// New creates an overlay over base.
func New(base kv.Store) *Overlay {
	return &Overlay{
		base:   base,
		deltas: make(map[string]delta),
	}
}

// Get returns the buffered value if the key was written in this
// transaction, otherwise delegates to the base store.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.ensureOpen()
	if d, ok := o.deltas[string(key)]; ok {
		if d.deleted {
			return nil, errNotFound
		}
		return d.value, nil
	}
	return o.base.Get(key)
}

// Has returns whether the key is present, observing buffered ops.
func (o *Overlay) Has(key []byte) (bool, error) {
	o.ensureOpen()
	if d, ok := o.deltas[string(key)]; ok {
		return !d.deleted, nil
	}
	return o.base.Has(key)
}

// IsNotFound checks errors returned by Get.
func (o *Overlay) IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound || o.base.IsNotFound(err)
}

// IsNotFound checks not-found errors produced by overlays.
func IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound
}

// Put buffers a write. Subsequent reads within the transaction observe
// it immediately.
func (o *Overlay) Put(key, val []byte) error {
	o.ensureOpen()
	k := append([]byte(nil), key...)
	v := append([]byte(nil), val...)
	o.journal = append(o.journal, Op{Key: k, Value: v})
	o.deltas[string(key)] = delta{value: v}
	return nil
}

// Delete buffers a delete.
func (o *Overlay) Delete(key []byte) error {
	o.ensureOpen()
	k := append([]byte(nil), key...)
	o.journal = append(o.journal, Op{Key: k, Del: true})
	o.deltas[string(key)] = delta{deleted: true}
	return nil
}

// Journal seals the overlay and returns its journal. No further reads
// or writes are permitted afterwards.
func (o *Overlay) Journal() Journal {
	o.ensureOpen()
	o.sealed = true
	return o.journal
}

func (o *Overlay) ensureOpen() {
	if o.sealed {
		panic("overlay: use after journal taken")
	}
}

// Commit replays the journal onto dst in recorded order.
func Commit(j Journal, dst kv.Putter) error {
	for _, op := range j {
		if op.Del {
			if err := dst.Delete(op.Key); err != nil {
				return errors.Wrap(err, "replay delete")
			}
		} else if err := dst.Put(op.Key, op.Value); err != nil {
			return errors.Wrap(err, "replay put")
		}
	}
	return nil
}

// Transactional runs fn against a fresh overlay over base. On success
// the overlay's journal is committed to base; on error the overlay is
// discarded and base is left untouched.
func Transactional(base kv.Store, fn func(*Overlay) error) error {
	ov := New(base)
	if err := fn(ov); err != nil {
		return err
	}
	return Commit(ov.Journal(), base)
}
