// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package overlay

import (
	"bytes"
	"sort"

	"github.com/chainsim/chainsim/kv"
)

// Iterate yields pairs in r merged from the local delta map and the
// base store, backwards if reverse is set. On key collision the local
// entry wins and the base entry is skipped; locally deleted entries
// are never yielded. An inverted bound yields an empty sequence.
func (o *Overlay) Iterate(r kv.Range, reverse bool) kv.Iterator {
	o.ensureOpen()
	if len(r.Limit) > 0 && bytes.Compare(r.Start, r.Limit) > 0 {
		return &emptyIter{}
	}

	// snapshot matching delta keys in iteration order
	keys := make([]string, 0, len(o.deltas))
	for k := range o.deltas {
		kb := []byte(k)
		if bytes.Compare(kb, r.Start) < 0 {
			continue
		}
		if len(r.Limit) > 0 && bytes.Compare(kb, r.Limit) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if reverse {
			return keys[i] > keys[j]
		}
		return keys[i] < keys[j]
	})

	return &mergedIter{
		base:    o.base.Iterate(r, reverse),
		deltas:  o.deltas,
		keys:    keys,
		reverse: reverse,
	}
}

// mergedIter merge-walks sorted delta keys and the base iterator.
type mergedIter struct {
	base    kv.Iterator
	deltas  map[string]delta
	keys    []string
	reverse bool

	baseKey []byte // current base pair, nil when exhausted
	baseVal []byte
	basePos bool // base cursor loaded

	key, val []byte
	released bool
}

func (i *mergedIter) advanceBase() {
	if i.base.Next() {
		i.baseKey = append(i.baseKey[:0], i.base.Key()...)
		i.baseVal = append(i.baseVal[:0], i.base.Value()...)
	} else {
		i.baseKey = nil
		i.baseVal = nil
	}
}

// before reports whether a sorts before b in iteration order.
func (i *mergedIter) before(a, b []byte) bool {
	if i.reverse {
		return bytes.Compare(a, b) > 0
	}
	return bytes.Compare(a, b) < 0
}

func (i *mergedIter) Next() bool {
	if i.released {
		return false
	}
	if !i.basePos {
		i.basePos = true
		i.advanceBase()
	}
	for {
		var dk []byte
		if len(i.keys) > 0 {
			dk = []byte(i.keys[0])
		}
		switch {
		case dk == nil && i.baseKey == nil:
			return false
		case dk == nil:
			// base only
			i.key = append(i.key[:0], i.baseKey...)
			i.val = append(i.val[:0], i.baseVal...)
			i.advanceBase()
			return true
		case i.baseKey == nil || i.before(dk, i.baseKey):
			// delta only
			i.keys = i.keys[1:]
			if d := i.deltas[string(dk)]; !d.deleted {
				i.key = append(i.key[:0], dk...)
				i.val = append(i.val[:0], d.value...)
				return true
			}
		case bytes.Equal(dk, i.baseKey):
			// collision, delta wins
			i.keys = i.keys[1:]
			i.advanceBase()
			if d := i.deltas[string(dk)]; !d.deleted {
				i.key = append(i.key[:0], dk...)
				i.val = append(i.val[:0], d.value...)
				return true
			}
		default:
			// base first
			i.key = append(i.key[:0], i.baseKey...)
			i.val = append(i.val[:0], i.baseVal...)
			i.advanceBase()
			return true
		}
	}
}

func (i *mergedIter) Key() []byte   { return i.key }
func (i *mergedIter) Value() []byte { return i.val }
func (i *mergedIter) Error() error  { return i.base.Error() }

func (i *mergedIter) Release() {
	i.released = true
	i.base.Release()
}

type emptyIter struct{}

func (*emptyIter) Next() bool    { return false }
func (*emptyIter) Key() []byte   { return nil }
func (*emptyIter) Value() []byte { return nil }
func (*emptyIter) Release()      {}
func (*emptyIter) Error() error  { return nil }
