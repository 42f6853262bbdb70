// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package overlay_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/overlay"
)

func newBase(t *testing.T, kvs map[string]string) kv.Store {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	for k, v := range kvs {
		require.NoError(t, db.Put([]byte(k), []byte(v)))
	}
	return db
}

func dump(t *testing.T, s kv.Store) map[string]string {
	out := make(map[string]string)
	it := s.Iterate(kv.Range{}, false)
	defer it.Release()
	for it.Next() {
		out[string(it.Key())] = string(it.Value())
	}
	require.NoError(t, it.Error())
	return out
}

func TestOverlayGet(t *testing.T) {
	base := newBase(t, map[string]string{"foo": "bar"})
	ov := overlay.New(base)

	// reads fall through to the base
	v, err := ov.Get([]byte("foo"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), v)

	// local writes are observed immediately
	require.NoError(t, ov.Put([]byte("foo"), []byte("baz")))
	v, err = ov.Get([]byte("foo"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("baz"), v)

	// local deletes hide base entries
	require.NoError(t, ov.Delete([]byte("foo")))
	_, err = ov.Get([]byte("foo"))
	assert.True(t, ov.IsNotFound(err))

	// the base never saw any of it
	v, err = base.Get([]byte("foo"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("bar"), v)
}

func TestJournalOrder(t *testing.T) {
	base := newBase(t, nil)
	ov := overlay.New(base)

	require.NoError(t, ov.Put([]byte("a"), []byte("1")))
	require.NoError(t, ov.Put([]byte("b"), []byte("2")))
	require.NoError(t, ov.Delete([]byte("a")))
	require.NoError(t, ov.Put([]byte("a"), []byte("3")))

	j := ov.Journal()
	require.Len(t, j, 4)
	assert.Equal(t, []byte("a"), j[0].Key)
	assert.False(t, j[0].Del)
	assert.True(t, j[2].Del)

	// replay order is write order: last write per key wins
	require.NoError(t, overlay.Commit(j, base))
	assert.Equal(t, map[string]string{"a": "3", "b": "2"}, dump(t, base))
}

func TestOverlaySealed(t *testing.T) {
	ov := overlay.New(newBase(t, nil))
	_ = ov.Journal()
	assert.Panics(t, func() { _ = ov.Put([]byte("k"), []byte("v")) })
	assert.Panics(t, func() { _, _ = ov.Get([]byte("k")) })
}

func TestTransactionalCommit(t *testing.T) {
	base := newBase(t, map[string]string{"keep": "old"})

	err := overlay.Transactional(base, func(ov *overlay.Overlay) error {
		if err := ov.Put([]byte("new"), []byte("val")); err != nil {
			return err
		}
		return ov.Delete([]byte("keep"))
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"new": "val"}, dump(t, base))
}

func TestTransactionalRollback(t *testing.T) {
	base := newBase(t, map[string]string{"a": "1", "b": "2"})
	before := dump(t, base)

	boom := errors.New("boom")
	err := overlay.Transactional(base, func(ov *overlay.Overlay) error {
		require.NoError(t, ov.Put([]byte("a"), []byte("changed")))
		require.NoError(t, ov.Delete([]byte("b")))
		require.NoError(t, ov.Put([]byte("c"), []byte("3")))
		return boom
	})
	assert.Equal(t, boom, err)

	// base contents are identical before and after the failed action
	assert.Equal(t, before, dump(t, base))
}

func TestCommitFidelity(t *testing.T) {
	base := newBase(t, map[string]string{"x": "0"})
	ov := overlay.New(base)

	require.NoError(t, ov.Put([]byte("x"), []byte("1")))
	require.NoError(t, ov.Put([]byte("y"), []byte("2")))
	require.NoError(t, ov.Put([]byte("z"), []byte("3")))
	require.NoError(t, ov.Delete([]byte("z")))

	require.NoError(t, overlay.Commit(ov.Journal(), base))

	// every surviving write is readable with the overlay's value,
	// deleted keys are absent
	assert.Equal(t, map[string]string{"x": "1", "y": "2"}, dump(t, base))
}
