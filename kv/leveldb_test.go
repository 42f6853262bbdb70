// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/kv"
)

func newStore(t *testing.T) *kv.LevelDB {
	db, err := kv.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLevelDBGetPut(t *testing.T) {
	db := newStore(t)

	_, err := db.Get([]byte("missing"))
	assert.Error(t, err)
	assert.True(t, db.IsNotFound(err))

	assert.NoError(t, db.Put([]byte("key"), []byte("value")))
	v, err := db.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("value"), v)

	has, err := db.Has([]byte("key"))
	assert.NoError(t, err)
	assert.True(t, has)

	assert.NoError(t, db.Delete([]byte("key")))
	has, err = db.Has([]byte("key"))
	assert.NoError(t, err)
	assert.False(t, has)
}

func TestLevelDBIterate(t *testing.T) {
	db := newStore(t)
	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, db.Put([]byte(k), []byte("v"+k)))
	}

	collect := func(r kv.Range, reverse bool) (keys []string) {
		it := db.Iterate(r, reverse)
		defer it.Release()
		for it.Next() {
			keys = append(keys, string(it.Key()))
		}
		assert.NoError(t, it.Error())
		return
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, collect(kv.Range{}, false))
	assert.Equal(t, []string{"d", "c", "b", "a"}, collect(kv.Range{}, true))
	assert.Equal(t, []string{"b", "c"}, collect(kv.Range{Start: []byte("b"), Limit: []byte("d")}, false))
	assert.Equal(t, []string{"c", "b"}, collect(kv.Range{Start: []byte("b"), Limit: []byte("d")}, true))
}
