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

func TestCachedReadThrough(t *testing.T) {
	db := newStore(t)
	cached := kv.NewCached(db, 16)

	require.NoError(t, db.Put([]byte("key"), []byte("base")))

	v, err := cached.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("base"), v)

	// writes through the cached handle stay coherent
	require.NoError(t, cached.Put([]byte("key"), []byte("new")))
	v, err = cached.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), v)

	v, err = db.Get([]byte("key"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("new"), v)

	require.NoError(t, cached.Delete([]byte("key")))
	_, err = cached.Get([]byte("key"))
	assert.True(t, cached.IsNotFound(err))
}

func TestCachedMiss(t *testing.T) {
	db := newStore(t)
	cached := kv.NewCached(db, 16)

	_, err := cached.Get([]byte("missing"))
	assert.True(t, cached.IsNotFound(err))

	has, err := cached.Has([]byte("missing"))
	assert.NoError(t, err)
	assert.False(t, has)
}
