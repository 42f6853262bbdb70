// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package overlay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsim/chainsim/kv"
	"github.com/chainsim/chainsim/overlay"
)

func collect(t *testing.T, it kv.Iterator) (keys, vals []string) {
	defer it.Release()
	for it.Next() {
		keys = append(keys, string(it.Key()))
		vals = append(vals, string(it.Value()))
	}
	require.NoError(t, it.Error())
	return
}

func TestIterateMerged(t *testing.T) {
	base := newBase(t, map[string]string{
		"a": "base-a",
		"c": "base-c",
		"e": "base-e",
	})
	ov := overlay.New(base)
	require.NoError(t, ov.Put([]byte("b"), []byte("ov-b")))
	require.NoError(t, ov.Put([]byte("c"), []byte("ov-c"))) // shadows base
	require.NoError(t, ov.Delete([]byte("e")))              // hides base
	require.NoError(t, ov.Put([]byte("f"), []byte("ov-f")))

	keys, vals := collect(t, ov.Iterate(kv.Range{}, false))
	assert.Equal(t, []string{"a", "b", "c", "f"}, keys)
	assert.Equal(t, []string{"base-a", "ov-b", "ov-c", "ov-f"}, vals)
}

func TestIterateReverse(t *testing.T) {
	base := newBase(t, map[string]string{"a": "1", "c": "3"})
	ov := overlay.New(base)
	require.NoError(t, ov.Put([]byte("b"), []byte("2")))
	require.NoError(t, ov.Put([]byte("d"), []byte("4")))

	keys, _ := collect(t, ov.Iterate(kv.Range{}, true))
	assert.Equal(t, []string{"d", "c", "b", "a"}, keys)
}

func TestIterateRange(t *testing.T) {
	base := newBase(t, map[string]string{
		"a": "1", "b": "2", "d": "4", "z": "26",
	})
	ov := overlay.New(base)
	require.NoError(t, ov.Put([]byte("c"), []byte("3")))
	require.NoError(t, ov.Put([]byte("y"), []byte("25")))

	// [b, e): start inclusive, limit exclusive, on both layers
	keys, _ := collect(t, ov.Iterate(kv.Range{Start: []byte("b"), Limit: []byte("e")}, false))
	assert.Equal(t, []string{"b", "c", "d"}, keys)

	// open limit runs to the end
	keys, _ = collect(t, ov.Iterate(kv.Range{Start: []byte("y")}, false))
	assert.Equal(t, []string{"y", "z"}, keys)
}

func TestIterateInvertedBounds(t *testing.T) {
	base := newBase(t, map[string]string{"m": "1"})
	ov := overlay.New(base)
	require.NoError(t, ov.Put([]byte("n"), []byte("2")))

	keys, _ := collect(t, ov.Iterate(kv.Range{Start: []byte("z"), Limit: []byte("a")}, false))
	assert.Empty(t, keys)
}

func TestIterateDeleteThenRewrite(t *testing.T) {
	base := newBase(t, map[string]string{"k": "old"})
	ov := overlay.New(base)
	require.NoError(t, ov.Delete([]byte("k")))
	require.NoError(t, ov.Put([]byte("k"), []byte("new")))

	keys, vals := collect(t, ov.Iterate(kv.Range{}, false))
	assert.Equal(t, []string{"k"}, keys)
	assert.Equal(t, []string{"new"}, vals)
}

func TestIterateDeltaOnly(t *testing.T) {
	ov := overlay.New(newBase(t, nil))
	require.NoError(t, ov.Put([]byte("b"), []byte("2")))
	require.NoError(t, ov.Put([]byte("a"), []byte("1")))

	keys, _ := collect(t, ov.Iterate(kv.Range{}, false))
	assert.Equal(t, []string{"a", "b"}, keys)
}
