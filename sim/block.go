// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

// BlockInfo is the simulated block context every call observes.
// The harness has no block production; tests advance it explicitly
// between calls.
type BlockInfo struct {
	Height  uint32
	Time    uint64 // unix timestamp in seconds
	ChainID string
}
