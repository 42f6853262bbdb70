// Copyright (c) 2024 The chainsim developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package sim

// Address identifies an account inside the harness.
// Unlike an on-chain address it is a free-form human readable string,
// which keeps test scenarios legible. Contract addresses are allocated
// by the runtime's registry and follow the "contract<N>" form.
type Address string

// Bytes returns the byte slice form of the address.
func (a Address) Bytes() []byte {
	return []byte(a)
}

// String implements the stringer interface.
func (a Address) String() string {
	return string(a)
}

// IsZero returns whether the address is empty.
func (a Address) IsZero() bool {
	return a == ""
}
