// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/voltfi/vecore/ve"
)

// Uint64 is a storage cell holding a small unsigned integer (timestamps,
// epoch indexes, counters).
type Uint64 struct {
	context *Context
	pos     ve.Bytes32
}

// NewUint64 declares a uint64 cell at pos within the context's namespace.
func NewUint64(context *Context, pos ve.Bytes32) *Uint64 {
	return &Uint64{context: context, pos: pos}
}

// Get returns the stored value, zero for an unset cell.
func (u *Uint64) Get() (uint64, error) {
	stored, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return 0, err
	}
	return new(big.Int).SetBytes(stored.Bytes()).Uint64(), nil
}

// Set stores the value.
func (u *Uint64) Set(value uint64) {
	u.context.state.SetStorage(u.context.address, u.pos, ve.BytesToBytes32(new(big.Int).SetUint64(value).Bytes()))
}
