// Copyright (c) 2026 The VeCore developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/voltfi/vecore/ve"
)

// Uint256 is a storage cell holding an unsigned big integer, in the manner of
// a contract uint256 slot. Values exceeding 256 bits are truncated to fit.
type Uint256 struct {
	context *Context
	pos     ve.Bytes32
}

// NewUint256 declares a uint256 cell at pos within the context's namespace.
func NewUint256(context *Context, pos ve.Bytes32) *Uint256 {
	return &Uint256{context: context, pos: pos}
}

// Get returns the stored value, zero for an unset cell.
func (u *Uint256) Get() (*big.Int, error) {
	stored, err := u.context.state.GetStorage(u.context.address, u.pos)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(stored.Bytes()), nil
}

// Set stores the value.
func (u *Uint256) Set(value *big.Int) {
	u.context.state.SetStorage(u.context.address, u.pos, ve.BytesToBytes32(value.Bytes()))
}

// Add increases the stored value by delta.
func (u *Uint256) Add(delta *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	u.Set(stored.Add(stored, delta))
	return nil
}

// Sub decreases the stored value by delta.
// It errors when delta exceeds the stored value.
func (u *Uint256) Sub(delta *big.Int) error {
	stored, err := u.Get()
	if err != nil {
		return err
	}
	if stored.Cmp(delta) < 0 {
		return errors.New("uint256 underflow")
	}
	u.Set(stored.Sub(stored, delta))
	return nil
}
